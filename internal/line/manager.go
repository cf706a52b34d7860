// Package line implements the line (super-block) lifecycle manager and
// the two write-pointer stripe allocators, per spec.md §4.4. A line is a
// block index shared across every LUN of every channel; free/full
// membership is a container/list FIFO (generalized from fs/blk.go's
// BlkList_t), and victim selection is a container/heap min-heap keyed on
// valid-page count (spec.md §9's decrease-key design note).
package line

import (
	"container/list"
	"fmt"

	"dftlsim/internal/nand"
)

/// PageStatus is a single page's lifecycle state.
type PageStatus int

const (
	PageFree PageStatus = iota
	PageValid
	PageInvalid
)

/// Type distinguishes which write stream owns a line, per spec.md §3 —
/// it is NONE exactly while the line sits in the free set.
type Type int

const (
	TypeNone Type = iota
	TypeData
	TypeTrans
)

/// Block is one physical block: one block index on one LUN. Its Vpc/Ipc
/// counters and the per-page status array are spec.md §3's Block model.
type Block struct {
	Pages    []PageStatus
	Vpc      int
	Ipc      int
	EraseCnt int
	wp       int /// next unwritten page offset within the block, for diagnostics only
}

/// Line is spec.md §3's super-block: the same block index across every
/// (channel, LUN) pair.
type Line struct {
	ID   int
	Vpc  int
	Ipc  int
	Pos  int /// heap index+1, 0 if not in the victim heap
	Type Type
}

/// WP is a write-pointer stripe cursor. Data and translation streams each
/// own one, independently advancing and possibly resident in different
/// lines at the same time (spec.md §3).
type WP struct {
	Line           *Line
	Ch, Lun, Pl, Pg int
	Blk            int
	lineType       Type
}

/// Manager owns every Line and Block in the array plus the free/full
/// FIFOs and the victim heap. It is the sole mutator of line/block/page
/// lifecycle state, consistent with spec.md §5's single-writer model.
type Manager struct {
	g *nand.Geometry

	/// blocks[lunIdx][blkID] — pl is always 0 per spec.md §1's
	/// single-plane-per-LUN assumption, so the plane dimension is elided.
	blocks [][]*Block
	lines  []*Line

	free *list.List /// of *Line, FIFO
	full *list.List /// of *Line, FIFO

	freeElem map[int]*list.Element /// line ID -> its *list.Element in free, when present
	fullElem map[int]*list.Element /// line ID -> its *list.Element in full, when present

	victims   victimHeap
	victimCnt int

	Data  *WP
	Trans *WP
}

/// NewManager builds a Manager with every line FREE, then adopts two
/// lines (one per stream) as the initial write-pointer targets, per
/// spec.md §3's lifecycle: "lines begin FREE; are adopted by a write
/// pointer and become DATA or TRANS".
func NewManager(g *nand.Geometry) *Manager {
	m := &Manager{
		g:        g,
		blocks:   make([][]*Block, g.TotalLuns),
		lines:    make([]*Line, g.TotalLines),
		free:     list.New(),
		full:     list.New(),
		freeElem: make(map[int]*list.Element),
		fullElem: make(map[int]*list.Element),
	}
	for lun := 0; lun < g.TotalLuns; lun++ {
		blks := make([]*Block, g.BlksPerPl)
		for b := range blks {
			blks[b] = &Block{Pages: make([]PageStatus, g.PgsPerBlk)}
		}
		m.blocks[lun] = blks
	}
	for id := 0; id < g.TotalLines; id++ {
		l := &Line{ID: id, Type: TypeNone}
		m.lines[id] = l
		m.freeElem[id] = m.free.PushBack(l)
	}

	m.Data = m.adoptFreeLine(TypeData)
	m.Trans = m.adoptFreeLine(TypeTrans)
	return m
}

/// FreeLineCnt, VictimLineCnt, FullLineCnt expose the three set
/// cardinalities spec.md §8's invariant #3 checks against.
func (m *Manager) FreeLineCnt() int   { return m.free.Len() }
func (m *Manager) VictimLineCnt() int { return m.victimCnt }
func (m *Manager) FullLineCnt() int   { return m.full.Len() }
func (m *Manager) TotalLines() int    { return len(m.lines) }

/// Line returns the line with the given id.
func (m *Manager) Line(id int) *Line { return m.lines[id] }

/// blockAt returns the Block backing ppa.
func (m *Manager) blockAt(p nand.PPA) *Block {
	return m.blocks[m.g.LunIdx(p)][p.Blk]
}

/// popFreeLine removes and returns the front of the free FIFO. It fatally
/// aborts if the free set is empty — spec.md §4.4 and §7: "If no free
/// line exists, the implementation MUST abort the simulation (fatal)".
func (m *Manager) popFreeLine() *Line {
	e := m.free.Front()
	if e == nil {
		panic("line: no free line available, simulation cannot continue")
	}
	l := e.Value.(*Line)
	m.free.Remove(e)
	delete(m.freeElem, l.ID)
	return l
}

func (m *Manager) adoptFreeLine(t Type) *WP {
	l := m.popFreeLine()
	l.Type = t
	return &WP{Line: l, Blk: l.ID, lineType: t}
}

/// moveToFull transfers l from "currently being written" into the FULL
/// FIFO.
func (m *Manager) moveToFull(l *Line) {
	m.fullElem[l.ID] = m.full.PushBack(l)
}

/// removeFromFull removes l from the FULL FIFO; it must be present.
func (m *Manager) removeFromFull(l *Line) {
	e, ok := m.fullElem[l.ID]
	if !ok {
		panic("line: removeFromFull of a line not in the full set")
	}
	m.full.Remove(e)
	delete(m.fullElem, l.ID)
}

/// CurrentPPA returns the PPA the write pointer wp currently targets,
/// without advancing it.
func (m *Manager) CurrentPPA(wp *WP) nand.PPA {
	return nand.PPA{Ch: wp.Ch, Lun: wp.Lun, Pl: wp.Pl, Blk: wp.Blk, Pg: wp.Pg, Sec: 0}
}

/// Advance steps wp to the next page per spec.md §4.4's striping
/// algorithm, shared identically by the data and translation streams:
/// channel increments every call, cascading into LUN then page; when the
/// current block is fully written its line either moves to FULL (no
/// invalidations occurred) or is pushed onto the victim heap (some page
/// in it was already invalidated), and a new free line is adopted.
func (m *Manager) Advance(wp *WP) {
	wp.Ch++
	if wp.Ch == m.g.NChs {
		wp.Ch = 0
		wp.Lun++
	}
	if wp.Lun == m.g.LunsPerCh {
		wp.Lun = 0
		wp.Pg++
	}
	if wp.Pg == m.g.PgsPerBlk {
		if wp.Line.Vpc == m.g.PgsPerLine {
			m.moveToFull(wp.Line)
		} else {
			m.pushVictim(wp.Line)
		}
		nl := m.popFreeLine()
		nl.Type = wp.lineType
		wp.Line = nl
		wp.Blk = nl.ID
		wp.Pg, wp.Lun, wp.Ch = 0, 0, 0
	}
}

/// MarkPageValid implements spec.md §4.4's mark_page_valid: the page
/// transitions FREE->VALID and both the owning block's and line's Vpc
/// are incremented.
func (m *Manager) MarkPageValid(p nand.PPA) {
	blk := m.blockAt(p)
	if blk.Pages[p.Pg] != PageFree {
		panic(fmt.Sprintf("line: mark_page_valid on non-free page %v", p))
	}
	blk.Pages[p.Pg] = PageValid
	blk.Vpc++
	blk.wp = p.Pg + 1
	m.lines[p.Blk].Vpc++
}

/// MarkPageInvalid implements spec.md §4.4's mark_page_invalid, including
/// the FULL->VICTIM and in-heap decrease-key transitions, and spec.md
/// §9's resolution of the open question about when line.Vpc lands: it
/// always ends at (entry Vpc - 1), regardless of which branch runs.
func (m *Manager) MarkPageInvalid(p nand.PPA) {
	blk := m.blockAt(p)
	if blk.Pages[p.Pg] != PageValid {
		panic(fmt.Sprintf("line: mark_page_invalid on non-valid page %v", p))
	}
	blk.Pages[p.Pg] = PageInvalid
	blk.Ipc++
	blk.Vpc--

	l := m.lines[p.Blk]
	wasFull := l.Vpc == m.g.PgsPerLine
	l.Ipc++
	l.Vpc--

	switch {
	case wasFull:
		m.removeFromFull(l)
		m.pushVictim(l)
	case l.Pos != 0:
		m.fixVictim(l)
	}
}

/// MarkBlockFree resets every page in the block addressed by (ch, lun,
/// blk) to FREE, zeroes its counters, and increments erase_cnt, per
/// spec.md §4.4's mark_block_free. Line-level FREE transition is left to
/// the caller (GC), which does so only once every block of the line has
/// been erased.
func (m *Manager) MarkBlockFree(ch, lun, blk int) {
	b := m.blocks[ch*m.g.LunsPerCh+lun][blk]
	for i := range b.Pages {
		b.Pages[i] = PageFree
	}
	b.Vpc, b.Ipc, b.wp = 0, 0, 0
	b.EraseCnt++
}

/// MarkLineFree zeroes l's counters, sets its type to NONE, and pushes it
/// onto the free FIFO. Called by GC after every block spanning l has
/// been erased.
func (m *Manager) MarkLineFree(l *Line) {
	l.Vpc, l.Ipc = 0, 0
	l.Type = TypeNone
	m.freeElem[l.ID] = m.free.PushBack(l)
}

/// SelectVictim implements spec.md §4.7's select_victim: it peeks the
/// heap top, refuses a low-value victim unless force is set, and
/// otherwise pops it (clearing Pos and decrementing the victim count).
func (m *Manager) SelectVictim(force bool) *Line {
	top := m.peekVictim()
	if top == nil {
		return nil
	}
	if !force && top.Ipc < m.g.PgsPerLine/8 {
		return nil
	}
	return m.popVictimTop()
}

/// BlockAt exposes the Block backing a PPA, for GC's per-page cleaning
/// loop.
func (m *Manager) BlockAt(p nand.PPA) *Block { return m.blockAt(p) }

/// PageStatusAt reports the status of a specific page.
func (m *Manager) PageStatusAt(p nand.PPA) PageStatus {
	return m.blockAt(p).Pages[p.Pg]
}
