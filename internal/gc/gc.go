// Package gc implements the garbage collector for both data and
// translation blocks, per spec.md §4.7. It is handed a Host — satisfied
// by *ftl.Device — rather than owning NAND timing, the map tables, or the
// CMT itself, since those are shared with the request path (spec.md
// §4.6's translation-page I/O in particular is invoked from both sides).
// Generalized from ufs/driver.go's command-dispatch shape (switch on a
// request kind to pick the right handler) applied here to line Type
// (DATA vs TRANS) choosing the right cleaner.
package gc

import (
	"fmt"
	"os"
	"time"

	"dftlsim/internal/cmt"
	"dftlsim/internal/line"
	"dftlsim/internal/maptbl"
	"dftlsim/internal/nand"
	"dftlsim/internal/stats"
)

/// Host is the subset of *ftl.Device the collector needs. Kept as an
/// interface so gc does not import ftl (ftl imports gc and supplies
/// itself as the Host), avoiding a dependency cycle.
type Host interface {
	Geometry() *nand.Geometry
	Clocks() *nand.Clocks
	Maptbl() *maptbl.Maptbl
	Rmap() *maptbl.Rmap
	Gtd() *maptbl.Gtd
	CMT() *cmt.CMT
	Lines() *line.Manager
	EntsPerPg() int
	EnableGCDelay() bool
	Stats() *stats.Device

	/// ReadTranslationPage charges a NAND read on ppa's LUN (spec.md
	/// §4.6's translation_page_read) and returns the latency.
	ReadTranslationPage(ppa nand.PPA, reqType nand.ReqType, stime time.Duration) time.Duration

	/// NewTranslationWrite implements spec.md §4.6's
	/// translation_page_new_write, for a TVPN with no prior on-flash
	/// page: allocate from the trans stream, set gtd/rmap, mark valid,
	/// advance, charge a write.
	NewTranslationWrite(tvpn int, stime time.Duration) nand.PPA

	/// WriteBackTranslationPage implements spec.md §4.6's
	/// translation_page_write(old_ppa): invalidate oldPPA, allocate a
	/// fresh trans-stream page, update gtd/rmap, mark valid, advance,
	/// charge a write. Used here for data-block GC's uncached-mapping
	/// persistence, per spec.md §4.6's own description of that function's
	/// callers.
	WriteBackTranslationPage(oldPPA nand.PPA, stime time.Duration) nand.PPA

	/// GCWriteDataPage implements spec.md §4.7's gc_write_page: allocate a
	/// new data-stream PPA for lpn, update maptbl/rmap, mark valid,
	/// advance the data write pointer, charge a GC write.
	GCWriteDataPage(lpn int, stime time.Duration) nand.PPA

	/// GCRewriteTranslationPage implements spec.md §4.6/§4.7/§9's
	/// gc_translation_page_write: allocate a new trans-stream page for
	/// the TVPN that rmap says oldPPA held, update GTD/rmap, mark valid,
	/// advance the translation write pointer, charge a GC write. It does
	/// NOT invalidate oldPPA (spec.md §9 — mark_block_free handles that).
	/// Used only by clean_one_trans_block, per spec.md §4.6/§9.
	GCRewriteTranslationPage(oldPPA nand.PPA, stime time.Duration) nand.PPA
}

const gcDebug = false

/// Collector runs garbage collection rounds against a Host.
type Collector struct {
	h Host
}

/// New builds a Collector bound to h.
func New(h Host) *Collector {
	return &Collector{h: h}
}

/// DoGC implements spec.md §4.7's do_gc: select a victim, clean and erase
/// every block spanning it, then free the line. It returns false if no
/// victim could be selected (spec.md's "-1" return repurposed as a bool
/// since Go has no natural sentinel int here).
func (c *Collector) DoGC(force bool, stime time.Duration) bool {
	h := c.h
	victim := h.Lines().SelectVictim(force)
	if victim == nil {
		return false
	}

	h.Stats().GCRounds.Inc()
	if force {
		h.Stats().GCForced.Inc()
	}

	g := h.Geometry()
	dedup := make(map[int]struct{})

	for ch := 0; ch < g.NChs; ch++ {
		for lun := 0; lun < g.LunsPerCh; lun++ {
			blockPPA := nand.PPA{Ch: ch, Lun: lun, Pl: 0, Blk: victim.ID, Pg: 0, Sec: 0}
			switch victim.Type {
			case line.TypeData:
				c.cleanOneDataBlock(blockPPA, stime, dedup)
			case line.TypeTrans:
				c.cleanOneTransBlock(blockPPA, stime)
			default:
				panic(fmt.Sprintf("gc: victim line %d has no stream type", victim.ID))
			}

			h.Lines().MarkBlockFree(ch, lun, victim.ID)
			if h.EnableGCDelay() {
				h.Clocks().AdvanceStatus(blockPPA, nand.CmdErase, stime)
			}
			lc := h.Clocks().LunAt(blockPPA)
			lc.GcEndtime = lc.NextAvail
		}
	}

	h.Lines().MarkLineFree(victim)
	return true
}

/// cleanOneDataBlock implements spec.md §4.7's clean_one_data_block: copy
/// out every valid page and reconcile its mapping either in the CMT (mark
/// dirty, let a later eviction persist it) or on flash (batched by TVPN
/// so repeated mappings to the same translation page cost one read+write
/// instead of one per LPN).
func (c *Collector) cleanOneDataBlock(blockPPA nand.PPA, stime time.Duration, dedup map[int]struct{}) {
	h := c.h
	g := h.Geometry()

	for pg := 0; pg < g.PgsPerBlk; pg++ {
		ppa := blockPPA
		ppa.Pg = pg
		if h.Lines().PageStatusAt(ppa) != line.PageValid {
			continue
		}

		h.Clocks().AdvanceStatus(ppa, nand.CmdRead, stime) // GC read

		idx := g.Ppa2Pgidx(ppa)
		lpn := h.Rmap().Get(idx)
		if h.Maptbl().Get(lpn) != ppa {
			if gcDebug {
				fmt.Fprintf(os.Stderr, "gc: data block contains translation page at %v\n", ppa)
			}
			continue
		}

		newPPA := h.GCWriteDataPage(lpn, stime)

		if _, present := h.CMT().Lookup(lpn); present {
			h.CMT().UpdatePPN(lpn, newPPA, cmt.DirtyBit)
			continue
		}

		tvpn := lpn / h.EntsPerPg()
		if _, seen := dedup[tvpn]; seen {
			continue
		}
		dedup[tvpn] = struct{}{}

		oldTransPPA := h.Gtd().Get(tvpn)
		if oldTransPPA.IsUnmapped() {
			// defensive: a data page's mapping should already have a
			// persisted translation page by the time GC runs; fall back
			// to a bare write if not.
			h.NewTranslationWrite(tvpn, stime)
			continue
		}
		h.ReadTranslationPage(oldTransPPA, nand.GcIO, stime)
		h.WriteBackTranslationPage(oldTransPPA, stime)
	}
}

/// cleanOneTransBlock implements spec.md §4.7's clean_one_trans_block:
/// every valid translation page is rewritten to a fresh location via
/// gc_translation_page_write.
func (c *Collector) cleanOneTransBlock(blockPPA nand.PPA, stime time.Duration) {
	h := c.h
	g := h.Geometry()

	for pg := 0; pg < g.PgsPerBlk; pg++ {
		ppa := blockPPA
		ppa.Pg = pg
		if h.Lines().PageStatusAt(ppa) != line.PageValid {
			continue
		}

		h.Clocks().AdvanceStatus(ppa, nand.CmdRead, stime) // GC read
		h.GCRewriteTranslationPage(ppa, stime)
	}
}
