package nand

import "fmt"

/// PPA is a packed physical page address: channel/LUN/plane/block/page,
/// plus the sector offset (carried for completeness, per spec.md §3; the
/// core never issues sub-page I/O).
type PPA struct {
	Ch, Lun, Pl, Blk, Pg, Sec int
}

/// Unmapped is the PPA sentinel meaning "no mapping". Every field is -1,
/// which can never occur on a valid address, so PPA equality (==) against
/// Unmapped is a correct and exact test.
var Unmapped = PPA{Ch: -1, Lun: -1, Pl: -1, Blk: -1, Pg: -1, Sec: -1}

/// IsUnmapped reports whether p is the UNMAPPED sentinel.
func (p PPA) IsUnmapped() bool {
	return p == Unmapped
}

/// String renders a PPA for diagnostics.
func (p PPA) String() string {
	if p.IsUnmapped() {
		return "PPA(unmapped)"
	}
	return fmt.Sprintf("PPA(ch=%d,lun=%d,pl=%d,blk=%d,pg=%d,sec=%d)", p.Ch, p.Lun, p.Pl, p.Blk, p.Pg, p.Sec)
}

/// InBounds reports whether every field of p lies within g's geometry.
/// Per spec.md §3's invariant: either p == Unmapped or InBounds(p) holds.
func (g *Geometry) InBounds(p PPA) bool {
	return p.Ch >= 0 && p.Ch < g.NChs &&
		p.Lun >= 0 && p.Lun < g.LunsPerCh &&
		p.Pl >= 0 && p.Pl < g.PlsPerLun &&
		p.Blk >= 0 && p.Blk < g.BlksPerPl &&
		p.Pg >= 0 && p.Pg < g.PgsPerBlk &&
		p.Sec >= 0 && p.Sec < g.SecsPerPg
}

/// CheckPPA panics unless p is Unmapped or within bounds. This is the
/// assertion spec.md §3 and §7 require at every boundary that constructs
/// or accepts a PPA from outside the allocator.
func (g *Geometry) CheckPPA(p PPA) {
	if p.IsUnmapped() {
		return
	}
	if !g.InBounds(p) {
		panic(fmt.Sprintf("nand: ppa out of geometry bounds: %v", p))
	}
}

/// Ppa2Pgidx converts p to its flat page index:
/// idx = ch*pgs_per_ch + lun*pgs_per_lun + pl*pgs_per_pl + blk*pgs_per_blk + pg
func (g *Geometry) Ppa2Pgidx(p PPA) int {
	if p.IsUnmapped() {
		panic("nand: ppa2pgidx of unmapped ppa")
	}
	g.CheckPPA(p)
	return p.Ch*g.PgsPerCh + p.Lun*g.PgsPerLun + p.Pl*g.PgsPerPl + p.Blk*g.PgsPerBlk + p.Pg
}

/// Pgidx2Ppa is the exact inverse of Ppa2Pgidx.
func (g *Geometry) Pgidx2Ppa(idx int) PPA {
	if idx < 0 || idx >= g.TotalPgs {
		panic("nand: pgidx out of range")
	}
	pg := idx % g.PgsPerBlk
	idx /= g.PgsPerBlk
	blk := idx % g.BlksPerPl
	idx /= g.BlksPerPl
	pl := idx % g.PlsPerLun
	idx /= g.PlsPerLun
	lun := idx % g.LunsPerCh
	idx /= g.LunsPerCh
	ch := idx
	return PPA{Ch: ch, Lun: lun, Pl: pl, Blk: blk, Pg: pg, Sec: 0}
}

/// LunIdx returns the flat LUN index (ch*LunsPerCh + lun) used to index
/// into the per-LUN timing clocks.
func (g *Geometry) LunIdx(p PPA) int {
	return p.Ch*g.LunsPerCh + p.Lun
}
