// Package maptbl holds the three dense address-translation arrays THE
// CORE keeps on flash: the forward map, the reverse map, and the Global
// Translation Directory (GTD). All three are plain slices, per spec.md
// §4.2 ("Pure dense arrays") — generalized from fs/super.go's flat
// on-disk-field-accessor style in the teacher repo.
package maptbl

import (
	"fmt"

	"dftlsim/internal/nand"
)

/// InvalidLPN is the reverse map's default entry: "this physical page
/// holds neither a data LPN nor a translation TVPN".
const InvalidLPN = -1

/// Maptbl is the forward map: LPN -> PPA, size == total pages.
type Maptbl struct {
	entries []nand.PPA
}

/// NewMaptbl allocates a forward map of the given size with every entry
/// defaulted to nand.Unmapped.
func NewMaptbl(size int) *Maptbl {
	m := &Maptbl{entries: make([]nand.PPA, size)}
	for i := range m.entries {
		m.entries[i] = nand.Unmapped
	}
	return m
}

/// Get returns the PPA currently mapped for lpn.
func (m *Maptbl) Get(lpn int) nand.PPA {
	m.checkLpn(lpn)
	return m.entries[lpn]
}

/// Set records ppa as the mapping for lpn. Per spec.md §4.2, every
/// set_maptbl(lpn, ppa) requires lpn < tt_pgs; enforced here.
func (m *Maptbl) Set(lpn int, ppa nand.PPA) {
	m.checkLpn(lpn)
	m.entries[lpn] = ppa
}

/// Len returns the number of LPN slots in the table.
func (m *Maptbl) Len() int {
	return len(m.entries)
}

func (m *Maptbl) checkLpn(lpn int) {
	if lpn < 0 || lpn >= len(m.entries) {
		panic(fmt.Sprintf("maptbl: lpn %d out of range [0,%d)", lpn, len(m.entries)))
	}
}

/// Rmap is the reverse map: flat page index -> LPN (for data pages) or
/// TVPN (for translation pages), size == total pages.
type Rmap struct {
	entries []int
}

/// NewRmap allocates a reverse map of the given size, every entry
/// defaulted to InvalidLPN.
func NewRmap(size int) *Rmap {
	r := &Rmap{entries: make([]int, size)}
	for i := range r.entries {
		r.entries[i] = InvalidLPN
	}
	return r
}

/// Get returns the LPN/TVPN recorded at flat page index idx.
func (r *Rmap) Get(idx int) int {
	r.checkIdx(idx)
	return r.entries[idx]
}

/// Set records v (an LPN or TVPN) at flat page index idx.
func (r *Rmap) Set(idx int, v int) {
	r.checkIdx(idx)
	r.entries[idx] = v
}

/// Clear resets the entry at idx back to InvalidLPN.
func (r *Rmap) Clear(idx int) {
	r.Set(idx, InvalidLPN)
}

func (r *Rmap) checkIdx(idx int) {
	if idx < 0 || idx >= len(r.entries) {
		panic(fmt.Sprintf("rmap: index %d out of range [0,%d)", idx, len(r.entries)))
	}
}

/// Gtd is the Global Translation Directory: TVPN -> PPA of the
/// translation page currently holding that TVPN's mappings.
type Gtd struct {
	entries []nand.PPA
}

/// NewGtd allocates a GTD sized tt_pgs/ents_per_pg, defaulted to
/// nand.Unmapped.
func NewGtd(size int) *Gtd {
	g := &Gtd{entries: make([]nand.PPA, size)}
	for i := range g.entries {
		g.entries[i] = nand.Unmapped
	}
	return g
}

/// Get returns the PPA of the translation page currently backing tvpn.
func (g *Gtd) Get(tvpn int) nand.PPA {
	g.checkTvpn(tvpn)
	return g.entries[tvpn]
}

/// Set records ppa as the translation page backing tvpn.
func (g *Gtd) Set(tvpn int, ppa nand.PPA) {
	g.checkTvpn(tvpn)
	g.entries[tvpn] = ppa
}

/// Len returns the number of TVPN slots.
func (g *Gtd) Len() int {
	return len(g.entries)
}

func (g *Gtd) checkTvpn(tvpn int) {
	if tvpn < 0 || tvpn >= len(g.entries) {
		panic(fmt.Sprintf("gtd: tvpn %d out of range [0,%d)", tvpn, len(g.entries)))
	}
}
