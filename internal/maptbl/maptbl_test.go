package maptbl

import (
	"testing"

	"dftlsim/internal/nand"
)

func TestMaptblDefaultsUnmapped(t *testing.T) {
	m := NewMaptbl(16)
	for lpn := 0; lpn < 16; lpn++ {
		if !m.Get(lpn).IsUnmapped() {
			t.Fatalf("lpn %d should default to unmapped", lpn)
		}
	}
}

func TestMaptblSetGet(t *testing.T) {
	m := NewMaptbl(16)
	p := nand.PPA{Ch: 1, Lun: 2, Pl: 0, Blk: 3, Pg: 4, Sec: 0}
	m.Set(5, p)
	if got := m.Get(5); got != p {
		t.Fatalf("Get(5) = %v, want %v", got, p)
	}
}

func TestMaptblOutOfRangePanics(t *testing.T) {
	m := NewMaptbl(4)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for out-of-range lpn")
		}
	}()
	m.Set(4, nand.Unmapped)
}

func TestRmapDefaultsInvalid(t *testing.T) {
	r := NewRmap(8)
	for i := 0; i < 8; i++ {
		if r.Get(i) != InvalidLPN {
			t.Fatalf("rmap[%d] should default to InvalidLPN", i)
		}
	}
}

func TestRmapSetClear(t *testing.T) {
	r := NewRmap(8)
	r.Set(3, 42)
	if got := r.Get(3); got != 42 {
		t.Fatalf("Get(3) = %d, want 42", got)
	}
	r.Clear(3)
	if got := r.Get(3); got != InvalidLPN {
		t.Fatalf("after Clear, Get(3) = %d, want InvalidLPN", got)
	}
}

func TestGtdDefaultsUnmapped(t *testing.T) {
	g := NewGtd(4)
	for tvpn := 0; tvpn < 4; tvpn++ {
		if !g.Get(tvpn).IsUnmapped() {
			t.Fatalf("gtd[%d] should default to unmapped", tvpn)
		}
	}
}

func TestGtdSetGet(t *testing.T) {
	g := NewGtd(4)
	p := nand.PPA{Ch: 0, Lun: 0, Pl: 0, Blk: 1, Pg: 0, Sec: 0}
	g.Set(2, p)
	if got := g.Get(2); got != p {
		t.Fatalf("Get(2) = %v, want %v", got, p)
	}
}
