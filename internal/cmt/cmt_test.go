package cmt

import (
	"testing"

	"dftlsim/internal/nand"
)

func ppa(blk int) nand.PPA {
	return nand.PPA{Ch: 0, Lun: 0, Pl: 0, Blk: blk, Pg: 0, Sec: 0}
}

func TestInsertAndHit(t *testing.T) {
	c := New(4, 4)
	c.Insert(1, ppa(1), Clean)
	entry, ok := c.Hit(1)
	if !ok {
		t.Fatalf("expected hit for lpn 1")
	}
	if entry.Lpn != 1 || entry.Ppn != ppa(1) || entry.Dirty != Clean {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestHitMissOnAbsentLpn(t *testing.T) {
	c := New(4, 4)
	if _, ok := c.Hit(99); ok {
		t.Fatalf("expected miss on empty cache")
	}
}

func TestUsedEqualsLRUEqualsHash(t *testing.T) {
	c := New(4, 4)
	for i := 0; i < 4; i++ {
		c.Insert(i, ppa(i), Clean)
	}
	if c.Used() != 4 || c.LRULen() != 4 || c.HashLen() != 4 {
		t.Fatalf("used=%d lru=%d hash=%d, want 4/4/4", c.Used(), c.LRULen(), c.HashLen())
	}
}

func TestInsertPanicsWhenFull(t *testing.T) {
	c := New(1, 2)
	c.Insert(0, ppa(0), Clean)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic inserting into a full CMT")
		}
	}()
	c.Insert(1, ppa(1), Clean)
}

func TestEvictOneLRUOrderAndWriteback(t *testing.T) {
	c := New(2, 2)
	c.Insert(0, ppa(0), Clean)
	c.Insert(1, ppa(1), DirtyBit)

	var wbLpn int
	var wbPpn nand.PPA
	called := false
	evicted := c.EvictOne(func(lpn int, ppn nand.PPA) {
		called = true
		wbLpn, wbPpn = lpn, ppn
	})

	if evicted.Lpn != 0 {
		t.Fatalf("expected LRU tail (lpn 0) to be evicted, got lpn %d", evicted.Lpn)
	}
	if called {
		t.Fatalf("writeback should not fire for a CLEAN entry")
	}
	_ = wbLpn
	_ = wbPpn
	if c.Used() != 1 {
		t.Fatalf("used = %d, want 1", c.Used())
	}

	// now evict the dirty entry and confirm writeback fires.
	c.EvictOne(func(lpn int, ppn nand.PPA) {
		called = true
		wbLpn, wbPpn = lpn, ppn
	})
	if !called || wbLpn != 1 || wbPpn != ppa(1) {
		t.Fatalf("expected writeback(1, %v), called=%v got lpn=%d ppn=%v", ppa(1), called, wbLpn, wbPpn)
	}
}

func TestEnsureCapacityAndInsertEvictsWhenFull(t *testing.T) {
	c := New(1, 2)
	c.Insert(0, ppa(0), DirtyBit)

	writebackCalled := false
	c.EnsureCapacityAndInsert(1, ppa(1), Clean, func(lpn int, ppn nand.PPA) {
		writebackCalled = true
	})

	if !writebackCalled {
		t.Fatalf("expected the dirty tail to be written back before the new insert")
	}
	if c.Used() != 1 {
		t.Fatalf("used = %d, want 1 after evict+insert into a 1-capacity cache", c.Used())
	}
	if _, ok := c.Hit(0); ok {
		t.Fatalf("lpn 0 should have been evicted")
	}
	if _, ok := c.Hit(1); !ok {
		t.Fatalf("lpn 1 should be present after insert")
	}
}

func TestUpdatePPNInPlaceNoLRUTouch(t *testing.T) {
	c := New(3, 4)
	c.Insert(0, ppa(0), Clean)
	c.Insert(1, ppa(1), Clean)
	c.Insert(2, ppa(2), Clean)
	// LRU order, head to tail: 2, 1, 0

	if ok := c.UpdatePPN(0, ppa(9), DirtyBit); !ok {
		t.Fatalf("UpdatePPN on present lpn should succeed")
	}
	entry, ok := c.Lookup(0)
	if !ok || entry.Ppn != ppa(9) || entry.Dirty != DirtyBit {
		t.Fatalf("unexpected entry after UpdatePPN: %+v ok=%v", entry, ok)
	}

	// tail is still lpn 0 (Lookup must not have touched LRU order): evicting
	// once more should still remove lpn 0.
	evicted := c.EvictOne(nil)
	if evicted.Lpn != 0 {
		t.Fatalf("expected lpn 0 at LRU tail after UpdatePPN/Lookup, got %d", evicted.Lpn)
	}
}

func TestUpdatePPNAbsentReturnsFalse(t *testing.T) {
	c := New(2, 2)
	if c.UpdatePPN(7, ppa(7), DirtyBit) {
		t.Fatalf("UpdatePPN on absent lpn should return false")
	}
}
