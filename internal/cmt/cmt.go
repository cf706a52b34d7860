// Package cmt implements the Cached Mapping Table: a bounded LRU cache of
// LPN->PPN entries with dirty bits, backed by a chained hash table keyed
// by LPN. Generalized from hashtable/hashtable.go's bucket-and-chain
// design, specialized to a single-writer, fixed-capacity, intrusive
// index-based pool per spec.md §9 (no container/list double indirection,
// no atomics — the FTL has exactly one writer, spec.md §5).
package cmt

import (
	"fmt"

	"dftlsim/internal/nand"
)

/// Dirty enumerates a CMT entry's write-back state.
type Dirty int

const (
	Clean Dirty = iota
	DirtyBit
)

/// Entry is a snapshot of one CMT slot, returned by value so callers
/// cannot alias internal pool storage.
type Entry struct {
	Lpn   int
	Ppn   nand.PPA
	Dirty Dirty
}

const nilIdx = -1

/// node is one intrusive slot: it lives simultaneously on the LRU list
/// (prev/next) and, while in use, on exactly one hash bucket chain
/// (hnext). free slots are linked solely via next (the free list).
type node struct {
	lpn   int
	ppn   nand.PPA
	dirty Dirty
	inUse bool

	prev, next int /// LRU list links; also used as the free-list link via next
	hnext      int /// hash chain link
}

/// CMT is the bounded cache described by spec.md §4.3. Capacity is fixed
/// at construction (tt_cmt_size, per spec.md §6).
type CMT struct {
	pool    []node
	buckets []int /// hash bucket heads, nilIdx when empty
	mask    uint32

	freeHead         int
	lruHead, lruTail int
	used             int
}

/// New allocates a CMT with the given capacity and a power-of-two bucket
/// count (CMT_HASH_SIZE per spec.md §6). bucketCount is rounded up to the
/// next power of two if it is not already one.
func New(capacity, bucketCount int) *CMT {
	if capacity <= 0 {
		panic("cmt: non-positive capacity")
	}
	bucketCount = nextPow2(bucketCount)

	c := &CMT{
		pool:     make([]node, capacity),
		buckets:  make([]int, bucketCount),
		mask:     uint32(bucketCount - 1),
		freeHead: 0,
		lruHead:  nilIdx,
		lruTail:  nilIdx,
	}
	for i := range c.buckets {
		c.buckets[i] = nilIdx
	}
	for i := range c.pool {
		c.pool[i].next = i + 1
	}
	c.pool[capacity-1].next = nilIdx
	return c
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

/// Used returns the number of occupied entries.
func (c *CMT) Used() int { return c.used }

/// Total returns the fixed capacity.
func (c *CMT) Total() int { return len(c.pool) }

func (c *CMT) bucketOf(lpn int) int {
	return int(uint32(lpn) & c.mask)
}

/// Hit performs an O(1) hash lookup; on success the entry is moved to the
/// LRU head, per spec.md §4.3. No I/O is performed either way.
func (c *CMT) Hit(lpn int) (Entry, bool) {
	idx := c.find(lpn)
	if idx == nilIdx {
		return Entry{}, false
	}
	c.lruUnlink(idx)
	c.lruPushFront(idx)
	n := &c.pool[idx]
	return Entry{Lpn: n.lpn, Ppn: n.ppn, Dirty: n.dirty}, true
}

/// Lookup is Hit without the LRU-touch side effect, for callers (GC
/// reconciliation) that only need to test presence and read/update fields
/// without perturbing recency.
func (c *CMT) Lookup(lpn int) (Entry, bool) {
	idx := c.find(lpn)
	if idx == nilIdx {
		return Entry{}, false
	}
	n := &c.pool[idx]
	return Entry{Lpn: n.lpn, Ppn: n.ppn, Dirty: n.dirty}, true
}

func (c *CMT) find(lpn int) int {
	for i := c.buckets[c.bucketOf(lpn)]; i != nilIdx; i = c.pool[i].hnext {
		if c.pool[i].lpn == lpn {
			return i
		}
	}
	return nilIdx
}

/// Insert takes a free entry, sets dirty as requested, and inserts it at
/// the LRU head and into its hash chain. It panics if no free entry is
/// available — callers must use EnsureCapacityAndInsert to avoid this.
func (c *CMT) Insert(lpn int, ppn nand.PPA, dirty Dirty) {
	if c.freeHead == nilIdx {
		panic("cmt: insert with no free entry")
	}
	idx := c.freeHead
	c.freeHead = c.pool[idx].next

	n := &c.pool[idx]
	n.lpn = lpn
	n.ppn = ppn
	n.dirty = dirty
	n.inUse = true

	b := c.bucketOf(lpn)
	n.hnext = c.buckets[b]
	c.buckets[b] = idx

	n.prev, n.next = nilIdx, nilIdx
	c.lruPushFront(idx)
	c.used++
}

/// EvictOne removes the LRU tail entry. If it is dirty, writeback is
/// invoked with its (lpn, ppn) before the entry is cleared and returned
/// to the free pool — spec.md §4.3's "triggers a translation-page
/// write-back", performed by the caller since the CMT package does not
/// own NAND timing or the translation write path.
func (c *CMT) EvictOne(writeback func(lpn int, ppn nand.PPA)) Entry {
	idx := c.lruTail
	if idx == nilIdx {
		panic("cmt: evict from empty LRU list")
	}
	n := &c.pool[idx]
	evicted := Entry{Lpn: n.lpn, Ppn: n.ppn, Dirty: n.dirty}
	if n.dirty == DirtyBit && writeback != nil {
		writeback(n.lpn, n.ppn)
	}

	c.lruUnlink(idx)
	c.hashRemove(idx)
	n.inUse = false
	n.next = c.freeHead
	c.freeHead = idx
	c.used--
	return evicted
}

/// EnsureCapacityAndInsert implements spec.md §4.3: insert directly if
/// used < total, else evict the LRU tail first. It panics on used >
/// total, the documented programming fault.
func (c *CMT) EnsureCapacityAndInsert(lpn int, ppn nand.PPA, dirty Dirty, writeback func(lpn int, ppn nand.PPA)) {
	if c.used > c.Total() {
		panic(fmt.Sprintf("cmt: used (%d) > total (%d)", c.used, c.Total()))
	}
	if c.used == c.Total() {
		c.EvictOne(writeback)
	}
	c.Insert(lpn, ppn, dirty)
}

/// UpdatePPN rewrites the PPN and dirty bit of an already-present entry
/// in place, without touching LRU position, for GC reconciliation
/// (spec.md §4.7: "If lpn is present in CMT: update its ppn and mark
/// DIRTY"). It returns false if lpn is not present.
func (c *CMT) UpdatePPN(lpn int, ppn nand.PPA, dirty Dirty) bool {
	idx := c.find(lpn)
	if idx == nilIdx {
		return false
	}
	c.pool[idx].ppn = ppn
	c.pool[idx].dirty = dirty
	return true
}

func (c *CMT) hashRemove(idx int) {
	lpn := c.pool[idx].lpn
	b := c.bucketOf(lpn)
	if c.buckets[b] == idx {
		c.buckets[b] = c.pool[idx].hnext
		return
	}
	for i := c.buckets[b]; i != nilIdx; i = c.pool[i].hnext {
		if c.pool[i].hnext == idx {
			c.pool[i].hnext = c.pool[idx].hnext
			return
		}
	}
}

func (c *CMT) lruPushFront(idx int) {
	n := &c.pool[idx]
	n.prev = nilIdx
	n.next = c.lruHead
	if c.lruHead != nilIdx {
		c.pool[c.lruHead].prev = idx
	}
	c.lruHead = idx
	if c.lruTail == nilIdx {
		c.lruTail = idx
	}
}

func (c *CMT) lruUnlink(idx int) {
	n := &c.pool[idx]
	if n.prev != nilIdx {
		c.pool[n.prev].next = n.next
	} else {
		c.lruHead = n.next
	}
	if n.next != nilIdx {
		c.pool[n.next].prev = n.prev
	} else {
		c.lruTail = n.prev
	}
	n.prev, n.next = nilIdx, nilIdx
}

/// LRULen walks the LRU list and returns its length — used by tests to
/// check spec.md §4.3's invariant that it equals Used().
func (c *CMT) LRULen() int {
	n := 0
	for i := c.lruHead; i != nilIdx; i = c.pool[i].next {
		n++
	}
	return n
}

/// HashLen returns the total number of entries reachable via the hash
/// buckets, for the same invariant check.
func (c *CMT) HashLen() int {
	n := 0
	for _, head := range c.buckets {
		for i := head; i != nilIdx; i = c.pool[i].hnext {
			n++
		}
	}
	return n
}
