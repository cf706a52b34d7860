package ftl

import (
	"sync"
	"time"
)

/// ErrCode is a small int-based error code, in the teacher's defs.Err_t
/// spirit: zero value means no error, non-zero values are returned (never
/// panicked) from the one non-fatal external-facing failure THE CORE has —
/// dequeuing from an empty ring.
type ErrCode int

const (
	ErrNone ErrCode = iota
	ErrRingEmpty
)

/// Opcode enumerates the request kinds the core accepts from the device
/// front-end, per spec.md §6.
type Opcode int

const (
	OpRead Opcode = iota
	OpWrite
	OpDSM
	OpOther
)

/// Request mirrors spec.md §6's external request record: opcode, starting
/// LBA, sector count, submission time, and the two fields the core fills
/// in on completion.
type Request struct {
	Opcode Opcode
	Slba   int
	Nlb    int
	Stime  time.Duration

	Reqlat    time.Duration /// set by the core on completion
	ExpireAt  time.Duration /// += Reqlat on completion
}

/// Ring is a fixed-capacity single-producer/single-consumer queue of
/// Requests, generalized from circbuf.Circbuf_t's head/tail indexing
/// applied to a typed slice instead of raw bytes — spec.md §5/§6 require
/// SPSC submission (`to_ftl`) and completion (`to_poller`) rings with the
/// FTL as sole consumer or producer, respectively. The producer and
/// consumer run on different goroutines (the front-end and the worker),
/// so head/tail/used are guarded by mu, matching fs.Bdev_block_t's
/// embedded sync.Mutex.
type Ring struct {
	mu         sync.Mutex
	buf        []Request
	head, tail int /// head: next write slot; tail: next read slot; both mod len(buf)
	used       int
}

/// NewRing allocates a ring with the given capacity.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		panic("ftl: non-positive ring capacity")
	}
	return &Ring{buf: make([]Request, capacity)}
}

/// Full reports whether the ring can accept no more requests.
func (r *Ring) Full() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.full()
}

func (r *Ring) full() bool { return r.used == len(r.buf) }

/// Empty reports whether the ring holds no requests.
func (r *Ring) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.used == 0
}

/// Len returns the number of requests currently queued.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.used
}

/// Enqueue appends req to the ring. It reports false (and drops nothing
/// itself — the caller logs per spec.md §7) if the ring is full.
func (r *Ring) Enqueue(req Request) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full() {
		return false
	}
	r.buf[r.head] = req
	r.head = (r.head + 1) % len(r.buf)
	r.used++
	return true
}

/// Dequeue removes and returns the oldest queued request. ok is false if
/// the ring is empty — spec.md §6's "a dequeue failure logs and
/// continues".
func (r *Ring) Dequeue() (Request, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.used == 0 {
		return Request{}, false
	}
	req := r.buf[r.tail]
	r.tail = (r.tail + 1) % len(r.buf)
	r.used--
	return req, true
}

/// DequeueOne is Dequeue's ErrCode-returning counterpart, for front-ends
/// that want the teacher's error-code idiom instead of a bool. Worker
/// itself uses Dequeue directly since it only needs the ok/not-ok branch.
func (r *Ring) DequeueOne() (Request, ErrCode) {
	req, ok := r.Dequeue()
	if !ok {
		return Request{}, ErrRingEmpty
	}
	return req, ErrNone
}
