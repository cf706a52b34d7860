package ftl

import (
	"sync"
	"testing"
)

func TestRingEnqueueDequeueOrder(t *testing.T) {
	r := NewRing(2)
	if !r.Enqueue(Request{Slba: 1}) {
		t.Fatalf("enqueue into empty ring should succeed")
	}
	if !r.Enqueue(Request{Slba: 2}) {
		t.Fatalf("enqueue into half-full ring should succeed")
	}
	if r.Enqueue(Request{Slba: 3}) {
		t.Fatalf("enqueue into full ring should fail")
	}

	req, ok := r.Dequeue()
	if !ok || req.Slba != 1 {
		t.Fatalf("dequeue = %+v, %v; want slba=1, true (FIFO order)", req, ok)
	}
	req, ok = r.Dequeue()
	if !ok || req.Slba != 2 {
		t.Fatalf("dequeue = %+v, %v; want slba=2, true", req, ok)
	}
	if _, ok := r.Dequeue(); ok {
		t.Fatalf("dequeue from empty ring should fail")
	}
}

func TestRingDequeueOneErrCode(t *testing.T) {
	r := NewRing(1)
	if _, code := r.DequeueOne(); code != ErrRingEmpty {
		t.Fatalf("DequeueOne on empty ring = %v, want ErrRingEmpty", code)
	}
	r.Enqueue(Request{Slba: 7})
	req, code := r.DequeueOne()
	if code != ErrNone || req.Slba != 7 {
		t.Fatalf("DequeueOne = %+v, %v; want slba=7, ErrNone", req, code)
	}
}

func TestRingWrapsAroundBuffer(t *testing.T) {
	r := NewRing(2)
	r.Enqueue(Request{Slba: 1})
	r.Dequeue()
	r.Enqueue(Request{Slba: 2})
	r.Enqueue(Request{Slba: 3})
	if !r.Full() {
		t.Fatalf("ring should be full after wrapping around to fill both slots")
	}
	req, _ := r.Dequeue()
	if req.Slba != 2 {
		t.Fatalf("dequeue after wraparound = %+v, want slba=2", req)
	}
}

// TestRingConcurrentProducerConsumer drives a real producer goroutine
// against a real consumer goroutine, the way Worker.Run and a front-end
// actually use a Ring, so `go test -race` exercises the mutex added to
// guard head/tail/used.
func TestRingConcurrentProducerConsumer(t *testing.T) {
	const n = 2000
	r := NewRing(16)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			for !r.Enqueue(Request{Slba: i}) {
			}
		}
	}()

	sum := 0
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			req, ok := r.Dequeue()
			for !ok {
				req, ok = r.Dequeue()
			}
			sum += req.Slba
		}
	}()

	wg.Wait()
	want := n * (n - 1) / 2
	if sum != want {
		t.Fatalf("sum of dequeued Slba = %d, want %d", sum, want)
	}
}
