package ftl

import (
	"testing"
	"time"
)

func TestWorkerDispatchesWrite(t *testing.T) {
	d := NewDevice(smallGeometry(), smallParams())
	w := NewWorker(d, 1, 4)

	done := make(chan struct{})
	go func() {
		w.Run(func() time.Duration { return 0 })
		close(done)
	}()

	in, out := w.InRing(0), w.OutRing(0)
	if !in.Enqueue(Request{Opcode: OpWrite, Slba: 0, Nlb: 1, Stime: 100 * time.Nanosecond}) {
		t.Fatalf("enqueue write request failed")
	}

	var completion Request
	ok := false
	for i := 0; i < 1000 && !ok; i++ {
		completion, ok = out.Dequeue()
		if !ok {
			time.Sleep(time.Millisecond)
		}
	}
	if !ok {
		t.Fatalf("worker never produced a completion for the write")
	}
	if completion.Slba != 0 {
		t.Fatalf("completion.Slba = %d, want 0", completion.Slba)
	}

	w.Stop()
	<-done

	if d.mt.Get(0).IsUnmapped() {
		t.Fatalf("lpn 0 should be mapped after the worker dispatched the write")
	}
}

func TestWorkerDispatchDropsUnknownOpcode(t *testing.T) {
	d := NewDevice(smallGeometry(), smallParams())
	w := NewWorker(d, 1, 4)

	w.dispatch(0, Request{Opcode: Opcode(99), Slba: 0, Nlb: 1}, 0)

	if !w.OutRing(0).Empty() {
		t.Fatalf("an unknown opcode should be dropped, not completed")
	}
}
