package ftl

import (
	"fmt"
	"os"
	"time"
)

/// Worker is the single dispatcher loop spec.md §5/§6 describes: it owns a
/// Device plus a matched set of submission/completion ring pairs and is
/// the only goroutine ever touching Device state. Generalized from
/// ufs/driver.go's poll-queues-in-a-loop shape.
type Worker struct {
	d  *Device
	in []*Ring /// to_ftl[1..num_poller]
	out []*Ring /// to_poller[1..num_poller]

	stop chan struct{}
	done chan struct{}
}

/// NewWorker pairs numPoller submission/completion rings of the given
/// capacity each with d.
func NewWorker(d *Device, numPoller, ringCapacity int) *Worker {
	if numPoller <= 0 {
		panic("ftl: non-positive poller count")
	}
	w := &Worker{
		d:    d,
		in:   make([]*Ring, numPoller),
		out:  make([]*Ring, numPoller),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	for i := range w.in {
		w.in[i] = NewRing(ringCapacity)
		w.out[i] = NewRing(ringCapacity)
	}
	return w
}

/// InRing and OutRing expose the i'th submission/completion ring pair to
/// the front-end for enqueueing requests and draining completions.
func (w *Worker) InRing(i int) *Ring  { return w.in[i] }
func (w *Worker) OutRing(i int) *Ring { return w.out[i] }

/// Stop signals the run loop to exit after its current pass and blocks
/// until it has.
func (w *Worker) Stop() {
	close(w.stop)
	<-w.done
}

/// Run is the worker loop proper: spin over every ring, dequeueing and
/// dispatching at most one request per ring per pass, never suspending
/// except for the coarse idle backoff spec.md §5 names. now is a monotonic
/// clock source substituted for any request arriving with Stime == 0,
/// per spec.md §6.
func (w *Worker) Run(now func() time.Duration) {
	defer close(w.done)
	for {
		select {
		case <-w.stop:
			return
		default:
		}

		idle := true
		for i := range w.in {
			req, ok := w.in[i].Dequeue()
			if !ok {
				continue
			}
			idle = false
			w.dispatch(i, req, now())
		}

		if idle {
			time.Sleep(100 * time.Millisecond)
		}
	}
}

func (w *Worker) dispatch(ring int, req Request, now time.Duration) {
	stime := req.Stime
	if stime == 0 {
		stime = now
	}

	switch req.Opcode {
	case OpRead:
		req.Reqlat = w.d.Read(req.Slba, req.Nlb, stime)
	case OpWrite:
		req.Reqlat = w.d.Write(req.Slba, req.Nlb, stime)
	case OpDSM:
		req.Reqlat = 0
	default:
		// unknown opcode: silent drop, per spec.md §6/§7.
		return
	}
	req.ExpireAt += req.Reqlat

	if w.d.lm.FreeLineCnt() <= w.d.p.GcThresLines {
		w.d.gcc.DoGC(false, stime)
	}

	if !w.out[ring].Enqueue(req) {
		fmt.Fprintf(os.Stderr, "ftl: completion ring %d full, dropping reply for lba=%d\n", ring, req.Slba)
	}
}
