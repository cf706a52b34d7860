// Command dftlsim drives one or more internal/ftl Devices with a synthetic
// workload and reports their accounting. This is demo/test scaffolding
// around THE CORE (see SPEC_FULL.md §13), not a new CORE subsystem: it
// carries no invariants of its own, only enough plumbing to exercise the
// request path end to end.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"dftlsim/internal/ftl"
	"dftlsim/internal/nand"
)

func main() {
	var (
		devices    = flag.Int("devices", 1, "number of independent devices to run concurrently")
		requests   = flag.Int("requests", 20000, "requests per device")
		writeFrac  = flag.Float64("write-frac", 0.3, "fraction of requests that are writes")
		zipfian    = flag.Bool("zipfian", true, "use a zipfian LPN distribution instead of uniform")
		profileOut = flag.String("profile", "", "if set, write a pprof profile for device 0 to this path")
	)
	flag.Parse()

	g := nand.DefaultGeometry()
	p := ftl.DefaultParams(g)

	var group errgroup.Group
	results := make([]*ftl.Device, *devices)
	for i := 0; i < *devices; i++ {
		i := i
		group.Go(func() error {
			d := ftl.NewDevice(g, p)
			runWorkload(d, g, *requests, *writeFrac, *zipfian, int64(i))
			results[i] = d
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "dftlsim: %v\n", err)
		os.Exit(1)
	}

	for i, d := range results {
		fmt.Printf("device[%d]: %s\n", i, d.Stats())
	}

	if *profileOut != "" && len(results) > 0 {
		if err := writeProfile(results[0], *profileOut); err != nil {
			fmt.Fprintf(os.Stderr, "dftlsim: profile export failed: %v\n", err)
			os.Exit(1)
		}
	}
}

/// lpnPicker returns a function producing successive LPNs within
/// [0, maxLpn), per the requested distribution. zipfian uses
/// math/rand.Zipf, a skewed hot/cold access pattern typical of FTL
/// benchmarking workloads; uniform picks every LPN with equal probability.
func lpnPicker(maxLpn int, zipfian bool, seed int64) func() int {
	r := rand.New(rand.NewSource(seed))
	if !zipfian {
		return func() int { return r.Intn(maxLpn) }
	}
	z := rand.NewZipf(r, 1.2, 1, uint64(maxLpn-1))
	return func() int { return int(z.Uint64()) }
}

/// runWorkload drives n requests through d's worker loop and submission/
/// completion rings (spec.md §5/§6), rather than calling d.Read/d.Write
/// directly, so the batch driver exercises the same dispatch path a real
/// front-end would use.
func runWorkload(d *ftl.Device, g *nand.Geometry, n int, writeFrac float64, zipfian bool, seed int64) {
	maxLpn := g.TotalPgs / 2 // keep working-set smaller than capacity to exercise GC
	if maxLpn < 1 {
		maxLpn = 1
	}
	pick := lpnPicker(maxLpn, zipfian, seed+1)
	r := rand.New(rand.NewSource(seed))

	w := ftl.NewWorker(d, 1, 64)
	go w.Run(func() time.Duration { return time.Duration(time.Now().UnixNano()) })
	defer w.Stop()

	in, out := w.InRing(0), w.OutRing(0)
	var stime time.Duration
	submitted, drained := 0, 0
	for submitted < n || drained < n {
		if submitted < n {
			lpn := pick()
			stime += time.Microsecond
			op := ftl.OpRead
			if r.Float64() < writeFrac {
				op = ftl.OpWrite
			}
			if in.Enqueue(ftl.Request{Opcode: op, Slba: lpn * g.SecsPerPg, Nlb: g.SecsPerPg, Stime: stime}) {
				submitted++
			}
		}
		for {
			if _, ok := out.Dequeue(); !ok {
				break
			}
			drained++
		}
	}
}

func writeProfile(d *ftl.Device, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return d.Stats().Profile().Write(f)
}
