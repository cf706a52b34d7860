package ftl

import (
	"testing"

	"dftlsim/internal/nand"
)

func TestDefaultParamsDerivedThresholds(t *testing.T) {
	g := nand.DefaultGeometry()
	p := DefaultParams(g)

	if p.EntsPerPg != 512 {
		t.Fatalf("EntsPerPg = %d, want 512", p.EntsPerPg)
	}
	if p.TTCmtSize != g.TotalBlks/2 {
		t.Fatalf("TTCmtSize = %d, want %d", p.TTCmtSize, g.TotalBlks/2)
	}
	wantLines := int((1 - 0.75) * float64(g.TotalLines))
	if p.GcThresLines != wantLines {
		t.Fatalf("GcThresLines = %d, want %d", p.GcThresLines, wantLines)
	}
	wantLinesHigh := int((1 - 0.95) * float64(g.TotalLines))
	if p.GcThresLinesHigh != wantLinesHigh {
		t.Fatalf("GcThresLinesHigh = %d, want %d", p.GcThresLinesHigh, wantLinesHigh)
	}
	if !p.EnableGCDelay {
		t.Fatalf("EnableGCDelay should default true")
	}
}

func TestNextPow2(t *testing.T) {
	cases := map[int]int{0: 1, 1: 1, 2: 2, 3: 4, 5: 8, 8: 8, 9: 16}
	for in, want := range cases {
		if got := nextPow2(in); got != want {
			t.Fatalf("nextPow2(%d) = %d, want %d", in, got, want)
		}
	}
}
