package ftl

import "dftlsim/internal/nand"

/// Params holds THE CORE's policy constants, per spec.md §6: "Parameters
/// exposed as constants (not runtime-configurable in the core)". Mirrors
/// the teacher's mem/mem.go style of declaring geometry/policy knobs as a
/// flat set of named values rather than behind a config-loading layer —
/// a caller (cmd/dftlsim) may still override fields on the struct before
/// constructing a Device, but THE CORE itself never reads a config file.
type Params struct {
	EntsPerPg        int     /// mappings per translation page
	CMTHashSize      int     /// CMT hash bucket count (rounded to a power of two)
	TTCmtSize        int     /// CMT capacity in entries
	GcThresPcent     float64 /// background GC threshold, as a free-line fraction
	GcThresPcentHigh float64 /// forced GC threshold, as a free-line fraction
	GcThresLines     int     /// derived: (1 - GcThresPcent) * total lines
	GcThresLinesHigh int     /// derived: (1 - GcThresPcentHigh) * total lines
	EnableGCDelay    bool    /// whether GC erases charge blk_er_lat
}

/// DefaultParams returns spec.md §6's named defaults for the given
/// geometry: gc_thres_pcent=0.75, gc_thres_pcent_high=0.95,
/// ents_per_pg=512, tt_cmt_size=tt_blks/2, enable_gc_delay=true.
func DefaultParams(g *nand.Geometry) Params {
	const entsPerPg = 512
	const gcPcent = 0.75
	const gcPcentHigh = 0.95

	ttCmt := g.TotalBlks / 2
	p := Params{
		EntsPerPg:        entsPerPg,
		CMTHashSize:      nextPow2(ttCmt),
		TTCmtSize:        ttCmt,
		GcThresPcent:     gcPcent,
		GcThresPcentHigh: gcPcentHigh,
		GcThresLines:     int((1 - gcPcent) * float64(g.TotalLines)),
		GcThresLinesHigh: int((1 - gcPcentHigh) * float64(g.TotalLines)),
		EnableGCDelay:    true,
	}
	return p
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
