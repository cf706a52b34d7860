package nand

import "time"

/// CmdType enumerates the NAND commands the timing model charges latency
/// for. ReqType further distinguishes user traffic from GC traffic for
/// accounting purposes only — spec.md §4.7 says both charge identical
/// latencies.
type CmdType int

const (
	CmdRead CmdType = iota
	CmdWrite
	CmdErase
)

/// ReqType distinguishes user-initiated I/O from GC-initiated I/O. Both
/// charge identical NAND latencies; the tag exists purely for accounting
/// (spec.md §4.7: "only type=GC_IO is tagged for accounting").
type ReqType int

const (
	UserIO ReqType = iota
	GcIO
)

/// LunClock tracks a single LUN's next-available time and the end time of
/// its most recent GC-charged erase, per spec.md §4.7's "lun.gc_endtime".
type LunClock struct {
	NextAvail time.Duration
	GcEndtime time.Duration
}

/// Clocks owns the per-LUN timing state for an entire NAND array.
type Clocks struct {
	g    *Geometry
	luns []LunClock
}

/// NewClocks allocates one LunClock per LUN in g.
func NewClocks(g *Geometry) *Clocks {
	return &Clocks{g: g, luns: make([]LunClock, g.TotalLuns)}
}

/// lunAt returns the clock for the LUN addressed by p.
func (c *Clocks) lunAt(p PPA) *LunClock {
	return &c.luns[c.g.LunIdx(p)]
}

/// LunAt exposes the clock for the LUN addressed by p, for callers (e.g.
/// GC) that need to read GcEndtime directly.
func (c *Clocks) LunAt(p PPA) *LunClock {
	return c.lunAt(p)
}

/// AdvanceStatus implements spec.md §4.1's advance_status: it serializes
/// the command against the target LUN's availability clock and returns
/// the latency charged to the caller.
//
//	start = max(stime, lun.next_avail)
//	READ:  lun.next_avail = start + pg_rd_lat
//	WRITE: lun.next_avail = start + pg_wr_lat
//	ERASE: lun.next_avail = start + blk_er_lat
//	return lun.next_avail - stime
func (c *Clocks) AdvanceStatus(p PPA, cmd CmdType, stime time.Duration) time.Duration {
	lun := c.lunAt(p)
	start := stime
	if lun.NextAvail > start {
		start = lun.NextAvail
	}
	var lat time.Duration
	switch cmd {
	case CmdRead:
		lat = c.g.PgRdLat
	case CmdWrite:
		lat = c.g.PgWrLat
	case CmdErase:
		lat = c.g.BlkErLat
	default:
		panic("nand: unknown command type")
	}
	lun.NextAvail = start + lat
	return lun.NextAvail - stime
}

/// ChargeTransfer applies the (currently disabled, per spec.md §4.1 and
/// §9) channel transfer latency. The hook is kept structurally present
/// so re-enabling it is a one-constant change.
func (c *Clocks) ChargeTransfer(stime time.Duration) time.Duration {
	if c.g.ChXferLat == 0 {
		return 0
	}
	return c.g.ChXferLat
}
