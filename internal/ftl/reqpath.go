package ftl

import (
	"time"

	"dftlsim/internal/cmt"
	"dftlsim/internal/nand"
)

/// lpnRange converts a (lba, nlb) sector range into an inclusive LPN
/// range, per spec.md §4.5.
func (d *Device) lpnRange(lba, nlb int) (int, int) {
	start := lba / d.g.SecsPerPg
	end := (lba + nlb - 1) / d.g.SecsPerPg
	return start, end
}

/// Read implements spec.md §4.5's read entry point: for each LPN in
/// [start_lpn, end_lpn], consult the CMT, fall through to a
/// translation-page read on miss, and read the data page if mapped.
/// Returns the maximum latency observed across all LPNs.
func (d *Device) Read(lba, nlb int, stime time.Duration) time.Duration {
	startLpn, endLpn := d.lpnRange(lba, nlb)
	var maxlat time.Duration

	for lpn := startLpn; lpn <= endLpn; lpn++ {
		d.st.Reads.Inc()
		lat := d.readOne(lpn, stime)
		if lat > maxlat {
			maxlat = lat
		}
	}
	return maxlat
}

func (d *Device) readOne(lpn int, stime time.Duration) time.Duration {
	if entry, ok := d.c.Hit(lpn); ok {
		d.st.CMTHits.Inc()
		if entry.Ppn.IsUnmapped() {
			return 0
		}
		return d.chargeAndAccount(entry.Ppn, nand.CmdRead, stime)
	}

	d.st.CMTMisses.Inc()
	tvpn := lpn / d.p.EntsPerPg
	transPPA := d.gtd.Get(tvpn)
	if !transPPA.IsUnmapped() {
		d.ReadTranslationPage(transPPA, nand.UserIO, stime)
	}

	ppa := d.mt.Get(lpn)
	d.c.EnsureCapacityAndInsert(lpn, ppa, cmt.Clean, d.evictWriteback(stime))
	if ppa.IsUnmapped() {
		return 0
	}

	if !transPPA.IsUnmapped() {
		// serialize the data read's LUN clock against the translation
		// page's LUN clock before issuing it, per spec.md §4.5.
		dataLun := d.clk.LunAt(ppa)
		transLun := d.clk.LunAt(transPPA)
		if transLun.NextAvail > dataLun.NextAvail {
			dataLun.NextAvail = transLun.NextAvail
		}
	}
	return d.chargeAndAccount(ppa, nand.CmdRead, stime)
}

/// Write implements spec.md §4.5's write entry point: drain forced GC
/// while the free-line count is at or below the high threshold, then for
/// each LPN in range, reconcile the CMT via process_translation_page_write
/// on miss, invalidate any prior mapping, and allocate a fresh page from
/// the data write pointer. The background-GC trigger that runs after
/// every dispatched request (spec.md §4.5) lives in the worker loop, not
/// here, since it applies to reads too.
func (d *Device) Write(lba, nlb int, stime time.Duration) time.Duration {
	for d.lm.FreeLineCnt() <= d.p.GcThresLinesHigh {
		if !d.gcc.DoGC(true, stime) {
			break
		}
	}

	startLpn, endLpn := d.lpnRange(lba, nlb)
	var maxlat time.Duration

	for lpn := startLpn; lpn <= endLpn; lpn++ {
		d.st.Writes.Inc()
		lat := d.writeOne(lpn, stime)
		if lat > maxlat {
			maxlat = lat
		}
	}
	return maxlat
}

func (d *Device) writeOne(lpn int, stime time.Duration) time.Duration {
	if _, ok := d.c.Hit(lpn); ok {
		d.st.CMTHits.Inc()
	} else {
		d.st.CMTMisses.Inc()
		d.processTranslationPageWrite(lpn, stime)
	}

	oldPPA := d.mt.Get(lpn)
	if !oldPPA.IsUnmapped() {
		d.lm.MarkPageInvalid(oldPPA)
		d.rm.Clear(d.g.Ppa2Pgidx(oldPPA))
	}

	wp := d.lm.Data
	newPPA := d.lm.CurrentPPA(wp)
	d.mt.Set(lpn, newPPA)
	d.rm.Set(d.g.Ppa2Pgidx(newPPA), lpn)
	d.c.UpdatePPN(lpn, newPPA, cmt.DirtyBit)
	d.lm.MarkPageValid(newPPA)
	d.lm.Advance(wp)
	return d.chargeAndAccount(newPPA, nand.CmdWrite, stime)
}

/// processTranslationPageWrite implements spec.md §4.5/§9's
/// process_translation_page_write: on a CMT miss during a write, either
/// seed a fresh (lpn, UNMAPPED) entry (no GTD entry yet exists for the
/// LPN's TVPN) or read the current translation page and seed the entry
/// with the LPN's current mapping. Per spec.md §9, the fresh-TVPN branch
/// intentionally performs no translation-page read; the later write-path
/// code updates the CMT entry's ppn once the new page is allocated.
func (d *Device) processTranslationPageWrite(lpn int, stime time.Duration) {
	tvpn := lpn / d.p.EntsPerPg
	transPPA := d.gtd.Get(tvpn)
	if transPPA.IsUnmapped() {
		d.c.EnsureCapacityAndInsert(lpn, nand.Unmapped, cmt.Clean, d.evictWriteback(stime))
		return
	}

	d.ReadTranslationPage(transPPA, nand.UserIO, stime)
	ppn := d.mt.Get(lpn)
	d.c.EnsureCapacityAndInsert(lpn, ppn, cmt.Clean, d.evictWriteback(stime))
}
