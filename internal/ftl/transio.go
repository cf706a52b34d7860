package ftl

import (
	"time"

	"dftlsim/internal/nand"
)

/// ReadTranslationPage implements spec.md §4.6's translation_page_read:
/// charge a NAND read on ppa's LUN. reqType distinguishes user-path from
/// GC-path callers for future accounting breakdowns; both charge
/// identical NAND latency today.
func (d *Device) ReadTranslationPage(ppa nand.PPA, reqType nand.ReqType, stime time.Duration) time.Duration {
	_ = reqType
	return d.chargeAndAccount(ppa, nand.CmdRead, stime)
}

/// NewTranslationWrite implements spec.md §4.6's
/// translation_page_new_write: allocate from the translation stream, set
/// gtd[tvpn] and rmap[new], mark valid, advance the translation write
/// pointer, charge a write. Used when tvpn had no prior on-flash page.
func (d *Device) NewTranslationWrite(tvpn int, stime time.Duration) nand.PPA {
	wp := d.lm.Trans
	newPPA := d.lm.CurrentPPA(wp)
	d.gtd.Set(tvpn, newPPA)
	d.rm.Set(d.g.Ppa2Pgidx(newPPA), tvpn)
	d.lm.MarkPageValid(newPPA)
	d.lm.Advance(wp)
	d.chargeAndAccount(newPPA, nand.CmdWrite, stime)
	return newPPA
}

/// WriteBackTranslationPage implements spec.md §4.6's
/// translation_page_write(old_ppa): invalidate oldPPA and clear its rmap
/// slot, allocate a fresh translation page, update gtd/rmap, mark valid,
/// advance, charge a write. Used on dirty CMT eviction and by data-block
/// GC when an uncached LPN's mapping must be persisted.
func (d *Device) WriteBackTranslationPage(oldPPA nand.PPA, stime time.Duration) nand.PPA {
	oldIdx := d.g.Ppa2Pgidx(oldPPA)
	tvpn := d.rm.Get(oldIdx)

	d.lm.MarkPageInvalid(oldPPA)
	d.rm.Clear(oldIdx)

	wp := d.lm.Trans
	newPPA := d.lm.CurrentPPA(wp)
	d.gtd.Set(tvpn, newPPA)
	d.rm.Set(d.g.Ppa2Pgidx(newPPA), tvpn)
	d.lm.MarkPageValid(newPPA)
	d.lm.Advance(wp)
	d.chargeAndAccount(newPPA, nand.CmdWrite, stime)
	return newPPA
}

/// GCRewriteTranslationPage implements spec.md §4.7/§9's
/// gc_translation_page_write: like WriteBackTranslationPage but does NOT
/// invalidate oldPPA — GC relies on the subsequent mark_block_free to
/// reset the whole block (spec.md §9's open-question resolution).
func (d *Device) GCRewriteTranslationPage(oldPPA nand.PPA, stime time.Duration) nand.PPA {
	oldIdx := d.g.Ppa2Pgidx(oldPPA)
	tvpn := d.rm.Get(oldIdx)

	wp := d.lm.Trans
	newPPA := d.lm.CurrentPPA(wp)
	d.gtd.Set(tvpn, newPPA)
	d.rm.Set(d.g.Ppa2Pgidx(newPPA), tvpn)
	d.lm.MarkPageValid(newPPA)
	d.lm.Advance(wp)
	d.chargeAndAccount(newPPA, nand.CmdWrite, stime)
	d.st.TransPagesGC.Inc()
	return newPPA
}

/// GCWriteDataPage implements spec.md §4.7's gc_write_page: allocate a
/// fresh data-stream PPA for lpn, update maptbl/rmap, mark valid, advance
/// the data write pointer, charge a write.
func (d *Device) GCWriteDataPage(lpn int, stime time.Duration) nand.PPA {
	wp := d.lm.Data
	newPPA := d.lm.CurrentPPA(wp)
	d.mt.Set(lpn, newPPA)
	d.rm.Set(d.g.Ppa2Pgidx(newPPA), lpn)
	d.lm.MarkPageValid(newPPA)
	d.lm.Advance(wp)
	d.chargeAndAccount(newPPA, nand.CmdWrite, stime)
	d.st.DataPagesGC.Inc()
	return newPPA
}

/// evictWriteback is the callback handed to the CMT whenever a dirty
/// entry is evicted (spec.md §4.3): persist its mapping to a translation
/// page, using the new-write path if its TVPN has never been flushed
/// before or the rewrite path if it has. See DESIGN.md for the recorded
/// interpretation of this open question.
func (d *Device) evictWriteback(stime time.Duration) func(lpn int, ppn nand.PPA) {
	return func(lpn int, ppn nand.PPA) {
		d.st.CMTEvictions.Inc()
		tvpn := lpn / d.p.EntsPerPg
		old := d.gtd.Get(tvpn)
		if old.IsUnmapped() {
			d.NewTranslationWrite(tvpn, stime)
			return
		}
		d.ReadTranslationPage(old, nand.UserIO, stime)
		d.WriteBackTranslationPage(old, stime)
	}
}
