package argos

import (
	"time"

	"github.com/arribada/horizon-core/paramstore"
)

// argosTxMarginMsecs is the minimum gap a pass-prediction candidate schedule
// must leave before its pass ends, matching ARGOS_TX_MARGIN_MSECS.
const argosTxMarginMsecs = 5000

// rxWindow is the downlink-listen window opened by schedule_prepass when an
// eligible pass also offers a downlink (AOP) capability.
type rxWindow struct {
	start time.Time
	end   time.Time
	valid bool
}

func (w rxWindow) closed() rxWindow { return rxWindow{} }

// shouldOpenRX reports process_rx's gating logic: whether the RX window is
// currently eligible to be driven into the open (A3-listening) state.
//
//   - a pending certification TX with a short repetition period blocks RX
//     entirely, to keep the cadence tight;
//   - a TX in flight always defers RX;
//   - RX disabled, no window configured, or the window already elapsed all
//     power the receiver off;
//   - an AOP table fresher than the configured update period also powers
//     the receiver off (nothing new to learn);
//   - otherwise RX is open only while now falls inside [start,end].
func shouldOpenRX(now time.Time, cfg paramstore.ArgosConfig, win rxWindow, certPending bool, txPending bool) bool {
	if certPending && cfg.CertTXRepetition > 0 && cfg.CertTXRepetition < 60 {
		return false
	}
	if txPending {
		return false
	}
	if !cfg.RxEnable {
		return false
	}
	if !win.valid {
		return false
	}
	if now.After(win.end) {
		return false
	}
	if !cfg.AOPDate.IsZero() && cfg.RxAOPUpdatePeriod > 0 {
		age := now.Sub(cfg.AOPDate)
		if age < time.Duration(cfg.RxAOPUpdatePeriod)*24*time.Hour {
			return false
		}
	}
	return !now.Before(win.start) && !now.After(win.end)
}

// updateRxTime folds onSeconds (the elapsed time the receiver was actually
// powered on) into ARGOS_RX_TIME and persists it, matching update_rx_time.
func updateRxTime(store *paramstore.Store, onSeconds uint32) {
	if onSeconds == 0 {
		return
	}
	store.IncrementRxTime(onSeconds)
	store.Save()
}

// applyAOPUpdate merges incoming into the persisted AOP table and, if the
// merge is complete (update_pass_predict's commit gate), refreshes
// ARGOS_AOP_DATE, persists both the table and the parameter store, and
// reports true so the caller can close the RX window.
func applyAOPUpdate(store *paramstore.Store, persister AOPPersister, now time.Time, incoming []AOPEntry) (AOPTable, bool) {
	existing, err := persister.Load()
	if err != nil {
		existing = AOPTable{}
	}

	merged, numUpdated := MergeAOP(existing, incoming)
	if !IsFullUpdate(merged, len(incoming), numUpdated) {
		return merged, false
	}

	if err := persister.Save(merged); err != nil {
		return merged, false
	}
	store.SetAOPDate(now)
	store.Save()
	return merged, true
}
