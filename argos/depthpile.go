package argos

import (
	"github.com/arribada/horizon-core/gnss"
	"github.com/arribada/horizon-core/paramstore"
)

// maxDepthPileEntries bounds the FIFO of GNSS fixes held for Argos bursts,
// matching the reference firmware's MAX_GPS_ENTRIES housekeeping in
// notify_sensor_log_update (evict oldest once the pile would exceed 24).
const maxDepthPileEntries = 24

// unboundedBurst marks an entry that is always eligible for transmission
// (never exhausted by sends), used when NTRY_PER_MESSAGE is 0 or the
// configured mode is DUTY_CYCLE/LEGACY.
const unboundedBurst = ^uint32(0)

type depthEntry struct {
	fix          gnss.Fix
	burstCounter uint32
}

// DepthPile is the bounded FIFO of recent GNSS fixes the Argos TX scheduler
// draws short/long packets from (§3 Depth Pile).
type DepthPile struct {
	entries  []depthEntry
	msgIndex int
}

// NewDepthPile constructs an empty pile.
func NewDepthPile() *DepthPile { return &DepthPile{} }

// Len reports how many fixes are currently held.
func (d *DepthPile) Len() int { return len(d.entries) }

// Store appends a newly logged fix, evicting the oldest entry once the pile
// would exceed maxDepthPileEntries. mode and ntryPerMessage select the new
// entry's burst counter exactly as notify_sensor_log_update does: an
// unbounded counter when ntryPerMessage is 0 or the mode doesn't retire
// entries (DUTY_CYCLE, LEGACY), else a hard cap of ntryPerMessage sends.
func (d *DepthPile) Store(fix gnss.Fix, mode paramstore.ArgosMode, ntryPerMessage uint32) {
	counter := ntryPerMessage
	if ntryPerMessage == 0 || mode == paramstore.ArgosModeDutyCycle || mode == paramstore.ArgosModeLegacy {
		counter = unboundedBurst
	}
	d.entries = append(d.entries, depthEntry{fix: fix, burstCounter: counter})
	if len(d.entries) > maxDepthPileEntries {
		d.entries = d.entries[len(d.entries)-maxDepthPileEntries:]
	}
}

// Burst is what Retrieve found: exactly one of Short/Long is populated.
type Burst struct {
	Short gnss.Fix
	Long  []gnss.Fix // time-descending, newest first
}

// Retrieve implements prepare_normal_burst's slot-selection algorithm: the
// pile is walked in groups of up to 4 entries ("slots"), starting from
// msgIndex modulo the slot count, until a slot with at least one eligible
// (burstCounter > 0) entry is found. Slot 0 anchors on the most recently
// stored span entries; each subsequent slot walks progressively further
// into older data (idx = num_gps_entries - span*(index+1) + k in the
// original, where num_gps_entries is a monotonically increasing
// total-seen counter) — so slot, not array position, determines recency,
// the opposite of a front-anchored slot*4 offset into the live FIFO. A
// slot with exactly one eligible entry yields a short packet (only that
// entry's counter is decremented); any other non-empty slot yields a long
// packet built from every entry in the slot (eligible entries have their
// counters decremented), reversed to newest-first order. msgIndex always
// advances once per call, found or not.
func (d *DepthPile) Retrieve(depthPile int) (Burst, bool) {
	defer func() { d.msgIndex++ }()

	if depthPile <= 0 {
		depthPile = 1
	}
	maxIndex := (depthPile + 3) / 4
	span := min3(4, depthPile, len(d.entries))
	if span == 0 {
		return Burst{}, false
	}

	for i := 0; i < maxIndex; i++ {
		slot := (d.msgIndex + i) % maxIndex
		start := len(d.entries) - span*(slot+1)
		if start < 0 {
			continue
		}
		end := start + span

		eligible := 0
		for j := start; j < end; j++ {
			if d.entries[j].burstCounter > 0 {
				eligible++
			}
		}
		if eligible == 0 {
			continue
		}

		if eligible == 1 {
			for j := start; j < end; j++ {
				if d.entries[j].burstCounter > 0 {
					fix := d.entries[j].fix
					d.decrement(j)
					return Burst{Short: fix}, true
				}
			}
		}

		out := make([]gnss.Fix, 0, end-start)
		for j := start; j < end; j++ {
			out = append(out, d.entries[j].fix)
			if d.entries[j].burstCounter > 0 {
				d.decrement(j)
			}
		}
		for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
			out[l], out[r] = out[r], out[l]
		}
		return Burst{Long: out}, true
	}

	return Burst{}, false
}

func (d *DepthPile) decrement(i int) {
	if d.entries[i].burstCounter != unboundedBurst {
		d.entries[i].burstCounter--
	}
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
