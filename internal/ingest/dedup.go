package ingest

import (
	"sync"
	"time"

	"github.com/strands/strands/internal/domain"
)

// DefaultDedupWindow is spec.md section 4.3 rule 4's default: duplicate
// alerts sharing a fingerprint within this window are dropped.
const DefaultDedupWindow = 60 * time.Second

// Deduplicator drops repeat alerts for the same fingerprint seen within
// Window of a prior admission, while keeping a duplicate count per
// fingerprint for diagnostics. Safe for concurrent use. Pipeline.Run
// passes alerts to Admit one at a time, in the order the provider
// returned them; there is no per-fingerprint channel.
type Deduplicator struct {
	mu            sync.Mutex
	window        time.Duration
	lastAdmitted  map[string]time.Time
	duplicateHits map[string]int
}

// NewDeduplicator constructs a Deduplicator with the given window; a
// non-positive window falls back to DefaultDedupWindow.
func NewDeduplicator(window time.Duration) *Deduplicator {
	if window <= 0 {
		window = DefaultDedupWindow
	}
	return &Deduplicator{
		window:        window,
		lastAdmitted:  make(map[string]time.Time),
		duplicateHits: make(map[string]int),
	}
}

// Admit reports whether an alert should pass (true) or be dropped as a
// duplicate (false) relative to the dedup window, based on the
// NormalisedAlert's arrival time.
func (d *Deduplicator) Admit(alert domain.NormalisedAlert) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	last, seen := d.lastAdmitted[alert.Fingerprint]
	if seen && alert.ArrivedAt.Sub(last) < d.window {
		d.duplicateHits[alert.Fingerprint]++
		return false
	}
	d.lastAdmitted[alert.Fingerprint] = alert.ArrivedAt
	return true
}

// DuplicateCount returns how many duplicates have been dropped for a
// fingerprint so far, for diagnostics.
func (d *Deduplicator) DuplicateCount(fingerprint string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.duplicateHits[fingerprint]
}
