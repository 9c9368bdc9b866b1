package usecase

import (
	"sync"
	"time"

	"github.com/hayatoa/threads-auto-post-gs/domain/dto"
)

// RunStatus is the read-only snapshot served by the status endpoint.
type RunStatus struct {
	Mode      string               `json:"mode"`
	Timezone  string               `json:"timezone"`
	NextFires map[string]time.Time `json:"next_fires,omitempty"`
	Posted    int                  `json:"posted"`
	Failed    int                  `json:"failed"`
	NoOps     int                  `json:"no_ops"`
	Last      *dto.PostReport      `json:"last,omitempty"`
}

// RunTracker accumulates run state for observation. The posting loop is
// the only writer; readers get copies, so the single-writer model of the
// row store is unaffected.
type RunTracker struct {
	mu     sync.RWMutex
	status RunStatus
}

func NewRunTracker(mode, timezone string) *RunTracker {
	return &RunTracker{status: RunStatus{
		Mode:      mode,
		Timezone:  timezone,
		NextFires: map[string]time.Time{},
	}}
}

// SetNextFire records the upcoming fire instant for a schedule label.
func (t *RunTracker) SetNextFire(label string, at time.Time) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.NextFires[label] = at
}

// Record folds one post attempt into the counters.
func (t *RunTracker) Record(report dto.PostReport) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case report.RowIdx == 0:
		t.status.NoOps++
	case report.OK:
		t.status.Posted++
	default:
		t.status.Failed++
	}
	r := report
	t.status.Last = &r
}

// Snapshot returns a copy safe to serialize concurrently.
func (t *RunTracker) Snapshot() RunStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := t.status
	out.NextFires = make(map[string]time.Time, len(t.status.NextFires))
	for k, v := range t.status.NextFires {
		out.NextFires[k] = v
	}
	if t.status.Last != nil {
		last := *t.status.Last
		out.Last = &last
	}
	return out
}
