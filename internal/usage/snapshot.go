// Package usage fetches and caches per-provider utilization data from the
// host assistant's usage reporting command.
package usage

import (
	"encoding/json"
	"fmt"
	"time"
)

// PeriodKind classifies a utilization period by how it resets.
type PeriodKind string

const (
	PeriodSession PeriodKind = "session"
	PeriodDaily   PeriodKind = "daily"
	PeriodWeekly  PeriodKind = "weekly"
	PeriodMonthly PeriodKind = "monthly"
)

// Period is one utilization window reported for a provider.
type Period struct {
	Name        string     `json:"name"`
	Utilization float64    `json:"utilization"`
	Remaining   float64    `json:"remaining"`
	Kind        PeriodKind `json:"period_type"`
	Model       string     `json:"model,omitempty"`
	ResetsAt    string     `json:"resets_at,omitempty"`
}

// Snapshot is one point-in-time view of provider utilization. Snapshots are
// immutable once built; the cache replaces them wholesale.
type Snapshot struct {
	Providers map[string][]Period
	Errors    map[string]string
	FetchedAt time.Time
}

// Utilization returns the binding utilization for one provider. Periods whose
// kind is not "session" represent slower-resetting constraints and are
// preferred; among the relevant periods the maximum value wins. The second
// return is false when the snapshot has no usable data for the provider.
func (s *Snapshot) Utilization(provider string) (float64, bool) {
	if s == nil {
		return 0, false
	}

	periods := s.Providers[provider]
	if len(periods) == 0 {
		return 0, false
	}

	relevant := periods[:0:0]
	for _, p := range periods {
		if p.Kind != PeriodSession {
			relevant = append(relevant, p)
		}
	}
	if len(relevant) == 0 {
		relevant = periods
	}

	max := relevant[0].Utilization
	for _, p := range relevant[1:] {
		if p.Utilization > max {
			max = p.Utilization
		}
	}
	return max, true
}

// reportPayload is the wire shape produced by the reporting command.
type reportPayload struct {
	Providers map[string]struct {
		Periods []Period `json:"periods"`
	} `json:"providers"`
	Errors map[string]string `json:"errors"`
}

// ParseReport decodes the reporting command's machine-readable output.
// A payload without a providers map is malformed and treated as a failure.
func ParseReport(data []byte, fetchedAt time.Time) (*Snapshot, error) {
	var payload reportPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parsing usage report: %w", err)
	}
	if payload.Providers == nil {
		return nil, fmt.Errorf("usage report has no providers map")
	}

	snap := &Snapshot{
		Providers: make(map[string][]Period, len(payload.Providers)),
		Errors:    payload.Errors,
		FetchedAt: fetchedAt,
	}
	for name, entry := range payload.Providers {
		snap.Providers[name] = entry.Periods
	}
	if snap.Errors == nil {
		snap.Errors = map[string]string{}
	}
	return snap, nil
}
