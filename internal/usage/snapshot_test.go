package usage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReport(t *testing.T) {
	data := []byte(`{
		"providers": {
			"anthropic": {
				"periods": [
					{"name": "session", "utilization": 40, "remaining": 60, "period_type": "session"},
					{"name": "weekly limit", "utilization": 72.5, "remaining": 27.5, "period_type": "weekly", "resets_at": "2026-09-01T00:00:00Z"}
				]
			},
			"openai": {"periods": []}
		},
		"errors": {"google": "not authenticated"}
	}`)

	fetchedAt := time.Now()
	snap, err := ParseReport(data, fetchedAt)
	require.NoError(t, err)

	assert.Equal(t, fetchedAt, snap.FetchedAt)
	assert.Equal(t, "not authenticated", snap.Errors["google"])
	require.Len(t, snap.Providers["anthropic"], 2)
	assert.Equal(t, PeriodWeekly, snap.Providers["anthropic"][1].Kind)
}

func TestParseReport_MissingProvidersIsMalformed(t *testing.T) {
	_, err := ParseReport([]byte(`{"errors": {}}`), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no providers map")
}

func TestParseReport_InvalidJSON(t *testing.T) {
	_, err := ParseReport([]byte(`{not json`), time.Now())
	require.Error(t, err)
}

func TestUtilization_PrefersNonSessionPeriods(t *testing.T) {
	snap := &Snapshot{
		Providers: map[string][]Period{
			"anthropic": {
				{Name: "session", Utilization: 95, Kind: PeriodSession},
				{Name: "daily", Utilization: 30, Kind: PeriodDaily},
				{Name: "weekly", Utilization: 55, Kind: PeriodWeekly},
			},
		},
	}

	util, ok := snap.Utilization("anthropic")
	require.True(t, ok)
	assert.Equal(t, 55.0, util)
}

func TestUtilization_SessionOnlyFallsBackToSession(t *testing.T) {
	snap := &Snapshot{
		Providers: map[string][]Period{
			"openai": {{Name: "session", Utilization: 42, Kind: PeriodSession}},
		},
	}

	util, ok := snap.Utilization("openai")
	require.True(t, ok)
	assert.Equal(t, 42.0, util)
}

func TestUtilization_NoData(t *testing.T) {
	var nilSnap *Snapshot
	_, ok := nilSnap.Utilization("anthropic")
	assert.False(t, ok)

	snap := &Snapshot{Providers: map[string][]Period{"openai": {}}}
	_, ok = snap.Utilization("openai")
	assert.False(t, ok)
	_, ok = snap.Utilization("unknown")
	assert.False(t, ok)
}
