package usage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReporter struct {
	snapshots []*Snapshot
	err       error

	fetchCalls int
}

func (r *fakeReporter) Fetch(ctx context.Context) (*Snapshot, error) {
	r.fetchCalls++
	if r.err != nil {
		return nil, r.err
	}

	snap := r.snapshots[0]
	if len(r.snapshots) > 1 {
		r.snapshots = r.snapshots[1:]
	}
	return snap, nil
}

func testSnapshot(utilization float64) *Snapshot {
	return &Snapshot{
		Providers: map[string][]Period{
			"anthropic": {{Name: "weekly", Utilization: utilization, Kind: PeriodWeekly}},
		},
		Errors:    map[string]string{},
		FetchedAt: time.Now(),
	}
}

func TestCache_SecondGetWithinTTLSkipsFetch(t *testing.T) {
	reporter := &fakeReporter{snapshots: []*Snapshot{testSnapshot(10)}}
	cache := NewCache(reporter)

	first := cache.Get(context.Background())
	require.NotNil(t, first)
	assert.Equal(t, 1, reporter.fetchCalls)

	second := cache.Get(context.Background())
	assert.Same(t, first, second)
	assert.Equal(t, 1, reporter.fetchCalls)
}

func TestCache_ExpiredEntryTriggersOneFetch(t *testing.T) {
	reporter := &fakeReporter{snapshots: []*Snapshot{testSnapshot(10), testSnapshot(20)}}
	cache := NewCache(reporter, WithTTL(10*time.Millisecond))

	first := cache.Get(context.Background())
	require.NotNil(t, first)

	time.Sleep(30 * time.Millisecond)

	second := cache.Get(context.Background())
	require.NotNil(t, second)
	assert.NotSame(t, first, second)
	assert.Equal(t, 2, reporter.fetchCalls)

	util, ok := second.Utilization("anthropic")
	require.True(t, ok)
	assert.Equal(t, 20.0, util)
}

func TestCache_FetchFailureReturnsLastKnownGood(t *testing.T) {
	reporter := &fakeReporter{snapshots: []*Snapshot{testSnapshot(10)}}
	cache := NewCache(reporter, WithTTL(10*time.Millisecond))

	first := cache.Get(context.Background())
	require.NotNil(t, first)

	reporter.err = errors.New("usage command not found")
	time.Sleep(30 * time.Millisecond)

	second := cache.Get(context.Background())
	assert.Same(t, first, second)
}

func TestCache_FetchFailureWithoutHistoryReturnsNil(t *testing.T) {
	reporter := &fakeReporter{err: errors.New("boom")}
	cache := NewCache(reporter)

	assert.Nil(t, cache.Get(context.Background()))
	assert.Equal(t, 1, reporter.fetchCalls)
}
