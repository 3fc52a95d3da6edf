// Package dispatch runs scout sessions: one at a time through Runner, or
// fanned out through RunAll. It owns the run state machine, the turn budget
// wiring, cancellation, and progress reporting.
package dispatch

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is a run's lifecycle state. Transitions only ever go from
// StatusRunning to one of the terminal states, and a terminal status never
// changes again.
type Status string

const (
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusError   Status = "error"
	StatusAborted Status = "aborted"
)

// Terminal reports whether s is a final state.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusError || s == StatusAborted
}

// maxDisplayItems bounds the display window. Oldest items drop first.
const maxDisplayItems = 20

// DisplayItemKind distinguishes the two display item flavors.
type DisplayItemKind string

const (
	DisplayTool DisplayItemKind = "tool"
	DisplayText DisplayItemKind = "text"
)

// DisplayItem is one entry of a run's bounded, time-ordered activity feed.
type DisplayItem struct {
	Kind DisplayItemKind `json:"kind"`
	Text string          `json:"text"`

	// ToolCallID correlates a tool item with its completion event.
	ToolCallID string `json:"toolCallId,omitempty"`

	// Failed marks a tool item whose execution reported an error.
	Failed bool `json:"failed,omitempty"`
}

// RunRecord is the externally visible state of one scout invocation. Callers
// receive copies via Snapshot; the live record is owned by its run.
type RunRecord struct {
	ID             string         `json:"id"`
	Scout          string         `json:"scout"`
	Query          string         `json:"query"`
	Status         Status         `json:"status"`
	TurnsCompleted int            `json:"turnsCompleted"`
	DisplayItems   []DisplayItem  `json:"displayItems,omitempty"`
	SummaryText    string         `json:"summaryText,omitempty"`
	Error          string         `json:"error,omitempty"`
	ToolCalls      int            `json:"toolCalls"`
	ToolsUsed      map[string]int `json:"toolsUsed,omitempty"`
	StartedAt      time.Time      `json:"startedAt"`
	EndedAt        *time.Time     `json:"endedAt,omitempty"`
}

// liveRecord wraps a RunRecord with the lock that serializes mutation between
// the run goroutine, the session event handler, and the abort listener.
type liveRecord struct {
	mu  sync.Mutex
	rec RunRecord
}

func newLiveRecord(scout, query string) *liveRecord {
	return &liveRecord{
		rec: RunRecord{
			ID:        uuid.NewString(),
			Scout:     scout,
			Query:     query,
			Status:    StatusRunning,
			ToolsUsed: map[string]int{},
			StartedAt: time.Now(),
		},
	}
}

// Snapshot returns a copy safe to hand to progress callbacks.
func (l *liveRecord) Snapshot() RunRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.copyLocked()
}

func (l *liveRecord) copyLocked() RunRecord {
	rec := l.rec
	rec.DisplayItems = append([]DisplayItem(nil), l.rec.DisplayItems...)
	rec.ToolsUsed = make(map[string]int, len(l.rec.ToolsUsed))
	for name, n := range l.rec.ToolsUsed {
		rec.ToolsUsed[name] = n
	}
	if l.rec.EndedAt != nil {
		ended := *l.rec.EndedAt
		rec.EndedAt = &ended
	}
	return rec
}

// Finish transitions to a terminal status. It reports whether the transition
// happened; a record that is already terminal is left untouched, which is how
// an abort that raced a normal completion keeps precedence.
func (l *liveRecord) Finish(status Status, summary, errMsg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.rec.Status.Terminal() {
		return false
	}
	now := time.Now()
	l.rec.Status = status
	l.rec.SummaryText = summary
	l.rec.Error = errMsg
	l.rec.EndedAt = &now
	return true
}

// Update runs fn with the record locked. fn must not call back into the
// record's methods.
func (l *liveRecord) Update(fn func(rec *RunRecord)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(&l.rec)
}

// CompleteTurn increments the turn counter and appends the assistant's text
// to the display feed.
func (l *liveRecord) CompleteTurn(assistantText string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rec.TurnsCompleted++
	if assistantText != "" {
		l.appendItemLocked(DisplayItem{Kind: DisplayText, Text: assistantText})
	}
}

// StartTool records a tool invocation.
func (l *liveRecord) StartTool(toolName, toolCallID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rec.ToolCalls++
	l.rec.ToolsUsed[toolName]++
	l.appendItemLocked(DisplayItem{Kind: DisplayTool, Text: toolName, ToolCallID: toolCallID})
}

// FinishTool marks the matching tool item failed when its execution errored.
// A completion whose start already fell out of the display window is ignored.
func (l *liveRecord) FinishTool(toolCallID string, success bool) {
	if success || toolCallID == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.rec.DisplayItems) - 1; i >= 0; i-- {
		if l.rec.DisplayItems[i].ToolCallID == toolCallID {
			l.rec.DisplayItems[i].Failed = true
			return
		}
	}
}

func (l *liveRecord) appendItemLocked(item DisplayItem) {
	l.rec.DisplayItems = append(l.rec.DisplayItems, item)
	if n := len(l.rec.DisplayItems); n > maxDisplayItems {
		l.rec.DisplayItems = l.rec.DisplayItems[n-maxDisplayItems:]
	}
}
