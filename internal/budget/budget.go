// Package budget enforces a scout run's turn budget. The governor blocks tool
// use on the final allowed turn so the subagent always converges to a textual
// answer instead of looping on tool calls.
package budget

import (
	"fmt"
	"sync"
)

// Governor is a small state machine attached to one scout session. It tracks
// the current turn index and decides whether tool use is still allowed.
type Governor struct {
	maxTurns int

	mu        sync.Mutex
	turnIndex int
}

// NewGovernor creates a governor for a run capped at maxTurns. Values below 1
// are clamped to 1, which makes every turn tool-free.
func NewGovernor(maxTurns int) *Governor {
	if maxTurns < 1 {
		maxTurns = 1
	}
	return &Governor{maxTurns: maxTurns}
}

// MaxTurns returns the configured budget.
func (g *Governor) MaxTurns() int {
	return g.maxTurns
}

// TurnIndex returns the zero-based index of the turn in progress.
func (g *Governor) TurnIndex() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.turnIndex
}

// AdvanceTurn moves the governor to the next turn. Called once per completed
// request/response cycle.
func (g *Governor) AdvanceTurn() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.turnIndex++
}

// CheckToolUse reports whether a tool invocation may proceed on the current
// turn. When blocked, reason is a human-readable rejection to hand back to
// the subagent in place of the tool's output.
func (g *Governor) CheckToolUse() (allowed bool, reason string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.turnIndex >= g.maxTurns-1 {
		return false, fmt.Sprintf(
			"Tool use is disabled: this is the final turn of a %d-turn budget. Answer now with the information you already have.",
			g.maxTurns)
	}
	return true, ""
}

// AnnotateResult appends a budget status line to a tool result so the
// subagent can pace itself. The reported turn number is 1-indexed and capped
// at the budget.
func (g *Governor) AnnotateResult(result string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	turn := g.turnIndex + 1
	if turn > g.maxTurns {
		turn = g.maxTurns
	}
	remaining := g.maxTurns - turn

	return fmt.Sprintf("%s\n[turn %d of %d, %d remaining after this one]", result, turn, g.maxTurns, remaining)
}
