package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	copilot "github.com/github/copilot-sdk/go"

	"recon/internal/budget"
	"recon/internal/scouts"
	"recon/internal/selection"
)

// ProgressFunc receives throttled snapshots of a run's state. The snapshot is
// a copy; callbacks may retain it without locking.
type ProgressFunc func(rec RunRecord)

// ContentBlock is one renderable chunk of a run's output.
type ContentBlock struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// Details carries the structured outcome of one scout run.
type Details struct {
	Status          Status      `json:"status"`
	Workspace       string      `json:"workspace"`
	ChosenProvider  string      `json:"chosenProvider,omitempty"`
	ChosenModelID   string      `json:"chosenModelId,omitempty"`
	Reasoning       string      `json:"reasoning,omitempty"`
	SelectionReason string      `json:"selectionReason,omitempty"`
	Runs            []RunRecord `json:"runs"`
}

// Result is the normalized outcome of one scout run. Content is always
// non-empty so downstream consumers always have something renderable.
type Result struct {
	Content []ContentBlock `json:"content"`
	Details Details        `json:"details"`
	IsError bool           `json:"isError"`
}

// ModelSelector picks a model for a requested tier. *selection.Engine is the
// production implementation.
type ModelSelector interface {
	Select(ctx context.Context, tier selection.Tier) *selection.Result
}

// Runner drives one scout session from creation to a normalized result.
type Runner struct {
	selector ModelSelector
}

// NewRunner creates a runner backed by the given model selector.
func NewRunner(selector ModelSelector) *Runner {
	return &Runner{selector: selector}
}

// Run executes one scout invocation. Cancellation of ctx aborts the run:
// the record transitions to StatusAborted immediately and the underlying
// session is stopped best-effort in the background.
//
// Run never returns nil and never panics across the session boundary; every
// exit path produces a terminal result with populated content.
func (r *Runner) Run(ctx context.Context, cfg *scouts.Config, params scouts.Params, onProgress ProgressFunc) *Result {
	rec := newLiveRecord(cfg.Name, params.Query)

	workspace, err := cfg.Workspace(params)
	if err != nil {
		msg := fmt.Sprintf("resolving workspace: %v", err)
		rec.Finish(StatusError, msg, msg)
		return finalResult(rec, workspace, nil)
	}

	// Selection happens before any session resources exist. A nil selection
	// is a terminal error and no session is ever created.
	tier := params.EffectiveTier(cfg)
	sel := r.selector.Select(ctx, tier)
	if sel == nil {
		msg := fmt.Sprintf("no model available for tier %q", tier)
		rec.Finish(StatusError, msg, msg)
		return finalResult(rec, workspace, nil)
	}
	slog.Debug("scout model selected",
		"scout", cfg.Name,
		"model", sel.Model.ID,
		"provider", sel.Model.Provider,
		"reason", sel.Reason)

	var emit func()
	if onProgress != nil {
		emit = func() { onProgress(rec.Snapshot()) }
	}
	emitter := newProgressEmitter(runProgressInterval, emit)
	emitter.EmitForce()

	// Cancellation observed before session creation aborts without touching
	// the agent at all.
	if ctx.Err() != nil {
		rec.Finish(StatusAborted, "Aborted", "")
		emitter.EmitForce()
		return finalResult(rec, workspace, sel)
	}

	client := newAgentClient(&copilot.ClientOptions{
		// workspace is set at the session level, instead of at the client.
		LogLevel:  "error",
		AutoStart: copilot.Bool(false),
	})

	var stopOnce sync.Once
	stopClient := func() {
		stopOnce.Do(func() {
			if err := client.Stop(); err != nil {
				slog.Debug("stopping agent client", "scout", cfg.Name, "error", err)
			}
		})
	}
	defer stopClient()

	// The abort sequence runs at most once no matter how many paths trigger
	// it. Marking the record aborted is synchronous so observers see the
	// terminal status immediately; the underlying stop is fire-and-forget.
	var abortOnce sync.Once
	abort := func() {
		abortOnce.Do(func() {
			if rec.Finish(StatusAborted, "Aborted", "") {
				emitter.EmitForce()
			}
			go stopClient()
		})
	}
	stopListening := context.AfterFunc(ctx, abort)
	defer stopListening()

	gov := budget.NewGovernor(cfg.MaxTurns)

	finishWithError := func(err error) *Result {
		if ctx.Err() != nil {
			// Classification is decided by the cancellation flag, never by
			// the error's type or text.
			abort()
		} else {
			rec.Finish(StatusError, err.Error(), err.Error())
		}
		emitter.EmitForce()
		return finalResult(rec, workspace, sel)
	}

	if err := client.Start(ctx); err != nil {
		return finishWithError(fmt.Errorf("agent failed to start: %w", err))
	}

	session, err := client.CreateSession(ctx, &copilot.SessionConfig{
		Model:     sel.Model.ID,
		Streaming: true,

		Tools:               governedTools(ctx, gov, cfg.SessionTools(workspace)),
		OnPermissionRequest: allowReadOnlyTools,
		WorkingDirectory:    workspace,
	})
	if err != nil {
		return finishWithError(fmt.Errorf("failed to create session: %w", err))
	}
	slog.Debug("scout session created", "scout", cfg.Name, "sessionID", session.SessionID())

	var lastMu sync.Mutex
	var lastAssistantText string

	unsubscribe := session.On(func(event copilot.SessionEvent) {
		switch event.Type {
		case copilot.AssistantMessage:
			text := ""
			if event.Data.Content != nil {
				text = *event.Data.Content
			}
			gov.AdvanceTurn()
			rec.CompleteTurn(text)
			if text != "" {
				lastMu.Lock()
				lastAssistantText = text
				lastMu.Unlock()
			}
			emitter.Emit()

		case copilot.ToolExecutionStart:
			name, id := "", ""
			if event.Data.ToolName != nil {
				name = *event.Data.ToolName
			}
			if event.Data.ToolCallID != nil {
				id = *event.Data.ToolCallID
			}
			if name != "" {
				rec.StartTool(name, id)
			}
			emitter.Emit()

		case copilot.ToolExecutionComplete:
			id, success := "", true
			if event.Data.ToolCallID != nil {
				id = *event.Data.ToolCallID
			}
			if event.Data.Success != nil {
				success = *event.Data.Success
			}
			rec.FinishTool(id, success)
			emitter.Emit()
		}
	})
	defer unsubscribe()

	// The system prompt travels with the user prompt; each scout session is
	// isolated, so there is no earlier context for it to collide with.
	prompt := cfg.BuildSystemPrompt() + "\n\n---\n\n" + cfg.BuildUserPrompt(params)

	if _, err := session.SendAndWait(ctx, copilot.MessageOptions{Prompt: prompt}); err != nil {
		return finishWithError(err)
	}

	if ctx.Err() != nil {
		abort()
	} else {
		lastMu.Lock()
		summary := lastAssistantText
		lastMu.Unlock()
		if summary == "" {
			summary = "(no output)"
		}
		rec.Finish(StatusDone, summary, "")
	}
	emitter.EmitForce()

	return finalResult(rec, workspace, sel)
}

// finalResult snapshots the record into the normalized result shape. The
// textual content always has something to render.
func finalResult(rec *liveRecord, workspace string, sel *selection.Result) *Result {
	snap := rec.Snapshot()

	details := Details{
		Status:    snap.Status,
		Workspace: workspace,
		Runs:      []RunRecord{snap},
	}
	if sel != nil {
		details.ChosenProvider = string(sel.Model.Provider)
		details.ChosenModelID = sel.Model.ID
		details.Reasoning = string(sel.Reasoning)
		details.SelectionReason = sel.Reason
	}

	text := snap.SummaryText
	if text == "" {
		text = "(no output)"
	}

	return &Result{
		Content: []ContentBlock{{Kind: "text", Text: text}},
		Details: details,
		IsError: snap.Status == StatusError,
	}
}
