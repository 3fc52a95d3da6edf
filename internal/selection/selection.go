// Package selection picks the model a scout run should use, balancing a fixed
// preference order against live provider utilization.
package selection

import (
	"context"
	"fmt"

	"recon/internal/registry"
	"recon/internal/usage"
)

// Tier is the capability bucket a scout requests.
type Tier string

const (
	TierFast    Tier = "fast"
	TierCapable Tier = "capable"
)

// Reasoning is the depth-of-reasoning setting passed to the chosen model.
type Reasoning string

const (
	ReasoningLow    Reasoning = "low"
	ReasoningMedium Reasoning = "medium"
	ReasoningHigh   Reasoning = "high"
)

// Utilization thresholds. At or above skipThreshold a candidate's provider is
// considered saturated and the candidate is discarded; between the two the
// candidate is kept as a fallback but other candidates are tried first.
const (
	skipThreshold         = 95.0
	deprioritizeThreshold = 85.0
)

// Result is one selection decision. A fresh Result is produced for every run;
// results are never reused because utilization may have shifted.
type Result struct {
	Model      registry.Model
	Reasoning  Reasoning
	AuthMode   registry.AuthMode
	AuthSource string

	// Reason is a human-readable justification for the pick.
	Reason string
}

// candidate is one preference-list entry, matched structurally against
// available models.
type candidate struct {
	provider  registry.Provider
	class     registry.Class
	reasoning Reasoning
	label     string
}

func (c candidate) matches(m registry.Model) bool {
	return m.Provider == c.provider && m.Class == c.class
}

// Candidate preference lists, per tier and auth mode. Capable lists fall
// through to the fast list so a missing capable model never yields total
// failure. Order within a list is the tie-break: first listed wins.
var (
	oauthFast = []candidate{
		{registry.ProviderAnthropic, registry.ClassFast, ReasoningMedium, "Anthropic fast"},
		{registry.ProviderOpenAI, registry.ClassFast, ReasoningLow, "OpenAI fast"},
		{registry.ProviderGoogle, registry.ClassFast, ReasoningLow, "Google fast"},
	}
	oauthCapable = append([]candidate{
		{registry.ProviderAnthropic, registry.ClassCapable, ReasoningHigh, "Anthropic capable"},
		{registry.ProviderOpenAI, registry.ClassCapable, ReasoningMedium, "OpenAI capable"},
		{registry.ProviderGoogle, registry.ClassCapable, ReasoningMedium, "Google capable"},
	}, oauthFast...)

	apiKeyFast = []candidate{
		{registry.ProviderOpenAI, registry.ClassFast, ReasoningMedium, "OpenAI fast"},
		{registry.ProviderAnthropic, registry.ClassFast, ReasoningMedium, "Anthropic fast"},
		{registry.ProviderGoogle, registry.ClassFast, ReasoningLow, "Google fast"},
	}
	apiKeyCapable = append([]candidate{
		{registry.ProviderOpenAI, registry.ClassCapable, ReasoningHigh, "OpenAI capable"},
		{registry.ProviderAnthropic, registry.ClassCapable, ReasoningHigh, "Anthropic capable"},
		{registry.ProviderGoogle, registry.ClassCapable, ReasoningMedium, "Google capable"},
	}, apiKeyFast...)
)

func candidatesFor(tier Tier, mode registry.AuthMode) []candidate {
	if mode == registry.AuthModeOAuth {
		if tier == TierCapable {
			return oauthCapable
		}
		return oauthFast
	}
	if tier == TierCapable {
		return apiKeyCapable
	}
	return apiKeyFast
}

// Select picks a model for the requested tier. It is a pure function of its
// inputs: identical arguments always produce an identical selection.
//
// The cascade: preference order dominates when there is no usage evidence;
// evidence of saturation demotes (>= 85) or eliminates (>= 95) a candidate;
// when every preferred candidate is gone, a fallback chain on the current
// provider degrades gracefully. Returns nil only when nothing survives.
func Select(available []registry.Model, current *registry.Model, tier Tier, snap *usage.Snapshot) *Result {
	mode := registry.AuthModeAPIKey
	if current != nil {
		mode = current.AuthMode()
	}

	type deferred struct {
		model       registry.Model
		cand        candidate
		utilization float64
	}
	var deferredPicks []deferred

	for _, cand := range candidatesFor(tier, mode) {
		model, ok := firstMatch(available, cand.matches)
		if !ok {
			continue
		}

		util, haveData := snap.Utilization(string(cand.provider))
		if !haveData {
			return newResult(model, cand.reasoning, mode,
				fmt.Sprintf("%s: preferred candidate, no utilization data for %s", cand.label, cand.provider))
		}
		if util >= skipThreshold {
			continue
		}
		if util >= deprioritizeThreshold {
			deferredPicks = append(deferredPicks, deferred{model, cand, util})
			continue
		}
		return newResult(model, cand.reasoning, mode,
			fmt.Sprintf("%s: %s at %.0f%% utilization", cand.label, cand.provider, util))
	}

	// No immediate pick: take the deferred candidate with the lowest observed
	// utilization. Ties keep the earlier-listed candidate.
	if len(deferredPicks) > 0 {
		best := deferredPicks[0]
		for _, d := range deferredPicks[1:] {
			if d.utilization < best.utilization {
				best = d
			}
		}
		return newResult(best.model, best.cand.reasoning, mode,
			fmt.Sprintf("%s: deprioritized, %s at %.0f%% utilization (lowest among deferred)",
				best.cand.label, best.cand.provider, best.utilization))
	}

	return selectFallback(available, current, mode, snap)
}

// selectFallback walks the universal fallback chain: a capable model on the
// current provider, a fast model on the current provider, then any model on
// the current provider at low reasoning. Saturated providers still lose.
func selectFallback(available []registry.Model, current *registry.Model, mode registry.AuthMode, snap *usage.Snapshot) *Result {
	if current == nil {
		return nil
	}

	providerOK := func(p registry.Provider) bool {
		util, haveData := snap.Utilization(string(p))
		return !haveData || util < skipThreshold
	}

	steps := []struct {
		match     func(registry.Model) bool
		reasoning Reasoning
		label     string
	}{
		{
			match:     func(m registry.Model) bool { return m.Provider == current.Provider && m.Class == registry.ClassCapable },
			reasoning: ReasoningMedium,
			label:     "capable model on current provider",
		},
		{
			match:     func(m registry.Model) bool { return m.Provider == current.Provider && m.Class == registry.ClassFast },
			reasoning: ReasoningMedium,
			label:     "fast model on current provider",
		},
		{
			match:     func(m registry.Model) bool { return m.Provider == current.Provider },
			reasoning: ReasoningLow,
			label:     "any model on current provider",
		},
	}

	for _, step := range steps {
		model, ok := firstMatch(available, step.match)
		if !ok || !providerOK(model.Provider) {
			continue
		}
		return newResult(model, step.reasoning, mode, "fallback: "+step.label)
	}

	return nil
}

func firstMatch(models []registry.Model, match func(registry.Model) bool) (registry.Model, bool) {
	for _, m := range models {
		if match(m) {
			return m, true
		}
	}
	return registry.Model{}, false
}

func newResult(model registry.Model, reasoning Reasoning, mode registry.AuthMode, reason string) *Result {
	return &Result{
		Model:      model,
		Reasoning:  reasoning,
		AuthMode:   mode,
		AuthSource: model.AuthSource,
		Reason:     reason,
	}
}

// Engine binds Select to a live registry and usage cache.
type Engine struct {
	registry registry.Registry
	cache    *usage.Cache
}

// NewEngine creates a selection engine. cache may be nil, in which case
// selection runs on pure preference order.
func NewEngine(reg registry.Registry, cache *usage.Cache) *Engine {
	return &Engine{registry: reg, cache: cache}
}

// Select picks a model for the requested tier using the current registry
// contents and a (possibly stale, possibly absent) usage snapshot.
func (e *Engine) Select(ctx context.Context, tier Tier) *Result {
	var snap *usage.Snapshot
	if e.cache != nil {
		snap = e.cache.Get(ctx)
	}
	return Select(e.registry.Models(), e.registry.Current(), tier, snap)
}
