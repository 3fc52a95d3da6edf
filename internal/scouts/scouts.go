// Package scouts defines the named, bounded subagent tasks the dispatcher
// can run, and the registry that resolves a task name to its configuration.
package scouts

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"recon/internal/selection"
	"recon/internal/tools"
)

// Params carries the per-invocation inputs to a scout run.
type Params struct {
	// Query is the caller's question or task description.
	Query string

	// Workspace optionally overrides the resolved workspace directory.
	Workspace string

	// Tier optionally overrides the scout's default capability tier.
	Tier selection.Tier
}

// EffectiveTier returns the tier for one run of cfg with these params.
func (p Params) EffectiveTier(cfg *Config) selection.Tier {
	if p.Tier != "" {
		return p.Tier
	}
	if cfg.DefaultTier != "" {
		return cfg.DefaultTier
	}
	return selection.TierFast
}

// Config describes one scout. Configs are created once at registration time
// and never mutated.
type Config struct {
	// Name is the scout's registry key, e.g. "finder".
	Name string

	// MaxTurns caps the number of request/response cycles. The final turn is
	// always tool-free so the scout converges to an answer.
	MaxTurns int

	// DefaultTier is the capability bucket requested when the caller does
	// not override it.
	DefaultTier selection.Tier

	// ResolveWorkspace returns the directory the scout operates in. Nil
	// falls back to params.Workspace, then the process working directory.
	ResolveWorkspace func(params Params) (string, error)

	// BuildSystemPrompt returns the fixed system prompt for the session.
	BuildSystemPrompt func() string

	// BuildUserPrompt renders the user prompt from the caller's params.
	BuildUserPrompt func(params Params) string

	// Tools optionally overrides the tool set granted to the session.
	// Nil grants the default read-only set.
	Tools func(workspace string) []tools.Tool
}

// Workspace resolves the directory for one run.
func (c *Config) Workspace(params Params) (string, error) {
	if c.ResolveWorkspace != nil {
		return c.ResolveWorkspace(params)
	}
	if params.Workspace != "" {
		return params.Workspace, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolving working directory: %w", err)
	}
	return wd, nil
}

// SessionTools returns the tool set for a run rooted at workspace.
func (c *Config) SessionTools(workspace string) []tools.Tool {
	if c.Tools != nil {
		return c.Tools(workspace)
	}
	return tools.ReadOnlySet(workspace)
}

// Registry maps scout names to configurations.
type Registry struct {
	mu      sync.RWMutex
	configs map[string]*Config
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{configs: map[string]*Config{}}
}

// DefaultRegistry returns a registry with the built-in scouts registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, cfg := range Builtins() {
		r.MustRegister(cfg)
	}
	return r
}

// Register adds a scout configuration.
func (r *Registry) Register(cfg *Config) error {
	if cfg == nil || cfg.Name == "" {
		return fmt.Errorf("scout config requires a name")
	}
	if cfg.MaxTurns < 1 {
		return fmt.Errorf("scout %q: max turns must be at least 1", cfg.Name)
	}
	if cfg.BuildUserPrompt == nil || cfg.BuildSystemPrompt == nil {
		return fmt.Errorf("scout %q: prompt builders are required", cfg.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.configs[cfg.Name]; exists {
		return fmt.Errorf("scout %q is already registered", cfg.Name)
	}
	r.configs[cfg.Name] = cfg
	return nil
}

// MustRegister is Register for static built-in definitions.
func (r *Registry) MustRegister(cfg *Config) {
	if err := r.Register(cfg); err != nil {
		panic(err)
	}
}

// Lookup resolves a scout name. The second return is false for unknown names.
func (r *Registry) Lookup(name string) (*Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[name]
	return cfg, ok
}

// Names returns the registered scout names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.configs))
	for name := range r.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
