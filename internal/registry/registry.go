// Package registry describes the models the host assistant can reach and how
// each one is authenticated. The selection engine matches models structurally
// (provider + class), never by substring checks on model identifiers.
package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Provider identifies the backing inference provider for a model.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderGoogle    Provider = "google"
)

// Class is a coarse capability bucket for a model.
type Class string

const (
	ClassFast    Class = "fast"
	ClassCapable Class = "capable"
)

// AuthMode is the classified authentication mode for a model.
type AuthMode string

const (
	AuthModeOAuth  AuthMode = "oauth"
	AuthModeAPIKey AuthMode = "api-key"
)

// Model is one entry in the registry.
type Model struct {
	ID       string   `yaml:"id"`
	Provider Provider `yaml:"provider"`
	Class    Class    `yaml:"class"`

	// AuthSource records where the credential for this model comes from,
	// e.g. "oauth" for a logged-in session or "env:OPENAI_API_KEY".
	AuthSource string `yaml:"auth_source"`
}

// AuthMode classifies the model's auth source as oauth or api-key.
func (m Model) AuthMode() AuthMode {
	return ClassifyAuthSource(m.AuthSource)
}

// ClassifyAuthSource maps a free-form auth source to an AuthMode.
// Anything that is not an oauth login is treated as api-key, which is also
// the default when no source is recorded.
func ClassifyAuthSource(source string) AuthMode {
	if source == string(AuthModeOAuth) {
		return AuthModeOAuth
	}
	return AuthModeAPIKey
}

// Registry exposes the models available to the current process and which one
// the host assistant is currently using.
type Registry interface {
	// Models returns every model the host can currently reach.
	Models() []Model

	// Current returns the model the host assistant is running on, or nil if
	// none is active.
	Current() *Model
}

// Static is a fixed Registry, typically loaded from a YAML config file.
type Static struct {
	models  []Model
	current string
}

// NewStatic builds a registry from an explicit model list. currentID may be
// empty when no model is active.
func NewStatic(models []Model, currentID string) *Static {
	return &Static{models: models, current: currentID}
}

func (s *Static) Models() []Model {
	out := make([]Model, len(s.models))
	copy(out, s.models)
	return out
}

func (s *Static) Current() *Model {
	for i := range s.models {
		if s.models[i].ID == s.current {
			m := s.models[i]
			return &m
		}
	}
	return nil
}

// fileConfig is the on-disk YAML shape for a static registry.
type fileConfig struct {
	Models  []Model `yaml:"models"`
	Current string  `yaml:"current"`
}

// LoadFile reads a static registry from a YAML file.
func LoadFile(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading registry config: %w", err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing registry config %s: %w", path, err)
	}

	for i, m := range cfg.Models {
		if m.ID == "" {
			return nil, fmt.Errorf("registry config %s: model %d has no id", path, i)
		}
		if m.Provider == "" {
			return nil, fmt.Errorf("registry config %s: model %q has no provider", path, m.ID)
		}
		if m.Class != ClassFast && m.Class != ClassCapable {
			return nil, fmt.Errorf("registry config %s: model %q has unknown class %q", path, m.ID, m.Class)
		}
	}

	return NewStatic(cfg.Models, cfg.Current), nil
}
