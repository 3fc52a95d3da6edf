package scouts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recon/internal/selection"
)

func validConfig(name string) *Config {
	return &Config{
		Name:              name,
		MaxTurns:          3,
		DefaultTier:       selection.TierFast,
		BuildSystemPrompt: func() string { return "sys" },
		BuildUserPrompt:   func(params Params) string { return params.Query },
	}
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(validConfig("finder")))

	cfg, ok := reg.Lookup("finder")
	require.True(t, ok)
	assert.Equal(t, "finder", cfg.Name)

	_, ok = reg.Lookup("librarian")
	assert.False(t, ok)
}

func TestRegistry_RejectsInvalidConfigs(t *testing.T) {
	reg := NewRegistry()

	assert.Error(t, reg.Register(nil))
	assert.Error(t, reg.Register(&Config{Name: ""}))

	noTurns := validConfig("x")
	noTurns.MaxTurns = 0
	assert.Error(t, reg.Register(noTurns))

	noPrompt := validConfig("y")
	noPrompt.BuildUserPrompt = nil
	assert.Error(t, reg.Register(noPrompt))

	require.NoError(t, reg.Register(validConfig("finder")))
	assert.Error(t, reg.Register(validConfig("finder")), "duplicate names are rejected")
}

func TestDefaultRegistry_Builtins(t *testing.T) {
	reg := DefaultRegistry()
	assert.Equal(t, []string{"finder", "oracle", "researcher"}, reg.Names())

	finder, ok := reg.Lookup("finder")
	require.True(t, ok)
	assert.Equal(t, selection.TierFast, finder.DefaultTier)
	assert.NotEmpty(t, finder.BuildSystemPrompt())
	assert.Contains(t, finder.BuildUserPrompt(Params{Query: "the widget"}), "the widget")

	oracle, ok := reg.Lookup("oracle")
	require.True(t, ok)
	assert.Equal(t, selection.TierCapable, oracle.DefaultTier)
}

func TestConfig_WorkspaceResolution(t *testing.T) {
	cfg := validConfig("finder")

	dir := t.TempDir()
	ws, err := cfg.Workspace(Params{Workspace: dir})
	require.NoError(t, err)
	assert.Equal(t, dir, ws)

	// no override falls back to the process working directory
	ws, err = cfg.Workspace(Params{})
	require.NoError(t, err)
	assert.NotEmpty(t, ws)

	cfg.ResolveWorkspace = func(params Params) (string, error) { return "/fixed", nil }
	ws, err = cfg.Workspace(Params{Workspace: dir})
	require.NoError(t, err)
	assert.Equal(t, "/fixed", ws)
}

func TestParams_EffectiveTier(t *testing.T) {
	cfg := validConfig("finder")
	cfg.DefaultTier = selection.TierCapable

	assert.Equal(t, selection.TierCapable, Params{}.EffectiveTier(cfg))
	assert.Equal(t, selection.TierFast, Params{Tier: selection.TierFast}.EffectiveTier(cfg))

	cfg.DefaultTier = ""
	assert.Equal(t, selection.TierFast, Params{}.EffectiveTier(cfg))
}

func TestConfig_SessionToolsDefault(t *testing.T) {
	cfg := validConfig("finder")
	set := cfg.SessionTools(t.TempDir())
	require.NotEmpty(t, set)

	names := map[string]bool{}
	for _, tool := range set {
		names[tool.Name] = true
	}
	assert.True(t, names["view"])
	assert.True(t, names["search"])
	assert.True(t, names["run"])
}
