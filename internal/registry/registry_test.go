package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyAuthSource(t *testing.T) {
	assert.Equal(t, AuthModeOAuth, ClassifyAuthSource("oauth"))
	assert.Equal(t, AuthModeAPIKey, ClassifyAuthSource("env:OPENAI_API_KEY"))
	assert.Equal(t, AuthModeAPIKey, ClassifyAuthSource(""))
}

func TestStatic_CurrentLookup(t *testing.T) {
	models := []Model{
		{ID: "a", Provider: ProviderAnthropic, Class: ClassFast, AuthSource: "oauth"},
		{ID: "b", Provider: ProviderOpenAI, Class: ClassCapable, AuthSource: "oauth"},
	}

	reg := NewStatic(models, "b")
	current := reg.Current()
	require.NotNil(t, current)
	assert.Equal(t, "b", current.ID)

	assert.Nil(t, NewStatic(models, "missing").Current())
	assert.Nil(t, NewStatic(models, "").Current())
}

func TestStatic_ModelsReturnsCopy(t *testing.T) {
	reg := NewStatic([]Model{{ID: "a", Provider: ProviderAnthropic, Class: ClassFast}}, "a")

	models := reg.Models()
	models[0].ID = "mutated"

	assert.Equal(t, "a", reg.Models()[0].ID)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "models.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
models:
  - id: claude-sonnet-4-5
    provider: anthropic
    class: capable
    auth_source: oauth
  - id: gpt-5-mini
    provider: openai
    class: fast
    auth_source: env:OPENAI_API_KEY
current: claude-sonnet-4-5
`)

	reg, err := LoadFile(path)
	require.NoError(t, err)

	models := reg.Models()
	require.Len(t, models, 2)
	assert.Equal(t, ProviderAnthropic, models[0].Provider)
	assert.Equal(t, AuthModeOAuth, models[0].AuthMode())
	assert.Equal(t, AuthModeAPIKey, models[1].AuthMode())

	current := reg.Current()
	require.NotNil(t, current)
	assert.Equal(t, "claude-sonnet-4-5", current.ID)
}

func TestLoadFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing id",
			content: "models:\n  - provider: anthropic\n    class: fast\n",
			wantErr: "no id",
		},
		{
			name:    "missing provider",
			content: "models:\n  - id: x\n    class: fast\n",
			wantErr: "no provider",
		},
		{
			name:    "bad class",
			content: "models:\n  - id: x\n    provider: openai\n    class: enormous\n",
			wantErr: "unknown class",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
