package dispatch

import (
	"context"
	"errors"
	"testing"

	copilot "github.com/github/copilot-sdk/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recon/internal/budget"
	"recon/internal/tools"
)

func echoTool(t *testing.T) tools.Tool {
	t.Helper()
	return tools.Tool{
		Name:        "echo",
		Description: "echoes its input",
		Parameters:  map[string]any{"type": "object"},
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			text, _ := args["text"].(string)
			return "echo: " + text, nil
		},
	}
}

func TestGovernedTools_AnnotatesResults(t *testing.T) {
	gov := budget.NewGovernor(3)
	governed := governedTools(context.Background(), gov, []tools.Tool{echoTool(t)})
	require.Len(t, governed, 1)
	assert.Equal(t, "echo", governed[0].Name)

	result, err := governed[0].Handler(copilot.ToolInvocation{
		Arguments: map[string]any{"text": "hello"},
	})
	require.NoError(t, err)
	assert.Contains(t, result.TextResultForLLM, "echo: hello")
	assert.Contains(t, result.TextResultForLLM, "[turn 1 of 3, 2 remaining after this one]")
}

func TestGovernedTools_BlocksOnFinalTurn(t *testing.T) {
	gov := budget.NewGovernor(2)
	gov.AdvanceTurn() // now on the final allowed turn

	ran := false
	blocked := tools.Tool{
		Name:       "never",
		Parameters: map[string]any{"type": "object"},
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			ran = true
			return "should not happen", nil
		},
	}

	governed := governedTools(context.Background(), gov, []tools.Tool{blocked})
	result, err := governed[0].Handler(copilot.ToolInvocation{})
	require.NoError(t, err)

	assert.False(t, ran)
	assert.Contains(t, result.TextResultForLLM, "final turn")
}

func TestGovernedTools_PropagatesToolErrors(t *testing.T) {
	gov := budget.NewGovernor(3)
	failing := tools.Tool{
		Name:       "fail",
		Parameters: map[string]any{"type": "object"},
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			return "", errors.New("tool broke")
		},
	}

	governed := governedTools(context.Background(), gov, []tools.Tool{failing})
	_, err := governed[0].Handler(copilot.ToolInvocation{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tool broke")
}
