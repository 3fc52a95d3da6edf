package dispatch

import (
	"context"
	"fmt"

	copilot "github.com/github/copilot-sdk/go"
	"github.com/go-viper/mapstructure/v2"

	"recon/internal/budget"
	"recon/internal/tools"
)

// governedTools adapts the scout tool set into SDK tools with the turn budget
// governor interposed: invocations on the final turn are rejected with a
// readable reason instead of executing, and every successful result gets a
// budget status line appended.
func governedTools(ctx context.Context, gov *budget.Governor, set []tools.Tool) []copilot.Tool {
	out := make([]copilot.Tool, 0, len(set))
	for _, tool := range set {
		out = append(out, copilot.Tool{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  tool.Parameters,
			Handler: func(invocation copilot.ToolInvocation) (copilot.ToolResult, error) {
				if allowed, reason := gov.CheckToolUse(); !allowed {
					return copilot.ToolResult{TextResultForLLM: reason}, nil
				}

				args := map[string]any{}
				if invocation.Arguments != nil {
					if err := mapstructure.Decode(invocation.Arguments, &args); err != nil {
						return copilot.ToolResult{}, fmt.Errorf("decoding %s arguments: %w", tool.Name, err)
					}
				}

				result, err := tool.Run(ctx, args)
				if err != nil {
					return copilot.ToolResult{}, err
				}
				return copilot.ToolResult{TextResultForLLM: gov.AnnotateResult(result)}, nil
			},
		})
	}
	return out
}

// allowReadOnlyTools is the session permission callback. Custom scout tools
// are the only tools granted, so requests are approved; the tools themselves
// enforce the read-only policy.
func allowReadOnlyTools(request copilot.PermissionRequest, invocation copilot.PermissionInvocation) (copilot.PermissionRequestResult, error) {
	// value for 'Kind' came from the permissions_test.go in the Copilot SDK.
	return copilot.PermissionRequestResult{Kind: "approved"}, nil
}
