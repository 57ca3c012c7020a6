package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/hr-copilot-poc/server/internal/agent/graph/tools"
	"github.com/hr-copilot-poc/server/internal/agent/model"
)

//go:embed template/system_prompt.txt
var systemPromptTemplate string

// RenderSystem renders the HR agent system prompt via the Eino prompt
// component, which both formats the template and emits prompt callbacks.
func RenderSystem(ctx context.Context, config model.PromptConfig) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(systemPromptTemplate),
	)
	vars := map[string]any{
		"OrgName":         config.OrgName,
		"AgentName":       config.AgentName,
		"RaiseLeaveTool":  tools.ToolRaiseLeave,
		"CancelLeaveTool": tools.ToolCancelLeave,
		"EditProfileTool": tools.ToolEditProfile,
		"LawSearchTool":   tools.ToolSearchLaborLaw,
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("system prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("system prompt render: empty result")
	}
	return msgs[0].Content, nil
}
