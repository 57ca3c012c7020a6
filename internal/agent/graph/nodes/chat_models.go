package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/hr-copilot-poc/server/internal/agent/model"
	logx "github.com/hr-copilot-poc/server/pkg/logger"
)

// PlannerModel wraps the single tool-calling chat model that drives the
// conversation loop.
type PlannerModel struct {
	base      *gemini.ChatModel
	ModelName string
}

// NewPlannerModel creates the planner chat model on an existing Gemini client.
// The client is shared with the embedding layer, so it is created by the
// caller rather than here.
func NewPlannerModel(ctx context.Context, client *genai.Client, config *model.PlannerModelConfig) (*PlannerModel, error) {
	cm, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.Model,
		Temperature: &config.Temperature,
		MaxTokens:   &config.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating planner model")
		return nil, fmt.Errorf("error creating planner model: %w", err)
	}

	return &PlannerModel{base: cm, ModelName: config.Model}, nil
}

// WithTools returns a copy of the planner bound to the given tool schemas.
// The tool set differs per authenticated user, so binding must never mutate
// the shared base model.
func (p *PlannerModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	bound, err := p.base.WithTools(tools)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to bind tools to planner model")
		return nil, fmt.Errorf("failed to bind tools to planner model: %w", err)
	}
	return bound, nil
}
