package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/hr-copilot-poc/server/internal/agent/graph/prompts"
	"github.com/hr-copilot-poc/server/internal/agent/graph/sessions"
	"github.com/hr-copilot-poc/server/internal/agent/model"
	logx "github.com/hr-copilot-poc/server/pkg/logger"
)

// NewContextBuilderPreHandler resets per-run state before a new query.
func NewContextBuilderPreHandler() func(context.Context, model.QueryInput, *model.AppState) (model.QueryInput, error) {
	return func(ctx context.Context, in model.QueryInput, s *model.AppState) (model.QueryInput, error) {
		s.UserID = in.UserID
		s.SessionKey = in.SessionKey
		s.History = nil
		s.ToolCallCount = 0
		s.ToolCallLimitReached = false
		s.ToolCallIDSeq = 0
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewContextBuilderNode persists the incoming user message and assembles the
// planner input: system prompt plus the recent transcript.
func NewContextBuilderNode(
	sm *sessions.Manager,
	promptCfg *model.PromptConfig,
) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input model.QueryInput) ([]*schema.Message, error) {
		systemPrompt, err := prompts.RenderSystem(ctx, *promptCfg)
		if err != nil {
			return nil, fmt.Errorf("render system prompt: %w", err)
		}

		messages, err := sm.BuildPlannerContext(ctx, input.SessionKey, systemPrompt, input.Query)
		if err != nil {
			return nil, fmt.Errorf("build planner context: %w", err)
		}

		return messages, nil
	})
}

// NewPlannerPreHandler appends the incoming messages to the run transcript
// and injects the wrap-up notice once the tool budget is spent.
func NewPlannerPreHandler(maxToolCalls int) func(context.Context, []*schema.Message, *model.AppState) ([]*schema.Message, error) {
	return func(ctx context.Context, in []*schema.Message, state *model.AppState) ([]*schema.Message, error) {
		// Heuristic fix for Gemini: ensure tool results carry tool_call_id
		for _, msg := range in {
			if msg == nil || msg.Role != schema.Tool || strings.TrimSpace(msg.ToolCallID) != "" {
				continue
			}
			for i := len(state.History) - 1; i >= 0; i-- {
				prev := state.History[i]
				if prev == nil || prev.Role != schema.Assistant || len(prev.ToolCalls) == 0 {
					continue
				}
				for _, tc := range prev.ToolCalls {
					if tc.Function.Name == msg.ToolName && strings.TrimSpace(tc.ID) != "" {
						msg.ToolCallID = tc.ID
						break
					}
				}
				break
			}
		}

		state.History = append(state.History, in...)

		if checkAndMarkToolLimit(state, maxToolCalls) {
			maxToolCalls = normalizeMaxToolCalls(maxToolCalls)
			wrapUp := &schema.Message{
				Role: schema.System,
				Content: fmt.Sprintf(
					"SYSTEM NOTICE: You have reached the maximum tool call limit (%d). "+
						"Do not request any more tools. Answer the user now with what you have, "+
						"and say plainly what you could not finish.",
					maxToolCalls,
				),
			}
			state.History = append(state.History, wrapUp)
		}

		logx.Debug().Str("session_key", state.SessionKey).Msg("Planner thinking...")

		return state.History, nil
	}
}

// NewPlannerPostHandler accounts usage cost, fills in missing tool-call IDs,
// and appends the planner output to the run transcript.
func NewPlannerPostHandler(modelName string) func(context.Context, *schema.Message, *model.AppState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.AppState) (*schema.Message, error) {
		if model.CostEnabled() && out != nil && out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
			pricing := model.ResolvePricing(modelName)
			inC, outC, totalC := model.ComputeCost(out.ResponseMeta.Usage, pricing)
			if out.Extra == nil {
				out.Extra = map[string]any{}
			}
			out.Extra["usage_cost"] = map[string]any{
				"currency":          "USD",
				"model":             modelName,
				"prompt_tokens":     out.ResponseMeta.Usage.PromptTokens,
				"completion_tokens": out.ResponseMeta.Usage.CompletionTokens,
				"total_tokens":      out.ResponseMeta.Usage.TotalTokens,
				"input_cost":        inC,
				"output_cost":       outC,
				"total_cost":        totalC,
			}
			logx.Debug().
				Str("session_key", state.SessionKey).
				Str("node", NodePlanner).
				Str("model", modelName).
				Int("prompt_tokens", out.ResponseMeta.Usage.PromptTokens).
				Int("completion_tokens", out.ResponseMeta.Usage.CompletionTokens).
				Int("total_tokens", out.ResponseMeta.Usage.TotalTokens).
				Float64("total_cost_usd", totalC).
				Msg("LLM usage")

			state.TotalCostUSD += totalC
			out.Extra["usage_cost_total_usd"] = state.TotalCostUSD
		}

		// Some providers omit tool_call IDs; synthesize stable ones.
		if out != nil && len(out.ToolCalls) > 0 {
			for i := range out.ToolCalls {
				if strings.TrimSpace(out.ToolCalls[i].ID) == "" {
					state.ToolCallIDSeq++
					out.ToolCalls[i].ID = fmt.Sprintf("call_%d", state.ToolCallIDSeq)
				}
			}
		}

		state.History = append(state.History, out)

		if out != nil && len(out.ToolCalls) > 0 {
			logx.Debug().Int("tool_count", len(out.ToolCalls)).Msg("Calling tools")
		} else {
			logx.Debug().Msg("Planner answer ready")
		}

		return out, nil
	}
}

// NewToolExecutorCondition routes the planner output: more tool work, or on
// to answer extraction.
func NewToolExecutorCondition() func(context.Context, *schema.Message) (string, error) {
	return func(ctx context.Context, input *schema.Message) (string, error) {
		var limitReached bool
		compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			limitReached = state.ToolCallLimitReached
			return nil
		})

		if limitReached {
			logx.Debug().Msg("Tool budget spent - routing to answer extraction")
			return NodeAnswerExtractor, nil
		}

		if len(input.ToolCalls) > 0 {
			logx.Debug().Int("tool_count", len(input.ToolCalls)).Msg("Routing to ToolExecutor")
			return NodeToolExecutor, nil
		}

		return NodeAnswerExtractor, nil
	}
}

// NewToolExecutorPreHandler charges the requested calls against the budget.
func NewToolExecutorPreHandler(maxToolCalls int) func(context.Context, *schema.Message, *model.AppState) (*schema.Message, error) {
	return func(ctx context.Context, in *schema.Message, state *model.AppState) (*schema.Message, error) {
		exceeded := countToolCallsAndCheck(state, len(in.ToolCalls), maxToolCalls)

		logx.Debug().
			Int("tool_call_count", state.ToolCallCount).
			Str("session_key", state.SessionKey).
			Msg("Tool execution attempt")

		if exceeded {
			logx.Warn().
				Int("tool_call_count", state.ToolCallCount).
				Int("max_tool_calls", normalizeMaxToolCalls(maxToolCalls)).
				Str("session_key", state.SessionKey).
				Msg("Tool call budget exceeded - flagging and continuing")
		}

		return in, nil
	}
}

// NewAnswerExtractorNode turns the run transcript into the visible reply.
// The reply is the content of the last assistant turn that carries zero tool
// calls, scanning from the end backward. When no such turn exists (the
// budget ran out mid-plan), the fixed inability message is returned. The
// chosen reply is persisted to the session transcript before returning.
func NewAnswerExtractorNode(sm *sessions.Manager) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ *schema.Message) (*schema.Message, error) {
		var (
			sessionKey string
			totalCost  float64
			history    []*schema.Message
		)
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			sessionKey = state.SessionKey
			totalCost = state.TotalCostUSD
			history = state.History
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		content := InabilityMessage
		for i := len(history) - 1; i >= 0; i-- {
			msg := history[i]
			if msg == nil || msg.Role != schema.Assistant || len(msg.ToolCalls) > 0 {
				continue
			}
			if strings.TrimSpace(msg.Content) == "" {
				continue
			}
			content = msg.Content
			break
		}

		if err := sm.SaveReply(ctx, sessionKey, content); err != nil {
			// The reply is still returned to the caller; only continuity of
			// the stored transcript suffers.
			logx.Error().
				Str("session_key", sessionKey).
				Err(err).
				Msg("Error saving assistant reply")
		}

		reply := schema.AssistantMessage(content, nil)
		if model.CostEnabled() {
			reply.Extra = map[string]any{"usage_cost_total_usd": totalCost}
		}
		return reply, nil
	})
}
