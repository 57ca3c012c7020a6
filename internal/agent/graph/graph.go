package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/hr-copilot-poc/server/internal/agent/graph/nodes"
	"github.com/hr-copilot-poc/server/internal/agent/graph/observers"
	"github.com/hr-copilot-poc/server/internal/agent/graph/sessions"
	"github.com/hr-copilot-poc/server/internal/agent/graph/tools"
	"github.com/hr-copilot-poc/server/internal/agent/model"
	errx "github.com/hr-copilot-poc/server/internal/core/error"
	logx "github.com/hr-copilot-poc/server/pkg/logger"
)

// Runner executes one conversation turn against the compiled agent graph.
type Runner interface {
	Invoke(ctx context.Context, in model.QueryInput) (string, error)
}

// Config holds everything needed to compose the conversation loop end-to-end.
type Config struct {
	PlannerModel     *nodes.PlannerModel
	Prompt           model.PromptConfig
	Conversation     model.ConversationConfig
	ConversationRepo model.ConversationRepository

	Store         tools.HRStore
	Index         tools.LawIndex
	RetrievalTopK int
}

// toolCallingPlanner is what the runner needs from the planner model: a way
// to bind the per-user tool set without mutating shared state.
type toolCallingPlanner interface {
	WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error)
}

type graphRunner struct {
	planner      toolCallingPlanner
	modelName    string
	promptCfg    model.PromptConfig
	sessions     *sessions.Manager
	deps         tools.Deps
	maxToolCalls int
}

// NewRunner validates the configuration and returns a Runner. The graph
// itself is assembled per invocation because the tool set is bound to the
// authenticated user.
func NewRunner(cfg Config) (Runner, error) {
	if cfg.PlannerModel == nil {
		return nil, fmt.Errorf("planner model is nil")
	}
	if cfg.ConversationRepo == nil {
		return nil, fmt.Errorf("conversation repo is nil")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("hr store is nil")
	}
	if cfg.Index == nil {
		return nil, fmt.Errorf("law index is nil")
	}

	return &graphRunner{
		planner:      cfg.PlannerModel,
		modelName:    cfg.PlannerModel.ModelName,
		promptCfg:    cfg.Prompt,
		sessions:     sessions.NewManager(cfg.ConversationRepo, cfg.Conversation),
		deps:         tools.Deps{Store: cfg.Store, Index: cfg.Index, TopK: cfg.RetrievalTopK},
		maxToolCalls: cfg.Conversation.Tools.MaxCalls,
	}, nil
}

func (r *graphRunner) Invoke(ctx context.Context, in model.QueryInput) (string, error) {
	if strings.TrimSpace(in.Query) == "" {
		return "", errx.Argument("query must not be empty")
	}

	// Serialize turns that share a session so the transcript never forks.
	unlock := r.sessions.Lock(in.SessionKey)
	defer unlock()

	runnable, err := r.buildForUser(ctx, in.UserID)
	if err != nil {
		return "", err
	}

	out, err := runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		return "", err
	}
	if out == nil {
		return "", nil
	}
	return out.Content, nil
}

// buildForUser assembles and compiles the loop graph with the tool set bound
// to one user. Tools close over the identity; the model only ever sees the
// business parameters.
func (r *graphRunner) buildForUser(ctx context.Context, userID int64) (compose.Runnable[model.QueryInput, *schema.Message], error) {
	businessTools := tools.BuildForUser(userID, r.deps)
	toolInfos, err := tools.GetToolInfos(ctx, businessTools)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to get tool infos")
		return nil, fmt.Errorf("failed to get tool infos: %w", err)
	}

	boundModel, err := r.planner.WithTools(toolInfos)
	if err != nil {
		return nil, err
	}

	toolsNode, err := compose.NewToolNode(ctx, &compose.ToolsNodeConfig{
		Tools:               businessTools,
		ExecuteSequentially: true,
		UnknownToolsHandler: func(ctx context.Context, name, input string) (string, error) {
			// A tool name outside the registered set means the loop has gone
			// off the rails; fail the turn instead of improvising.
			logx.Warn().
				Str("tool_name", name).
				Str("arguments", input).
				Msg("Unknown tool requested; aborting turn")
			return "", errx.UnknownTool(name)
		},
		ToolArgumentsHandler: sanitizeArguments,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Failed to create tools node")
		return nil, fmt.Errorf("failed to create tools node: %w", err)
	}

	g := compose.NewGraph[model.QueryInput, *schema.Message](
		compose.WithGenLocalState(func(ctx context.Context) *model.AppState {
			return &model.AppState{}
		}),
	)

	g.AddLambdaNode(nodes.NodeContextBuilder,
		nodes.NewContextBuilderNode(r.sessions, &r.promptCfg),
		compose.WithStatePreHandler(nodes.NewContextBuilderPreHandler()),
	)

	g.AddChatModelNode(nodes.NodePlanner,
		boundModel,
		compose.WithStatePreHandler(nodes.NewPlannerPreHandler(r.maxToolCalls)),
		compose.WithStatePostHandler(nodes.NewPlannerPostHandler(r.modelName)),
	)

	g.AddToolsNode(nodes.NodeToolExecutor, toolsNode,
		compose.WithStatePreHandler(nodes.NewToolExecutorPreHandler(r.maxToolCalls)),
	)

	g.AddLambdaNode(nodes.NodeAnswerExtractor,
		nodes.NewAnswerExtractorNode(r.sessions),
	)

	edges := [][2]string{
		{compose.START, nodes.NodeContextBuilder},
		{nodes.NodeContextBuilder, nodes.NodePlanner},
		{nodes.NodeToolExecutor, nodes.NodePlanner},
		{nodes.NodeAnswerExtractor, compose.END},
	}
	for _, edge := range edges {
		g.AddEdge(edge[0], edge[1])
	}

	loopBranch := compose.NewGraphBranch(
		nodes.NewToolExecutorCondition(),
		map[string]bool{
			nodes.NodeToolExecutor:    true,
			nodes.NodeAnswerExtractor: true,
		},
	)
	if err := g.AddBranch(nodes.NodePlanner, loopBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding loop branch")
		return nil, fmt.Errorf("error adding loop branch: %w", err)
	}

	return r.compile(ctx, g)
}

func (r *graphRunner) compile(ctx context.Context, g *compose.Graph[model.QueryInput, *schema.Message]) (compose.Runnable[model.QueryInput, *schema.Message], error) {
	// Limit total run steps to avoid infinite loops in branching or tool retries
	maxSteps := 10 + normalizedMaxCalls(r.maxToolCalls)*2
	if maxSteps < 20 {
		maxSteps = 20
	}

	runnable, err := g.Compile(ctx, compose.WithMaxRunSteps(maxSteps))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	return runnable, nil
}

func normalizedMaxCalls(n int) int {
	if n <= 0 {
		return nodes.DefaultMaxToolCalls
	}
	return n
}

// sanitizeArguments trims string arguments and clamps the few numeric ones
// before execution. It never fails hard; unparseable input is passed through
// so the tool itself can produce the argument error.
func sanitizeArguments(ctx context.Context, name, arguments string) (string, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(arguments), &m); err != nil {
		return arguments, nil
	}

	for key, v := range m {
		if s, ok := v.(string); ok {
			m[key] = strings.TrimSpace(s)
		}
	}

	if name == tools.ToolGetLeaveHistory {
		// limit: number (optional, default 20, max 100)
		if v, ok := m["limit"]; ok {
			if f, ok := v.(float64); ok {
				m["limit"] = clampInt(int(f), 1, 100)
			} else {
				delete(m, "limit")
			}
		}
	}

	b, err := json.Marshal(m)
	if err != nil {
		return arguments, nil
	}
	return string(b), nil
}

// clampInt returns v limited to [min, max].
func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
