package tools

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	errx "github.com/hr-copilot-poc/server/internal/core/error"
	"github.com/hr-copilot-poc/server/internal/retrieval"
)

const defaultLawTopK = 2

type SearchLaborLawInput struct {
	Query string `json:"query"`
}

type SearchLaborLawOutput struct {
	Documents []retrieval.Document `json:"documents"`
	Failure
}

// newSearchLaborLawTool wraps the retrieval index. The tool returns the
// top-k most similar passages; judging their relevance is the planner's job.
func newSearchLaborLawTool(index LawIndex, topK int) tool.BaseTool {
	if topK <= 0 {
		topK = defaultLawTopK
	}
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolSearchLaborLaw,
			Desc: "Search the official Saudi Labor Law documents (Arabic and English). MUST be used for any employment-law, regulation or compliance question: workers' rights, contracts, wages, working hours, leave policies, termination, severance, workplace safety. Never answer legal questions from general knowledge.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     "string",
					Desc:     "Free-text legal question or topic, in Arabic or English.",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *SearchLaborLawInput) (*SearchLaborLawOutput, error) {
			query := strings.TrimSpace(in.Query)
			if query == "" {
				return &SearchLaborLawOutput{Failure: failureOf(errx.Argument("query is required"))}, nil
			}
			docs, err := index.Search(ctx, query, topK)
			if err != nil {
				return nil, err
			}
			if docs == nil {
				docs = []retrieval.Document{}
			}
			return &SearchLaborLawOutput{Documents: docs}, nil
		},
	)
}
