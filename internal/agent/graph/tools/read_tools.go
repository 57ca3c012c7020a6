package tools

import (
	"context"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/hr-copilot-poc/server/internal/hr/store"
)

// ===================================
// Read tools: balance, history, pending, profile.
// None of them accept an identity argument; the bound identity is the only
// identity they can read.
// ===================================

type GetLeaveBalanceInput struct{}

type GetLeaveBalanceOutput struct {
	Remaining int `json:"remaining"`
}

func newGetLeaveBalanceTool(userID int64, st HRStore) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name:        ToolGetLeaveBalance,
			Desc:        "Return the current user's remaining annual leave balance for this year, in days. Takes no arguments.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		},
		func(ctx context.Context, _ *GetLeaveBalanceInput) (*GetLeaveBalanceOutput, error) {
			bal, err := st.LeaveBalance(ctx, userID)
			if err != nil {
				return nil, err
			}
			return &GetLeaveBalanceOutput{Remaining: bal.Remaining}, nil
		},
	)
}

type GetLeaveHistoryInput struct {
	Limit int `json:"limit,omitempty"`
}

type GetLeaveHistoryOutput struct {
	Items []store.Leave `json:"items"`
}

func newGetLeaveHistoryTool(userID int64, st HRStore) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolGetLeaveHistory,
			Desc: "Return the current user's recent leave history, newest first.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"limit": {
					Type: "number",
					Desc: "Maximum number of leaves to return (default 20, max 100).",
				},
			}),
		},
		func(ctx context.Context, in *GetLeaveHistoryInput) (*GetLeaveHistoryOutput, error) {
			items, err := st.LeaveHistory(ctx, userID, in.Limit)
			if err != nil {
				return nil, err
			}
			if items == nil {
				items = []store.Leave{}
			}
			return &GetLeaveHistoryOutput{Items: items}, nil
		},
	)
}

type GetPendingLeavesInput struct{}

type GetPendingLeavesOutput struct {
	Items []store.Leave `json:"items"`
}

func newGetPendingLeavesTool(userID int64, st HRStore) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name:        ToolGetPendingLeaves,
			Desc:        "List the current user's pending leave requests. Takes no arguments.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		},
		func(ctx context.Context, _ *GetPendingLeavesInput) (*GetPendingLeavesOutput, error) {
			items, err := st.PendingLeaves(ctx, userID)
			if err != nil {
				return nil, err
			}
			if items == nil {
				items = []store.Leave{}
			}
			return &GetPendingLeavesOutput{Items: items}, nil
		},
	)
}

type GetProfileSummaryInput struct{}

func newGetProfileSummaryTool(userID int64, st HRStore) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name:        ToolGetProfileSummary,
			Desc:        "Return the current user's non-sensitive profile information. Takes no arguments.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		},
		func(ctx context.Context, _ *GetProfileSummaryInput) (*store.Profile, error) {
			p, err := st.Profile(ctx, userID)
			if err != nil {
				return nil, err
			}
			return &p, nil
		},
	)
}
