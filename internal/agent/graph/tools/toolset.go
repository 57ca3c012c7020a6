// Package tools builds the identity-scoped tool set: for one resolved
// employee identity, a fixed collection of callable operations whose
// closures carry the identity. No tool schema contains an identity
// parameter, so nothing the model supplies can act as another employee.
package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	errx "github.com/hr-copilot-poc/server/internal/core/error"
	"github.com/hr-copilot-poc/server/internal/hr/store"
	"github.com/hr-copilot-poc/server/internal/retrieval"
)

// Tool names as exposed to the planner.
const (
	ToolGetLeaveBalance   = "GetLeaveBalance"
	ToolGetLeaveHistory   = "GetLeaveHistory"
	ToolGetPendingLeaves  = "GetPendingLeaves"
	ToolGetProfileSummary = "GetProfileSummary"
	ToolRaiseLeave        = "RaiseLeave"
	ToolCancelLeave       = "CancelLeave"
	ToolEditProfile       = "EditProfile"
	ToolSearchLaborLaw    = "SearchLaborLaw"
)

// HRStore is the slice of the relational store the tools delegate to.
type HRStore interface {
	LeaveBalance(ctx context.Context, userID int64) (store.Balance, error)
	LeaveHistory(ctx context.Context, userID int64, limit int) ([]store.Leave, error)
	PendingLeaves(ctx context.Context, userID int64) ([]store.Leave, error)
	Profile(ctx context.Context, userID int64) (store.Profile, error)
	RaiseLeave(ctx context.Context, req store.LeaveRequest) (store.RaiseResult, error)
	CancelLeave(ctx context.Context, userID, leaveID int64) error
	EditProfile(ctx context.Context, edit store.ProfileEdit) (store.Profile, error)
}

// LawIndex is the black-box retrieval capability.
type LawIndex interface {
	Search(ctx context.Context, query string, k int) ([]retrieval.Document, error)
}

// Deps are the external collaborators every tool delegates to.
type Deps struct {
	Store HRStore
	Index LawIndex
	TopK  int
}

// BuildForUser constructs the tool set closed over one fixed identity.
// Built fresh per request; tools never outlive the request that made them.
func BuildForUser(userID int64, deps Deps) []tool.BaseTool {
	return []tool.BaseTool{
		newGetLeaveBalanceTool(userID, deps.Store),
		newGetLeaveHistoryTool(userID, deps.Store),
		newGetPendingLeavesTool(userID, deps.Store),
		newGetProfileSummaryTool(userID, deps.Store),
		newRaiseLeaveTool(userID, deps.Store),
		newCancelLeaveTool(userID, deps.Store),
		newEditProfileTool(userID, deps.Store),
		newSearchLaborLawTool(deps.Index, deps.TopK),
	}
}

// GetToolInfos resolves the ToolInfo of every tool for model binding.
func GetToolInfos(ctx context.Context, ts []tool.BaseTool) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(ts))
	for _, t := range ts {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Failure is the structured error payload of a recoverable tool failure.
// The planner reads it and retries with corrected arguments or explains the
// problem to the user; raw errors never enter the transcript.
type Failure struct {
	Error string `json:"error,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

func failureOf(err error) Failure {
	return Failure{
		Error: errx.SafeMessage(err),
		Kind:  string(errx.KindOf(err)),
	}
}
