package model

import (
	"github.com/cloudwego/eino/schema"
)

// AppState stores per-invocation state for the Eino graph.
// Concurrency model:
//   - This struct is registered as Graph Local State via compose.WithGenLocalState.
//   - All reads/writes happen only inside Eino state handlers:
//     WithStatePreHandler, WithStatePostHandler, or compose.ProcessState.
//   - Eino serializes access to state within these handlers, so no additional
//     mutex/atomic is required as long as you never touch it outside handlers.
type AppState struct {
	UserID     int64
	SessionKey string

	// Transcript of this run only: system + user + planner/tool turns, in
	// order. The answer extractor scans it backward.
	History []*schema.Message

	ToolCallCount        int  // maintained in handlers (reset/increment)
	ToolCallLimitReached bool // set when the tool budget is exceeded
	ToolCallIDSeq        int  // synthesizes tool_call_id when the provider omits one

	// Accumulated total LLM cost (USD) across model invocations for this query.
	TotalCostUSD float64
}

// QueryInput is the public input of one conversation turn. Identity is
// resolved by the HTTP layer before the graph ever runs; nothing the model
// produces can change it.
type QueryInput struct {
	UserID     int64  `json:"user_id"`
	SessionKey string `json:"session_key"`
	Query      string `json:"query"`
}
