package nodes

import (
	"github.com/hr-copilot-poc/server/internal/agent/model"
)

// Graph node names.
const (
	NodeContextBuilder  = "ContextBuilder"
	NodePlanner         = "Planner"
	NodeToolExecutor    = "ToolExecutor"
	NodeAnswerExtractor = "AnswerExtractor"
)

const DefaultMaxToolCalls = 10

// InabilityMessage is returned verbatim when a run exhausts its tool budget
// without producing a plain assistant answer.
const InabilityMessage = "I could not complete that request within the allowed number of steps. Please try again with a smaller or more specific request."

// ===== Small helpers to keep handlers simple/readable =====

// normalizeMaxToolCalls returns a sane default when the provided value is invalid.
func normalizeMaxToolCalls(n int) int {
	if n <= 0 {
		return DefaultMaxToolCalls
	}
	return n
}

// checkAndMarkToolLimit evaluates whether the budget is already spent and,
// if so, marks the state accordingly. Returns true when marked now.
func checkAndMarkToolLimit(state *model.AppState, max int) bool {
	max = normalizeMaxToolCalls(max)
	if !state.ToolCallLimitReached && state.ToolCallCount >= max {
		state.ToolCallLimitReached = true
		return true
	}
	return false
}

// countToolCallsAndCheck adds n executed calls to the count and marks the
// state if the budget is now exceeded. Returns true when exceeded.
func countToolCallsAndCheck(state *model.AppState, n, max int) bool {
	max = normalizeMaxToolCalls(max)
	state.ToolCallCount += n
	if state.ToolCallCount > max {
		state.ToolCallLimitReached = true
		return true
	}
	return false
}
