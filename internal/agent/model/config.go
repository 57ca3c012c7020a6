package model

// ================ Config ================

// ConversationConfig controls transcript persistence and the tool budget.
type ConversationConfig struct {
	TTL     string `envconfig:"CONVERSATION_TTL" default:"24h"`
	History struct {
		MaxTurns int `envconfig:"CONVERSATION_HISTORY_MAX_TURNS" default:"30"`
	}
	Tools struct {
		MaxCalls int `envconfig:"CONVERSATION_TOOL_MAX_CALLS" default:"10"`
	}
}

// PlannerModelConfig configures the tool-calling planner model.
type PlannerModelConfig struct {
	Model       string  `envconfig:"PLANNER_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"PLANNER_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"PLANNER_TEMPERATURE" default:"0"`
}

// PromptConfig parameterizes the system prompt.
type PromptConfig struct {
	OrgName   string `envconfig:"PROMPT_ORG_NAME" default:"the company"`
	AgentName string `envconfig:"PROMPT_AGENT_NAME" default:"HR Copilot"`
}

// RetrievalConfig configures the labor-law document index.
type RetrievalConfig struct {
	EmbeddingModel string `envconfig:"RETRIEVAL_EMBEDDING_MODEL" default:"text-embedding-004"`
	DocsPathEN     string `envconfig:"LABOR_DOCUMENTS_PATH" default:"files/labor_documents_en.json"`
	DocsPathAR     string `envconfig:"LABOR_DOCUMENTS_AR_PATH" default:"files/labor_documents_ar.json"`
	TopK           int    `envconfig:"RETRIEVAL_TOP_K" default:"2"`
}
