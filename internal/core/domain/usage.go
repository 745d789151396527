package domain

import "time"

// TokenUsage is the per-category token accounting reported by one model call.
// Categories the provider does not report stay zero.
type TokenUsage struct {
	InputTokens    int64 `json:"input_tokens"`
	OutputTokens   int64 `json:"output_tokens"`
	ToolUseTokens  int64 `json:"tool_use_tokens"`
	CachedTokens   int64 `json:"cached_tokens"`
	ThinkingTokens int64 `json:"thinking_tokens"`
	TotalTokens    int64 `json:"total_tokens"`
}

// UsageRecord is the append-only accounting row written after each successful
// model invocation, one per page call.
type UsageRecord struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	RunID      string `json:"run_id"`
	PageNumber int    `json:"page_number"`
	Model      string `json:"model,omitempty"`
	TokenUsage
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
