package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vportnov/pod-extractor/internal/core/domain"
)

type UsageRepository struct {
	db *sql.DB
}

func NewUsageRepository(db *sql.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

func (r *UsageRepository) Create(ctx context.Context, rec *domain.UsageRecord) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO usage_records (
	id, document_id, run_id, page_number, model,
	input_tokens, output_tokens, tool_use_tokens, cached_tokens, thinking_tokens, total_tokens,
	duration_ms, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
`,
		rec.ID, rec.DocumentID, rec.RunID, rec.PageNumber, rec.Model,
		rec.InputTokens, rec.OutputTokens, rec.ToolUseTokens, rec.CachedTokens, rec.ThinkingTokens, rec.TotalTokens,
		rec.DurationMS, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert usage record: %w", err)
	}
	return nil
}

func (r *UsageRepository) ListByDocument(ctx context.Context, documentID string) ([]domain.UsageRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, document_id, run_id, page_number, model,
	input_tokens, output_tokens, tool_use_tokens, cached_tokens, thinking_tokens, total_tokens,
	duration_ms, created_at
FROM usage_records
WHERE document_id = $1
ORDER BY created_at DESC
`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list usage records: %w", err)
	}
	defer rows.Close()

	out := make([]domain.UsageRecord, 0)
	for rows.Next() {
		var rec domain.UsageRecord
		err := rows.Scan(
			&rec.ID, &rec.DocumentID, &rec.RunID, &rec.PageNumber, &rec.Model,
			&rec.InputTokens, &rec.OutputTokens, &rec.ToolUseTokens, &rec.CachedTokens, &rec.ThinkingTokens, &rec.TotalTokens,
			&rec.DurationMS, &rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan usage record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate usage records: %w", err)
	}
	return out, nil
}
