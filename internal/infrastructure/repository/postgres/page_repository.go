package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/vportnov/pod-extractor/internal/core/domain"
)

type PageRepository struct {
	db *sql.DB
}

func NewPageRepository(db *sql.DB) *PageRepository {
	return &PageRepository{db: db}
}

func (r *PageRepository) Create(ctx context.Context, page *domain.PageRecord) error {
	numbers, err := json.Marshal(page.ContainerNumbers)
	if err != nil {
		return fmt.Errorf("marshal container numbers: %w", err)
	}
	sizes, err := json.Marshal(page.ContainerSizes)
	if err != nil {
		return fmt.Errorf("marshal container sizes: %w", err)
	}
	statuses, err := json.Marshal(page.FullEmptyStatuses)
	if err != nil {
		return fmt.Errorf("marshal full/empty statuses: %w", err)
	}
	unsure, err := json.Marshal(page.UnsureFields)
	if err != nil {
		return fmt.Errorf("marshal unsure fields: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO pages (
	id, document_id, page_number, container_numbers, container_sizes, full_empty_statuses,
	page_date, instruction_number, vehicle_number, collected_from, delivered_to, unsure_fields, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
`,
		page.ID, page.DocumentID, page.PageNumber, numbers, sizes, statuses,
		page.PageDate, page.InstructionNumber, page.VehicleNumber, page.CollectedFrom, page.DeliveredTo,
		unsure, page.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert page: %w", err)
	}
	return nil
}

func (r *PageRepository) ListByDocument(ctx context.Context, documentID string) ([]domain.PageRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, document_id, page_number, container_numbers, container_sizes, full_empty_statuses,
	page_date, instruction_number, vehicle_number, collected_from, delivered_to, unsure_fields, created_at
FROM pages
WHERE document_id = $1
ORDER BY page_number ASC
`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	out := make([]domain.PageRecord, 0)
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, page)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pages: %w", err)
	}
	return out, nil
}

func scanPage(row rowScanner) (domain.PageRecord, error) {
	var page domain.PageRecord
	var numbers, sizes, statuses, unsure []byte
	err := row.Scan(
		&page.ID, &page.DocumentID, &page.PageNumber, &numbers, &sizes, &statuses,
		&page.PageDate, &page.InstructionNumber, &page.VehicleNumber, &page.CollectedFrom, &page.DeliveredTo,
		&unsure, &page.CreatedAt,
	)
	if err != nil {
		return domain.PageRecord{}, fmt.Errorf("scan page: %w", err)
	}
	if err := json.Unmarshal(numbers, &page.ContainerNumbers); err != nil {
		return domain.PageRecord{}, fmt.Errorf("unmarshal container numbers: %w", err)
	}
	if err := json.Unmarshal(sizes, &page.ContainerSizes); err != nil {
		return domain.PageRecord{}, fmt.Errorf("unmarshal container sizes: %w", err)
	}
	if err := json.Unmarshal(statuses, &page.FullEmptyStatuses); err != nil {
		return domain.PageRecord{}, fmt.Errorf("unmarshal full/empty statuses: %w", err)
	}
	if err := json.Unmarshal(unsure, &page.UnsureFields); err != nil {
		return domain.PageRecord{}, fmt.Errorf("unmarshal unsure fields: %w", err)
	}
	return page, nil
}
