package domain

import "time"

type DocumentStatus string

// Status values are persisted and surfaced verbatim. IDEAL is the initial
// state after upload, before a worker has picked the document up.
const (
	StatusIdeal      DocumentStatus = "IDEAL"
	StatusProcessing DocumentStatus = "PROCESSING"
	StatusCompleted  DocumentStatus = "COMPLETED"
	StatusFailed     DocumentStatus = "FAILED"
)

type Document struct {
	ID              string         `json:"id"`
	Filename        string         `json:"filename"`
	FileSize        int64          `json:"file_size"`
	ContentHash     string         `json:"content_hash,omitempty"`
	ReferenceNo     string         `json:"reference_no,omitempty"`
	UploadedBy      string         `json:"uploaded_by"`
	OrgRef          string         `json:"org_ref,omitempty"`
	StoragePath     string         `json:"storage_path"`
	Status          DocumentStatus `json:"status"`
	ExtractionRunID string         `json:"extraction_run_id,omitempty"`
	PageCount       int            `json:"page_count,omitempty"`
	Error           string         `json:"error,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}
