package ports

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/vportnov/pod-extractor/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	List(ctx context.Context, limit, offset int) ([]domain.Document, error)
	// MarkProcessing atomically moves the document into PROCESSING and records
	// the run id. Returns domain.ErrExtractionInFlight when the document is
	// already PROCESSING under another run.
	MarkProcessing(ctx context.Context, id, runID string) error
	MarkCompleted(ctx context.Context, id string) error
	// MarkFailed records the terminal failure. When runID is non-empty the
	// update applies only while the document still carries that run id.
	MarkFailed(ctx context.Context, id, runID, errMessage string) error
	SetPageCount(ctx context.Context, id string, pageCount int) error
}

// PageRepository persists extracted page records.
type PageRepository interface {
	Create(ctx context.Context, page *domain.PageRecord) error
	ListByDocument(ctx context.Context, documentID string) ([]domain.PageRecord, error)
}

// UsageRepository persists per-invocation token accounting.
type UsageRepository interface {
	Create(ctx context.Context, rec *domain.UsageRecord) error
	ListByDocument(ctx context.Context, documentID string) ([]domain.UsageRecord, error)
}

// RunRepository tracks extraction runs so stalled work can be recovered.
type RunRepository interface {
	// Create inserts the run as RUNNING and assigns the next attempt number
	// for its document on the returned struct.
	Create(ctx context.Context, run *domain.ExtractionRun) error
	SetPagesTotal(ctx context.Context, runID string, pagesTotal int) error
	Heartbeat(ctx context.Context, runID string, pagesDone int) error
	Finish(ctx context.Context, runID string, status domain.RunStatus, errMessage string) error
	// ListStalled returns RUNNING runs whose heartbeat is older than cutoff.
	ListStalled(ctx context.Context, cutoff time.Time) ([]domain.ExtractionRun, error)
	MarkStalled(ctx context.Context, runID string) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes extraction requests.
type MessageQueue interface {
	PublishExtractionRequested(ctx context.Context, documentID string) error
	SubscribeExtractionRequested(ctx context.Context, handler func(context.Context, string) error) error
}

// PageCounter reports the number of pages in a PDF payload.
type PageCounter interface {
	Count(data []byte) (int, error)
}

// ModelRequest carries one model invocation: the raw document payload, the
// fixed extraction prompt, and the structured output schema the response must
// satisfy.
type ModelRequest struct {
	Payload  []byte
	MIMEType string
	Prompt   string
	Schema   map[string]any
}

// ModelResult is the model's raw structured output plus usage accounting.
// Usage is nil when the provider reported none.
type ModelResult struct {
	Data  json.RawMessage
	Usage *domain.TokenUsage
	Model string
}

// ExtractionModel is the hosted multimodal model boundary: given bytes,
// schema and prompt it returns structured JSON and token counts, or fails.
type ExtractionModel interface {
	Invoke(ctx context.Context, req ModelRequest) (*ModelResult, error)
}
