package usecase

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vportnov/pod-extractor/internal/core/domain"
	"github.com/vportnov/pod-extractor/internal/core/ports"
)

var pdfMagic = []byte("%PDF-")

type UploadDocumentUseCase struct {
	repo    ports.DocumentRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewUploadDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *UploadDocumentUseCase {
	return &UploadDocumentUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
	}
}

// Upload stores the PDF, creates the document in its initial IDEAL state and
// dispatches an extraction request. The response never waits for extraction;
// callers poll the document status.
func (uc *UploadDocumentUseCase) Upload(ctx context.Context, req ports.UploadRequest) (*domain.Document, error) {
	if strings.TrimSpace(req.UploadedBy) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "validate upload", errors.New("uploaded_by is required"))
	}

	data, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("read upload body: %w", err)
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		return nil, domain.WrapError(domain.ErrUnsupportedMedia, "validate upload", errors.New("payload is not a PDF"))
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(req.Filename))
	now := time.Now().UTC()
	hash := sha256.Sum256(data)

	if err := uc.storage.Save(ctx, storageKey, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	size := req.Size
	if size <= 0 {
		size = int64(len(data))
	}

	doc := &domain.Document{
		ID:          id,
		Filename:    req.Filename,
		FileSize:    size,
		ContentHash: hex.EncodeToString(hash[:]),
		ReferenceNo: strings.TrimSpace(req.ReferenceNo),
		UploadedBy:  strings.TrimSpace(req.UploadedBy),
		OrgRef:      strings.TrimSpace(req.OrgRef),
		StoragePath: storageKey,
		Status:      domain.StatusIdeal,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document metadata: %w", err)
	}

	if err := uc.queue.PublishExtractionRequested(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("publish extraction request: %w", err)
	}

	return doc, nil
}

// RequestExtraction re-dispatches an existing document. The in-flight check
// here is best-effort; the data layer enforces it again when a worker claims
// the document.
func (uc *UploadDocumentUseCase) RequestExtraction(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	if doc.Status == domain.StatusProcessing {
		return nil, domain.WrapError(
			domain.ErrExtractionInFlight,
			"request extraction",
			fmt.Errorf("document %s is processing under run %s", doc.ID, doc.ExtractionRunID),
		)
	}
	if err := uc.queue.PublishExtractionRequested(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("publish extraction request: %w", err)
	}
	return doc, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "document.pdf"
	}
	return base
}
