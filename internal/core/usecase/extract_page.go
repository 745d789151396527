package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vportnov/pod-extractor/internal/core/domain"
	"github.com/vportnov/pod-extractor/internal/core/extraction"
	"github.com/vportnov/pod-extractor/internal/core/ports"
)

// PageExtractor performs one page's extraction attempt: model call, schema
// validation, page persistence and usage accounting. Any failure propagates
// to the orchestrator, which decides what a failed page means for the run.
type PageExtractor struct {
	model     ports.ExtractionModel
	pages     ports.PageRepository
	usage     ports.UsageRepository
	validator *extraction.Validator
}

func NewPageExtractor(
	model ports.ExtractionModel,
	pages ports.PageRepository,
	usage ports.UsageRepository,
) (*PageExtractor, error) {
	validator, err := extraction.NewValidator()
	if err != nil {
		return nil, fmt.Errorf("build page validator: %w", err)
	}
	return &PageExtractor{
		model:     model,
		pages:     pages,
		usage:     usage,
		validator: validator,
	}, nil
}

// ExtractPage sends the whole file with a prompt targeting pageNumber,
// validates the response and persists the page record plus, when the provider
// reported it, a usage record. One failed attempt is terminal for the page:
// no retry happens at any level.
func (pe *PageExtractor) ExtractPage(
	ctx context.Context,
	fileBytes []byte,
	pageNumber int,
	documentID, runID string,
) (*domain.PageRecord, error) {
	started := time.Now()

	result, err := pe.model.Invoke(ctx, ports.ModelRequest{
		Payload:  fileBytes,
		MIMEType: extraction.MIMETypePDF,
		Prompt:   extraction.PagePrompt(pageNumber),
		Schema:   extraction.FieldSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("invoke extraction model: %w", err)
	}

	if err := pe.validator.Validate(result.Data); err != nil {
		return nil, fmt.Errorf("validate model response: %w", err)
	}
	fields, err := extraction.DecodePage(result.Data)
	if err != nil {
		return nil, fmt.Errorf("decode model response: %w", err)
	}

	record := &domain.PageRecord{
		ID:                uuid.NewString(),
		DocumentID:        documentID,
		PageNumber:        pageNumber,
		ContainerNumbers:  fields.ContainerNumbers,
		ContainerSizes:    fields.ContainerSizes,
		FullEmptyStatuses: fields.FullEmptyStatuses,
		PageDate:          fields.PageDate,
		InstructionNumber: fields.InstructionNumber,
		VehicleNumber:     fields.VehicleNumber,
		CollectedFrom:     fields.CollectedFrom,
		DeliveredTo:       fields.DeliveredTo,
		UnsureFields:      fields.UnsureFields,
		CreatedAt:         time.Now().UTC(),
	}
	if err := pe.pages.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("persist page record: %w", err)
	}

	if result.Usage != nil {
		usageRec := &domain.UsageRecord{
			ID:         uuid.NewString(),
			DocumentID: documentID,
			RunID:      runID,
			PageNumber: pageNumber,
			Model:      result.Model,
			TokenUsage: *result.Usage,
			DurationMS: time.Since(started).Milliseconds(),
			CreatedAt:  time.Now().UTC(),
		}
		if err := pe.usage.Create(ctx, usageRec); err != nil {
			return nil, fmt.Errorf("persist usage record: %w", err)
		}
	}

	return record, nil
}
