package extraction

import (
	"github.com/vportnov/pod-extractor/internal/core/domain"
)

// MIMETypePDF is the payload type sent with every page invocation.
const MIMETypePDF = "application/pdf"

// JSON field names the model must produce for every page.
const (
	FieldContainerNumbers  = "containerNumbers"
	FieldContainerSizes    = "containerSizes"
	FieldFullEmptyStatuses = "fullEmptyStatuses"
	FieldPageDate          = "pageDate"
	FieldInstructionNumber = "instructionNumber"
	FieldVehicleNumber     = "vehicleNumber"
	FieldCollectedFrom     = "collectedFrom"
	FieldDeliveredTo       = "deliveredTo"
	FieldUnsureFields      = "unsureFields"
)

// FieldSchema returns the structured-output contract for one page as a
// JSON-Schema (draft 2020-12 subset) generic map. The same map is validated
// against locally and converted to the provider's response-schema dialect by
// the model adapter.
func FieldSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			FieldContainerNumbers: map[string]any{
				"type":  "array",
				"items": nullableString(),
			},
			FieldContainerSizes: map[string]any{
				"type":  "array",
				"items": nullableString(),
			},
			FieldFullEmptyStatuses: map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": []string{"string", "null"},
					"enum": []any{domain.FullEmptyFull, domain.FullEmptyEmpty, nil},
				},
			},
			FieldPageDate:          nullableString(),
			FieldInstructionNumber: nullableString(),
			FieldVehicleNumber:     nullableString(),
			FieldCollectedFrom:     nullableString(),
			FieldDeliveredTo:       nullableString(),
			FieldUnsureFields: map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []string{FieldContainerNumbers, FieldContainerSizes, FieldFullEmptyStatuses},
	}
}

func nullableString() map[string]any {
	return map[string]any{"type": []string{"string", "null"}}
}
