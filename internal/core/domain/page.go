package domain

import "time"

// Full/empty states a container line item can carry.
const (
	FullEmptyFull  = "FULL"
	FullEmptyEmpty = "EMPTY"
)

// UnsureAllFields marks a placeholder record where no field could be read.
const UnsureAllFields = "*all*"

// PageRecord holds the structured fields extracted from one PDF page.
// ContainerNumbers, ContainerSizes and FullEmptyStatuses are parallel arrays:
// index i describes the same physical container in all three, with nil entries
// where the model could not read a value.
type PageRecord struct {
	ID                string    `json:"id"`
	DocumentID        string    `json:"document_id"`
	PageNumber        int       `json:"page_number"`
	ContainerNumbers  []*string `json:"container_numbers"`
	ContainerSizes    []*string `json:"container_sizes"`
	FullEmptyStatuses []*string `json:"full_empty_statuses"`
	PageDate          *string   `json:"page_date,omitempty"`
	InstructionNumber *string   `json:"instruction_number,omitempty"`
	VehicleNumber     *string   `json:"vehicle_number,omitempty"`
	CollectedFrom     *string   `json:"collected_from,omitempty"`
	DeliveredTo       *string   `json:"delivered_to,omitempty"`
	UnsureFields      []string  `json:"unsure_fields"`
	CreatedAt         time.Time `json:"created_at"`
}

// NewPlaceholderPage builds the record stored when a page's extraction attempt
// failed: empty container arrays and every field marked unsure. The caller
// assigns the record id.
func NewPlaceholderPage(documentID string, pageNumber int) *PageRecord {
	return &PageRecord{
		DocumentID:        documentID,
		PageNumber:        pageNumber,
		ContainerNumbers:  []*string{},
		ContainerSizes:    []*string{},
		FullEmptyStatuses: []*string{},
		UnsureFields:      []string{UnsureAllFields},
	}
}
