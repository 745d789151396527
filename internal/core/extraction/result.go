package extraction

import (
	"encoding/json"
	"fmt"
)

// PageFields mirrors the model's JSON output for one page.
type PageFields struct {
	ContainerNumbers  []*string `json:"containerNumbers"`
	ContainerSizes    []*string `json:"containerSizes"`
	FullEmptyStatuses []*string `json:"fullEmptyStatuses"`
	PageDate          *string   `json:"pageDate"`
	InstructionNumber *string   `json:"instructionNumber"`
	VehicleNumber     *string   `json:"vehicleNumber"`
	CollectedFrom     *string   `json:"collectedFrom"`
	DeliveredTo       *string   `json:"deliveredTo"`
	UnsureFields      []string  `json:"unsureFields"`
}

// DecodePage parses a schema-validated model response. The schema requests
// equal-length parallel arrays but cannot enforce it, so mismatches are
// repaired here: shorter arrays are padded with nulls to the longest length
// and the padded field names are recorded as unsure.
func DecodePage(data []byte) (*PageFields, error) {
	var fields PageFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode page fields: %w", err)
	}
	if fields.ContainerNumbers == nil {
		fields.ContainerNumbers = []*string{}
	}
	if fields.ContainerSizes == nil {
		fields.ContainerSizes = []*string{}
	}
	if fields.FullEmptyStatuses == nil {
		fields.FullEmptyStatuses = []*string{}
	}
	if fields.UnsureFields == nil {
		fields.UnsureFields = []string{}
	}
	fields.repairParallelArrays()
	return &fields, nil
}

func (f *PageFields) repairParallelArrays() {
	want := len(f.ContainerNumbers)
	if n := len(f.ContainerSizes); n > want {
		want = n
	}
	if n := len(f.FullEmptyStatuses); n > want {
		want = n
	}

	pad := func(name string, arr []*string) []*string {
		if len(arr) == want {
			return arr
		}
		f.UnsureFields = appendUnique(f.UnsureFields, name)
		for len(arr) < want {
			arr = append(arr, nil)
		}
		return arr
	}
	f.ContainerNumbers = pad(FieldContainerNumbers, f.ContainerNumbers)
	f.ContainerSizes = pad(FieldContainerSizes, f.ContainerSizes)
	f.FullEmptyStatuses = pad(FieldFullEmptyStatuses, f.FullEmptyStatuses)
}

func appendUnique(list []string, value string) []string {
	for _, item := range list {
		if item == value {
			return list
		}
	}
	return append(list, value)
}
