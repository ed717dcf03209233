package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidAppData marks a backup payload that failed shape validation.
// Such payloads are rejected wholesale before any state is touched.
var ErrInvalidAppData = errors.New("invalid backup payload")

// AppData is the full-application backup unit: every entity collection in
// one JSON document. It is both the export artifact and the only accepted
// import format.
type AppData struct {
	Customers []Customer `json:"customers"`
	Expenses  []Expense  `json:"expenses"`
	Tiers     []Tier     `json:"tiers"`
}

// ParseAppData validates the shape of a backup document and decodes it.
// All three collections must be present and be JSON arrays; anything else
// is rejected with ErrInvalidAppData before any typed decoding happens.
func ParseAppData(raw []byte) (AppData, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return AppData{}, fmt.Errorf("%w: %v", ErrInvalidAppData, err)
	}

	for _, key := range []string{"customers", "expenses", "tiers"} {
		field, ok := probe[key]
		if !ok {
			return AppData{}, fmt.Errorf("%w: missing %q", ErrInvalidAppData, key)
		}
		// json.Unmarshal accepts a JSON null for a slice, so check the
		// token itself: the collection has to be an actual array.
		trimmed := bytes.TrimSpace(field)
		if len(trimmed) == 0 || trimmed[0] != '[' {
			return AppData{}, fmt.Errorf("%w: %q is not an array", ErrInvalidAppData, key)
		}
	}

	var data AppData
	if err := json.Unmarshal(raw, &data); err != nil {
		return AppData{}, fmt.Errorf("%w: %v", ErrInvalidAppData, err)
	}
	// A present-but-empty array decodes to an empty non-nil slice; keep it
	// that way so callers can tell "validated empty" from "absent".
	if data.Customers == nil {
		data.Customers = []Customer{}
	}
	if data.Expenses == nil {
		data.Expenses = []Expense{}
	}
	if data.Tiers == nil {
		data.Tiers = []Tier{}
	}
	return data, nil
}
