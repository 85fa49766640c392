package models

import "encoding/json"

// Metadata mirrors the annotation schema. Every key is required but may be null.
type Metadata struct {
	ID          *string           `json:"id"`
	Product     *string           `json:"product"`
	Gain        *float64          `json:"gain"`
	Exposure    *float64          `json:"exposure"`
	Annotations []json.RawMessage `json:"annotations"`
}
