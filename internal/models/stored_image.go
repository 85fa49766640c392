package models

// StoredImage describes a blob written to the object store.
type StoredImage struct {
	Field    string   `json:"field"`
	Key      string   `json:"-"`
	URI      string   `json:"storage_path"`
	BitDepth BitDepth `json:"bit_depth"`
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	Size     int64    `json:"size"`
}
