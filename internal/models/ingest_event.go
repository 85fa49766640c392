package models

import "time"

// ImageIngested is published once an upload has been committed.
type ImageIngested struct {
	EventID    string        `json:"event_id"`
	RequestID  int64         `json:"request_id"`
	ClientIP   string        `json:"client_ip"`
	Images     []StoredImage `json:"images"`
	IngestedAt time.Time     `json:"ingested_at"`
}
