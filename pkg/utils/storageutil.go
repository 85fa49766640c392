package utils

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// GenerateStorageKey returns a collision-resistant, time-ordered object key
// with the given extension.
func GenerateStorageKey(ext string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate storage key: %w", err)
	}
	return id.String() + ext, nil
}

// HumanSize formats a byte count for log fields. Negative counts, such as an
// unknown request length, are reported as "unknown".
func HumanSize(n int64) string {
	if n < 0 {
		return "unknown"
	}
	return humanize.IBytes(uint64(n))
}
