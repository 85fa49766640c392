package processor

import (
	"image/png"
	"strings"
)

const (
	ContentTypePNG  = "image/png"
	ContentTypeTIFF = "image/tiff"
	ContentTypeJSON = "application/json"
)

// FilePolicy describes what a multipart file field may contain.
type FilePolicy struct {
	Extensions   []string
	ContentTypes []string
	MaxSize      int64
}

// ImagePolicy accepts PNG and TIFF uploads by both extension and declared content type.
func ImagePolicy(maxSize int64) FilePolicy {
	return FilePolicy{
		Extensions:   []string{".png", ".tif", ".tiff"},
		ContentTypes: []string{ContentTypePNG, ContentTypeTIFF},
		MaxSize:      maxSize,
	}
}

func MetadataPolicy(maxSize int64) FilePolicy {
	return FilePolicy{
		Extensions:   []string{".json"},
		ContentTypes: []string{ContentTypeJSON},
		MaxSize:      maxSize,
	}
}

func (fp FilePolicy) allowsExtension(ext string) bool {
	return containsFold(fp.Extensions, ext)
}

func (fp FilePolicy) allowsContentType(contentType string) bool {
	return containsFold(fp.ContentTypes, contentType)
}

func containsFold(values []string, v string) bool {
	for _, candidate := range values {
		if strings.EqualFold(candidate, v) {
			return true
		}
	}
	return false
}

// DefaultMaxImagePixels caps decoded rasters at 64 Mpx.
const DefaultMaxImagePixels int64 = 1 << 26

type ImageProcessor struct {
	compression png.CompressionLevel
	maxPixels   int64
}

// NewImageProcessor returns a processor that refuses to decode images whose
// header claims more than maxPixels pixels. A non-positive value selects
// DefaultMaxImagePixels.
func NewImageProcessor(maxPixels int64) *ImageProcessor {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxImagePixels
	}
	return &ImageProcessor{compression: png.DefaultCompression, maxPixels: maxPixels}
}
