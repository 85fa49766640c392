package processor

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/phambaophuc/image-ingest/internal/models"
)

// EncodePNG re-encodes a decoded image as PNG. 16-bit sample models are
// written as 16-bit PNG.
func (p *ImageProcessor) EncodePNG(img *models.DecodedImage) (*bytes.Buffer, error) {
	buffer := &bytes.Buffer{}
	if err := imaging.Encode(buffer, img.Pixels, imaging.PNG, imaging.PNGCompressionLevel(p.compression)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buffer, nil
}
