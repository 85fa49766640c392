package processor

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/phambaophuc/image-ingest/internal/apperrors"
	"github.com/phambaophuc/image-ingest/internal/models"
	"golang.org/x/image/tiff"
)

// DecodeImage decodes part.Data using the decoder selected by the declared
// content type and checks that the samples have the bit depth the field
// expects. The depth is never guessed from the data.
func (p *ImageProcessor) DecodeImage(part models.ImagePart) (*models.DecodedImage, error) {
	if !part.BitDepth.Valid() {
		return nil, apperrors.Newf(apperrors.KindInternal, part.Field, "unsupported expected bit depth %d", part.BitDepth)
	}

	if err := p.checkDimensions(part); err != nil {
		return nil, err
	}

	img, err := decodeRaster(part.Data, part.ContentType)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindDecodeError, part.Field, "error opening or processing image", err)
	}

	depth, channels, err := sampleLayout(img)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindDecodeError, part.Field, "unsupported pixel layout", err)
	}

	if depth != part.BitDepth {
		return nil, apperrors.Newf(apperrors.KindDecodeError, part.Field,
			"expected %d-bit samples, image has %d-bit samples", part.BitDepth, depth)
	}

	bounds := img.Bounds()
	return &models.DecodedImage{
		Field:    part.Field,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Channels: channels,
		BitDepth: depth,
		Pixels:   img,
	}, nil
}

// checkDimensions reads only the image header so an upload cannot make the
// decoder allocate a pixel buffer larger than the configured budget.
func (p *ImageProcessor) checkDimensions(part models.ImagePart) error {
	cfg, err := decodeHeader(part.Data, part.ContentType)
	if err != nil {
		return apperrors.Wrap(apperrors.KindDecodeError, part.Field, "error opening or processing image", err)
	}

	if cfg.Width <= 0 || cfg.Height <= 0 {
		return apperrors.Newf(apperrors.KindDecodeError, part.Field,
			"image has invalid dimensions %dx%d", cfg.Width, cfg.Height)
	}

	pixels := int64(cfg.Width) * int64(cfg.Height)
	if pixels > p.maxPixels {
		return apperrors.Newf(apperrors.KindDecodeError, part.Field,
			"image dimensions %dx%d exceed the %d pixel limit (decoding needs %d bytes)",
			cfg.Width, cfg.Height, p.maxPixels, pixels*bytesPerPixel(cfg.ColorModel))
	}
	return nil
}

func decodeHeader(data []byte, contentType string) (image.Config, error) {
	switch contentType {
	case ContentTypePNG:
		return png.DecodeConfig(bytes.NewReader(data))
	case ContentTypeTIFF:
		return tiff.DecodeConfig(bytes.NewReader(data))
	default:
		return image.Config{}, fmt.Errorf("no decoder for content type %q", contentType)
	}
}

func bytesPerPixel(m color.Model) int64 {
	switch m {
	case color.GrayModel, color.AlphaModel:
		return 1
	case color.Gray16Model, color.Alpha16Model:
		return 2
	case color.RGBA64Model, color.NRGBA64Model:
		return 8
	default:
		return 4
	}
}

func decodeRaster(data []byte, contentType string) (image.Image, error) {
	switch contentType {
	case ContentTypePNG:
		return png.Decode(bytes.NewReader(data))
	case ContentTypeTIFF:
		return tiff.Decode(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("no decoder for content type %q", contentType)
	}
}

func sampleLayout(img image.Image) (models.BitDepth, int, error) {
	switch m := img.(type) {
	case *image.Gray, *image.Alpha:
		return models.BitDepth8, 1, nil
	case *image.Gray16, *image.Alpha16:
		return models.BitDepth16, 1, nil
	case *image.YCbCr:
		return models.BitDepth8, 3, nil
	case *image.Paletted:
		return models.BitDepth8, paletteChannels(m), nil
	case *image.RGBA, *image.NRGBA, *image.CMYK:
		return models.BitDepth8, 4, nil
	case *image.RGBA64, *image.NRGBA64:
		return models.BitDepth16, 4, nil
	default:
		return 0, 0, fmt.Errorf("pixel model %T", img)
	}
}

// paletteChannels reports 4 when any palette entry is translucent.
func paletteChannels(m *image.Paletted) int {
	for _, c := range m.Palette {
		if _, _, _, a := c.RGBA(); a != 0xffff {
			return 4
		}
	}
	return 3
}
