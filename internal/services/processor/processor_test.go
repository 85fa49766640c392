package processor

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/phambaophuc/image-ingest/internal/apperrors"
	"github.com/phambaophuc/image-ingest/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"
)

func fileHeader(t *testing.T, field, filename, contentType string, data []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	headers := form.File[field]
	require.Len(t, headers, 1)
	return headers[0]
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func encodeTIFF(t *testing.T, img image.Image) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	require.NoError(t, tiff.Encode(buf, img, nil))
	return buf.Bytes()
}

func TestValidateFile(t *testing.T) {
	p := NewImageProcessor(DefaultMaxImagePixels)
	policy := ImagePolicy(16)

	testCases := []struct {
		name     string
		header   func(t *testing.T) *multipart.FileHeader
		wantKind apperrors.Kind
	}{
		{
			name:     "missing field",
			header:   func(t *testing.T) *multipart.FileHeader { return nil },
			wantKind: apperrors.KindMissingField,
		},
		{
			name: "empty filename",
			header: func(t *testing.T) *multipart.FileHeader {
				return &multipart.FileHeader{Filename: "", Header: textproto.MIMEHeader{"Content-Type": {ContentTypePNG}}}
			},
			wantKind: apperrors.KindEmptyFilename,
		},
		{
			name: "bad extension with valid content type",
			header: func(t *testing.T) *multipart.FileHeader {
				return fileHeader(t, "image8", "photo.jpg", ContentTypePNG, []byte("x"))
			},
			wantKind: apperrors.KindBadExtension,
		},
		{
			name: "bad content type",
			header: func(t *testing.T) *multipart.FileHeader {
				return fileHeader(t, "image8", "photo.png", "image/jpeg", []byte("x"))
			},
			wantKind: apperrors.KindBadContentType,
		},
		{
			name: "extension checked before content type",
			header: func(t *testing.T) *multipart.FileHeader {
				return fileHeader(t, "image8", "photo.gif", "image/gif", []byte("x"))
			},
			wantKind: apperrors.KindBadExtension,
		},
		{
			name: "too large",
			header: func(t *testing.T) *multipart.FileHeader {
				return fileHeader(t, "image8", "photo.png", ContentTypePNG, bytes.Repeat([]byte{1}, 17))
			},
			wantKind: apperrors.KindTooLarge,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := p.ValidateFile("image8", tc.header(t), policy)
			require.Error(t, err)
			assert.Nil(t, data)
			assert.Equal(t, tc.wantKind, apperrors.KindOf(err))

			var appErr *apperrors.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, "image8", appErr.Field)
		})
	}
}

func TestValidateFile_Accepts(t *testing.T) {
	p := NewImageProcessor(DefaultMaxImagePixels)
	payload := bytes.Repeat([]byte{7}, 16)

	testCases := []struct {
		filename    string
		contentType string
	}{
		{"scan.PNG", ContentTypePNG},
		{"scan.tif", ContentTypeTIFF},
		{"scan.TIFF", "image/tiff; charset=binary"},
	}

	for _, tc := range testCases {
		t.Run(tc.filename, func(t *testing.T) {
			data, err := p.ValidateFile("image8", fileHeader(t, "image8", tc.filename, tc.contentType, payload), ImagePolicy(16))
			require.NoError(t, err)
			assert.Equal(t, payload, data)
		})
	}
}

func TestValidateFile_Metadata(t *testing.T) {
	p := NewImageProcessor(DefaultMaxImagePixels)

	_, err := p.ValidateFile("metadata", fileHeader(t, "metadata", "meta.txt", ContentTypeJSON, []byte("{}")), MetadataPolicy(1024))
	assert.Equal(t, apperrors.KindBadExtension, apperrors.KindOf(err))

	data, err := p.ValidateFile("metadata", fileHeader(t, "metadata", "meta.json", ContentTypeJSON, []byte("{}")), MetadataPolicy(1024))
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), data)
}

func TestDecodeImage_PNG8(t *testing.T) {
	p := NewImageProcessor(DefaultMaxImagePixels)
	data := encodePNG(t, image.NewNRGBA(image.Rect(0, 0, 100, 50)))

	img, err := p.DecodeImage(models.ImagePart{Field: "image8", ContentType: ContentTypePNG, BitDepth: models.BitDepth8, Data: data})
	require.NoError(t, err)

	assert.Equal(t, 100, img.Width)
	assert.Equal(t, 50, img.Height)
	assert.Equal(t, models.BitDepth8, img.BitDepth)
	assert.Equal(t, 4, img.Channels)
}

func TestDecodeImage_Gray16(t *testing.T) {
	p := NewImageProcessor(DefaultMaxImagePixels)
	src := image.NewGray16(image.Rect(0, 0, 8, 4))
	src.SetGray16(1, 1, color.Gray16{Y: 0xBEEF})

	for _, tc := range []struct {
		contentType string
		data        []byte
	}{
		{ContentTypePNG, encodePNG(t, src)},
		{ContentTypeTIFF, encodeTIFF(t, src)},
	} {
		t.Run(tc.contentType, func(t *testing.T) {
			img, err := p.DecodeImage(models.ImagePart{Field: "image16", ContentType: tc.contentType, BitDepth: models.BitDepth16, Data: tc.data})
			require.NoError(t, err)
			assert.Equal(t, 8, img.Width)
			assert.Equal(t, 4, img.Height)
			assert.Equal(t, 1, img.Channels)
			assert.Equal(t, models.BitDepth16, img.BitDepth)
		})
	}
}

func TestDecodeImage_Errors(t *testing.T) {
	p := NewImageProcessor(DefaultMaxImagePixels)
	png8 := encodePNG(t, image.NewGray(image.Rect(0, 0, 4, 4)))

	testCases := []struct {
		name string
		part models.ImagePart
	}{
		{
			name: "corrupt data",
			part: models.ImagePart{Field: "image8", ContentType: ContentTypePNG, BitDepth: models.BitDepth8, Data: []byte("not an image")},
		},
		{
			name: "truncated png",
			part: models.ImagePart{Field: "image8", ContentType: ContentTypePNG, BitDepth: models.BitDepth8, Data: png8[:len(png8)/2]},
		},
		{
			name: "declared tiff but png bytes",
			part: models.ImagePart{Field: "image8", ContentType: ContentTypeTIFF, BitDepth: models.BitDepth8, Data: png8},
		},
		{
			name: "expected 16-bit got 8-bit",
			part: models.ImagePart{Field: "image16", ContentType: ContentTypePNG, BitDepth: models.BitDepth16, Data: png8},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			img, err := p.DecodeImage(tc.part)
			require.Error(t, err)
			assert.Nil(t, img)
			assert.Equal(t, apperrors.KindDecodeError, apperrors.KindOf(err))
		})
	}
}

// pngHeaderOnly builds a PNG whose IHDR declares the given size but whose
// IDAT chunk carries no pixel data.
func pngHeaderOnly(width, height uint32, bitDepth, colorType byte) []byte {
	buf := &bytes.Buffer{}
	buf.WriteString("\x89PNG\r\n\x1a\n")

	chunk := func(kind string, data []byte) {
		_ = binary.Write(buf, binary.BigEndian, uint32(len(data)))
		crc := crc32.NewIEEE()
		crc.Write([]byte(kind))
		crc.Write(data)
		buf.WriteString(kind)
		buf.Write(data)
		_ = binary.Write(buf, binary.BigEndian, crc.Sum32())
	}

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], width)
	binary.BigEndian.PutUint32(ihdr[4:8], height)
	ihdr[8] = bitDepth
	ihdr[9] = colorType
	chunk("IHDR", ihdr)
	chunk("IDAT", nil)
	chunk("IEND", nil)
	return buf.Bytes()
}

func TestDecodeImage_RejectsOversizedDimensions(t *testing.T) {
	testCases := []struct {
		name      string
		maxPixels int64
		data      []byte
		bitDepth  models.BitDepth
	}{
		{
			name:      "20000x20000 gray16 with empty IDAT",
			maxPixels: DefaultMaxImagePixels,
			data:      pngHeaderOnly(20000, 20000, 16, 0),
			bitDepth:  models.BitDepth16,
		},
		{
			name:      "65535x65535 rgba64",
			maxPixels: DefaultMaxImagePixels,
			data:      pngHeaderOnly(65535, 65535, 16, 6),
			bitDepth:  models.BitDepth16,
		},
		{
			name:      "real image one pixel over budget",
			maxPixels: 15,
			data:      encodePNG(t, image.NewGray(image.Rect(0, 0, 4, 4))),
			bitDepth:  models.BitDepth8,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewImageProcessor(tc.maxPixels)
			part := models.ImagePart{Field: "image16", ContentType: ContentTypePNG, BitDepth: tc.bitDepth, Data: tc.data}

			img, err := p.DecodeImage(part)
			require.Error(t, err)
			assert.Nil(t, img)
			assert.Equal(t, apperrors.KindDecodeError, apperrors.KindOf(err))

			var appErr *apperrors.Error
			require.ErrorAs(t, err, &appErr)
			assert.Contains(t, appErr.Reason, "pixel limit")
		})
	}
}

func TestDecodeImage_WithinPixelBudget(t *testing.T) {
	p := NewImageProcessor(16)
	part := models.ImagePart{
		Field:       "image8",
		ContentType: ContentTypePNG,
		BitDepth:    models.BitDepth8,
		Data:        encodePNG(t, image.NewGray(image.Rect(0, 0, 4, 4))),
	}

	img, err := p.DecodeImage(part)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Width)
	assert.Equal(t, 4, img.Height)
}

func TestEncodePNG_PreservesDepthAndSize(t *testing.T) {
	p := NewImageProcessor(DefaultMaxImagePixels)

	src := image.NewNRGBA64(image.Rect(0, 0, 12, 7))
	decoded := &models.DecodedImage{Width: 12, Height: 7, Channels: 4, BitDepth: models.BitDepth16, Pixels: src}

	buf, err := p.EncodePNG(decoded)
	require.NoError(t, err)

	again, err := p.DecodeImage(models.ImagePart{Field: "image16", ContentType: ContentTypePNG, BitDepth: models.BitDepth16, Data: buf.Bytes()})
	require.NoError(t, err)
	assert.Equal(t, 12, again.Width)
	assert.Equal(t, 7, again.Height)
}
