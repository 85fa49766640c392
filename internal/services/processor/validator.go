package processor

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/phambaophuc/image-ingest/internal/apperrors"
)

// ValidateFile runs the file checks in a fixed order and stops at the first
// failure: presence, filename, extension, declared content type, then size.
// On success it returns the full file contents.
func (p *ImageProcessor) ValidateFile(field string, header *multipart.FileHeader, policy FilePolicy) ([]byte, error) {
	if header == nil {
		return nil, apperrors.Newf(apperrors.KindMissingField, field, "no '%s' file part in the request", field)
	}

	if header.Filename == "" {
		return nil, apperrors.New(apperrors.KindEmptyFilename, field, "no selected file")
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !policy.allowsExtension(ext) {
		return nil, apperrors.Newf(apperrors.KindBadExtension, field,
			"file extension %q is not one of %s", ext, strings.Join(policy.Extensions, ", "))
	}

	contentType := DeclaredContentType(header)
	if !policy.allowsContentType(contentType) {
		return nil, apperrors.Newf(apperrors.KindBadContentType, field,
			"content type %q is not one of %s", contentType, strings.Join(policy.ContentTypes, ", "))
	}

	file, err := header.Open()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, field, "open uploaded file", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, policy.MaxSize+1))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, field, "read uploaded file", err)
	}

	if int64(len(data)) > policy.MaxSize {
		return nil, apperrors.Newf(apperrors.KindTooLarge, field,
			"file too large: exceeds maximum allowed size of %d bytes", policy.MaxSize)
	}

	return data, nil
}

// DeclaredContentType returns the media type the client declared for the part,
// without parameters. The value is trusted as sent; nothing is sniffed.
func DeclaredContentType(header *multipart.FileHeader) string {
	raw := header.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return mediaType
}

// DescribeFile is used in log fields.
func DescribeFile(header *multipart.FileHeader) string {
	if header == nil {
		return "<absent>"
	}
	return fmt.Sprintf("%s (%s, %d bytes)", header.Filename, DeclaredContentType(header), header.Size)
}
