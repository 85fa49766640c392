package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-ingest/internal/apperrors"
	mw "github.com/phambaophuc/image-ingest/internal/middleware"
	"github.com/phambaophuc/image-ingest/internal/models"
	"github.com/phambaophuc/image-ingest/internal/services/processor"
	"github.com/phambaophuc/image-ingest/pkg/utils"
	"go.uber.org/zap"
)

type imageField struct {
	name     string
	required bool
	depth    models.BitDepth
}

func (h *ImageHandler) inferenceFields() []imageField {
	return []imageField{
		{name: inferenceImageKey, required: true, depth: models.BitDepth16},
	}
}

func (h *ImageHandler) uploadFields() []imageField {
	return []imageField{
		{name: image8Key, required: true, depth: models.BitDepth8},
		{name: image16Key, required: false, depth: models.BitDepth16},
	}
}

// === REQUEST PARSING ===

func (h *ImageHandler) parseForm(c *gin.Context) (*multipart.Form, error) {
	if err := c.Request.ParseMultipartForm(h.config.Server.MaxMultipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, apperrors.Wrap(apperrors.KindTooLarge, "", "request body too large", err)
		}
		return nil, apperrors.Wrap(apperrors.KindMissingField, "", "failed to parse multipart form", err)
	}
	return c.Request.MultipartForm, nil
}

// formFile returns the file part for field. A part sent without a filename
// is stored by net/http as a plain value, which means no file was selected.
func formFile(form *multipart.Form, field string) (*multipart.FileHeader, error) {
	if files := form.File[field]; len(files) > 0 {
		return files[0], nil
	}
	if _, ok := form.Value[field]; ok {
		return nil, apperrors.New(apperrors.KindEmptyFilename, field, "no selected file")
	}
	return nil, nil
}

func present(form *multipart.Form, field string) bool {
	_, isValue := form.Value[field]
	return len(form.File[field]) > 0 || isValue
}

// requireFields checks presence of every required part before any part is validated.
func requireFields(form *multipart.Form, fields ...string) error {
	for _, field := range fields {
		if !present(form, field) {
			return apperrors.Newf(apperrors.KindMissingField, field, "no '%s' file part in the request", field)
		}
	}
	return nil
}

func (h *ImageHandler) extractImages(form *multipart.Form, fields []imageField) ([]models.ImagePart, error) {
	policy := processor.ImagePolicy(h.config.Storage.MaxFileSize)
	parts := make([]models.ImagePart, 0, len(fields))

	for _, f := range fields {
		if !f.required && !present(form, f.name) {
			continue
		}

		header, err := formFile(form, f.name)
		if err != nil {
			return nil, err
		}

		data, err := h.processor.ValidateFile(f.name, header, policy)
		if err != nil {
			return nil, err
		}

		h.logger.Debug("Validated image part",
			zap.String("field", f.name),
			zap.String("file", processor.DescribeFile(header)),
		)

		parts = append(parts, models.ImagePart{
			Field:       f.name,
			Filename:    header.Filename,
			ContentType: processor.DeclaredContentType(header),
			BitDepth:    f.depth,
			Data:        data,
		})
	}

	return parts, nil
}

func (h *ImageHandler) extractMetadata(form *multipart.Form) ([]byte, error) {
	header, err := formFile(form, metadataKey)
	if err != nil {
		return nil, err
	}
	return h.processor.ValidateFile(metadataKey, header, processor.MetadataPolicy(h.config.Storage.MaxMetadataSize))
}

// === RESPONSE HANDLING ===

// respondError maps err to its status. Client errors carry the field and
// reason; server errors are opaque and logged with their cause.
func (h *ImageHandler) respondError(c *gin.Context, err error) {
	kind := apperrors.KindOf(err)
	status := apperrors.HTTPStatus(kind)

	var appErr *apperrors.Error
	field, reason := "", ""
	if errors.As(err, &appErr) {
		field, reason = appErr.Field, appErr.Reason
	}

	c.Set(mw.ContextErrorKind, string(kind))
	c.Set(mw.ContextField, field)

	fields := []zap.Field{
		zap.String("kind", string(kind)),
		zap.String("field", field),
		zap.String("path", c.Request.URL.Path),
		zap.Int64("content_length", c.Request.ContentLength),
		zap.String("content_length_human", utils.HumanSize(c.Request.ContentLength)),
		zap.Error(err),
	}

	if !apperrors.IsClientError(kind) {
		h.logger.Error("Request failed", fields...)
		c.AbortWithStatusJSON(status, models.MessageResponse{Message: "Internal Server Error"})
		return
	}

	h.logger.Warn("Request rejected", fields...)
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Message: reason,
		Field:   field,
		Error:   string(kind),
	})
}
