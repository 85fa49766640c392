package middleware

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-ingest/internal/apperrors"
	mw "github.com/phambaophuc/image-ingest/internal/middleware"
	"github.com/phambaophuc/image-ingest/internal/models"
)

// ValidateMultipart rejects requests that are not multipart/form-data and caps
// the request body at maxBody bytes.
func ValidateMultipart(maxBody int64) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		mediaType, _, err := mime.ParseMediaType(ctx.GetHeader("Content-Type"))
		if err != nil || mediaType != "multipart/form-data" {
			ctx.Set(mw.ContextErrorKind, string(apperrors.KindMissingField))
			ctx.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{
				Message: "request must be multipart/form-data",
				Error:   string(apperrors.KindMissingField),
			})
			return
		}

		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxBody)
		ctx.Next()
	}
}
