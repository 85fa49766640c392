package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-ingest/internal/apperrors"
	mw "github.com/phambaophuc/image-ingest/internal/middleware"
	"github.com/phambaophuc/image-ingest/internal/models"
	"github.com/phambaophuc/image-ingest/internal/services/auth"
	"go.uber.org/zap"
)

const realm = `Basic realm="Login Required"`

// BasicAuth admits a request only when its Basic credentials are accepted by
// the verifier. Handlers behind it never run for unauthenticated requests.
func BasicAuth(verifier auth.Verifier, logger *zap.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		username, password, ok := ctx.Request.BasicAuth()
		if ok {
			valid, err := verifier.Verify(ctx.Request.Context(), username, password)
			if err != nil {
				logger.Error("Credential check failed", zap.String("username", username), zap.Error(err))
				ctx.Set(mw.ContextErrorKind, string(apperrors.KindInternal))
				ctx.AbortWithStatusJSON(http.StatusInternalServerError, models.MessageResponse{
					Message: "Internal Server Error",
				})
				return
			}
			if valid {
				ctx.Set(mw.ContextUsername, username)
				ctx.Next()
				return
			}
		}

		ctx.Set(mw.ContextErrorKind, string(apperrors.KindUnauthorized))
		ctx.Header("WWW-Authenticate", realm)
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, models.MessageResponse{
			Message: "Authentication required",
		})
	}
}
