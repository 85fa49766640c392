package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-ingest/internal/config"
	"github.com/phambaophuc/image-ingest/internal/http/handlers"
	"github.com/phambaophuc/image-ingest/internal/http/middleware"
	mw "github.com/phambaophuc/image-ingest/internal/middleware"
	"github.com/phambaophuc/image-ingest/internal/services/auth"
	"go.uber.org/zap"
)

// multipartOverhead covers part headers and boundaries on top of the file ceilings.
const multipartOverhead = 1 << 20

type Router struct {
	imageHandler  *handlers.ImageHandler
	healthHandler *handlers.HealthHandler
	verifier      auth.Verifier
	config        *config.Config
	logger        *zap.Logger
}

func NewRouter(
	imageHandler *handlers.ImageHandler,
	healthHandler *handlers.HealthHandler,
	verifier auth.Verifier,
	config *config.Config,
	logger *zap.Logger,
) *Router {
	return &Router{
		imageHandler:  imageHandler,
		healthHandler: healthHandler,
		verifier:      verifier,
		config:        config,
		logger:        logger,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = r.config.Server.MaxMultipartMemory
	_ = router.SetTrustedProxies(nil)

	router.Use(mw.Logger(r.logger))
	router.Use(middleware.ErrorHandler(r.logger))
	router.Use(mw.SecurityHeaders())

	router.GET("/", r.imageHandler.Index)

	// API version 1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", r.healthHandler.HealthCheck)

		secured := v1.Group("")
		secured.Use(middleware.BasicAuth(r.verifier, r.logger))
		secured.Use(middleware.ValidateMultipart(r.maxBodySize()))
		{
			secured.POST("/inference", r.imageHandler.Inference)
			secured.POST("/upload", r.imageHandler.Upload)
		}
	}

	return router
}

// Handler wraps the routes with the CORS policy.
func (r *Router) Handler() http.Handler {
	return mw.CORS(r.config.Server.AllowedOrigins).Handler(r.SetupRoutes())
}

// An upload carries at most two images and one metadata document.
func (r *Router) maxBodySize() int64 {
	return 2*r.config.Storage.MaxFileSize + r.config.Storage.MaxMetadataSize + multipartOverhead
}
