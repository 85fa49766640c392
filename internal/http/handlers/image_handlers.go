package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-ingest/internal/config"
	"github.com/phambaophuc/image-ingest/internal/models"
	"github.com/phambaophuc/image-ingest/internal/services/ingest"
	"github.com/phambaophuc/image-ingest/internal/services/processor"
	"go.uber.org/zap"
)

const (
	inferenceImageKey = "image"
	image8Key         = "image8"
	image16Key        = "image16"
	metadataKey       = ingest.MetadataField
)

type ImageHandler struct {
	processor *processor.ImageProcessor
	ingest    *ingest.Service
	logger    *zap.Logger
	config    *config.Config
}

func NewImageHandler(
	processor *processor.ImageProcessor,
	ingest *ingest.Service,
	logger *zap.Logger,
	config *config.Config,
) *ImageHandler {
	return &ImageHandler{
		processor: processor,
		ingest:    ingest,
		logger:    logger,
		config:    config,
	}
}

// === MAIN API ENDPOINTS ===

func (h *ImageHandler) Index(c *gin.Context) {
	c.String(http.StatusOK, "Image ingest service is running")
}

// Inference accepts one 16-bit image and returns a placeholder prediction.
func (h *ImageHandler) Inference(c *gin.Context) {
	form, err := h.parseForm(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	parts, err := h.extractImages(form, h.inferenceFields())
	if err != nil {
		h.respondError(c, err)
		return
	}

	predictions, err := h.ingest.Predict(parts[0])
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.PredictionResponse{Predictions: predictions})
}

// Upload validates, stores and records an 8-bit image, an optional 16-bit
// image and their metadata.
func (h *ImageHandler) Upload(c *gin.Context) {
	form, err := h.parseForm(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := requireFields(form, image8Key, metadataKey); err != nil {
		h.respondError(c, err)
		return
	}

	parts, err := h.extractImages(form, h.uploadFields())
	if err != nil {
		h.respondError(c, err)
		return
	}

	metadata, err := h.extractMetadata(form)
	if err != nil {
		h.respondError(c, err)
		return
	}

	result, err := h.ingest.Ingest(c.Request.Context(), &models.UploadRequest{
		ClientIP: c.ClientIP(),
		Images:   parts,
		Metadata: metadata,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.logger.Info("Upload accepted",
		zap.Int64("request_id", result.RequestID),
		zap.Int("images", len(result.Images)),
	)

	c.JSON(http.StatusOK, models.MessageResponse{Message: "success!"})
}
