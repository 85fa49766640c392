package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-ingest/internal/models"
	"github.com/phambaophuc/image-ingest/internal/services/queue"
	"github.com/phambaophuc/image-ingest/internal/services/storage"
)

type DatabaseChecker interface {
	HealthCheck(ctx context.Context) string
}

type HealthHandler struct {
	database  DatabaseChecker
	store     storage.ObjectStore
	publisher queue.Publisher
}

func NewHealthHandler(database DatabaseChecker, store storage.ObjectStore, publisher queue.Publisher) *HealthHandler {
	return &HealthHandler{database: database, store: store, publisher: publisher}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	services := map[string]string{
		"database": h.database.HealthCheck(ctx),
		"storage":  storage.HealthCheck(ctx, h.store),
		"queue":    h.publisher.HealthCheck(),
	}
	overall := calculateOverallHealth(services)

	statusCode := http.StatusOK
	if overall == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, models.HealthCheck{
		Status:    overall,
		Timestamp: time.Now(),
		Services:  services,
	})
}

func calculateOverallHealth(services map[string]string) string {
	for _, status := range services {
		if status != "healthy" && status != "disabled" {
			return "unhealthy"
		}
	}
	return "healthy"
}
