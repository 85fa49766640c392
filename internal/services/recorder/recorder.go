package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/phambaophuc/image-ingest/internal/apperrors"
	"github.com/phambaophuc/image-ingest/internal/config"
	"github.com/phambaophuc/image-ingest/internal/models"
	"go.uber.org/zap"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Recorder persists accepted uploads: one request row and one image row per
// stored image, written in a single transaction.
type Recorder struct {
	db      *sql.DB
	dialect dialect
	logger  *zap.Logger
}

func Open(cfg config.DatabaseConfig, logger *zap.Logger) (*Recorder, error) {
	d, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.driver, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &Recorder{db: db, dialect: d, logger: logger}, nil
}

func (r *Recorder) Close() error {
	return r.db.Close()
}

func (r *Recorder) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Migrate creates the request and image tables if they do not exist.
func (r *Recorder) Migrate(ctx context.Context) error {
	for _, stmt := range r.dialect.schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate %s schema: %w", r.dialect.name, err)
		}
	}
	return nil
}

// Record inserts the request row and then the image rows. The connection is
// held for the whole call and returned to the pool on every path.
func (r *Recorder) Record(ctx context.Context, clientIP string, images []models.StoredImage, annotation []byte) (int64, error) {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.KindPersistenceError, "", "failed to acquire database connection", err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.KindPersistenceError, "", "failed to begin transaction", err)
	}
	defer tx.Rollback()

	var requestID int64
	if err := tx.QueryRowContext(ctx, r.dialect.insertRequest, clientIP).Scan(&requestID); err != nil {
		return 0, apperrors.Wrap(apperrors.KindPersistenceError, "", "failed to insert request", err)
	}

	for _, img := range images {
		var imageID int64
		err := tx.QueryRowContext(ctx, r.dialect.insertImage,
			img.URI, int(img.BitDepth), img.Height, img.Width, string(annotation), requestID, sql.NullInt64{},
		).Scan(&imageID)
		if err != nil {
			return 0, apperrors.Wrap(apperrors.KindPersistenceError, img.Field, "failed to insert image", err)
		}

		r.logger.Debug("Recorded image",
			zap.Int64("request_id", requestID),
			zap.Int64("image_id", imageID),
			zap.String("storage_path", img.URI),
		)
	}

	if err := tx.Commit(); err != nil {
		return 0, apperrors.Wrap(apperrors.KindPersistenceError, "", "failed to commit transaction", err)
	}

	return requestID, nil
}

// HealthCheck reports the database status in the form used by the health endpoint.
func (r *Recorder) HealthCheck(ctx context.Context) string {
	if err := r.Ping(ctx); err != nil {
		return "unhealthy: " + err.Error()
	}
	return "healthy"
}
