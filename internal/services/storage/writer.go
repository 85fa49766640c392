package storage

import (
	"bytes"
	"context"
	"sync"

	"github.com/phambaophuc/image-ingest/internal/apperrors"
	"github.com/phambaophuc/image-ingest/internal/models"
	"github.com/phambaophuc/image-ingest/pkg/utils"
	"go.uber.org/zap"
)

const pngContentType = "image/png"

type Encoder interface {
	EncodePNG(img *models.DecodedImage) (*bytes.Buffer, error)
}

// Writer encodes decoded images as PNG and stores each under a fresh key.
type Writer struct {
	store   ObjectStore
	encoder Encoder
	logger  *zap.Logger
}

func NewWriter(store ObjectStore, encoder Encoder, logger *zap.Logger) *Writer {
	return &Writer{store: store, encoder: encoder, logger: logger}
}

func (w *Writer) Store() ObjectStore {
	return w.store
}

// WriteAll stores every image concurrently. Results keep the input order.
// If any write fails, the blobs that were written are removed before the
// first error is returned.
func (w *Writer) WriteAll(ctx context.Context, images []*models.DecodedImage) ([]models.StoredImage, error) {
	if len(images) == 0 {
		return []models.StoredImage{}, nil
	}

	stored := make([]models.StoredImage, len(images))
	errs := make([]error, len(images))

	numWorkers := 3
	if len(images) < numWorkers {
		numWorkers = len(images)
	}

	jobs := make(chan int, len(images))
	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				stored[idx], errs[idx] = w.write(ctx, images[idx])
			}
		}()
	}

	for i := range images {
		jobs <- i
	}
	close(jobs)

	wg.Wait()

	var firstErr error
	written := make([]models.StoredImage, 0, len(images))
	for i, err := range errs {
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		written = append(written, stored[i])
	}

	if firstErr != nil {
		w.Remove(ctx, written)
		return nil, firstErr
	}

	return stored, nil
}

func (w *Writer) write(ctx context.Context, img *models.DecodedImage) (models.StoredImage, error) {
	buffer, err := w.encoder.EncodePNG(img)
	if err != nil {
		return models.StoredImage{}, apperrors.Wrap(apperrors.KindStorageWriteError, img.Field, "failed to encode image", err)
	}

	key, err := utils.GenerateStorageKey(".png")
	if err != nil {
		return models.StoredImage{}, apperrors.Wrap(apperrors.KindStorageWriteError, img.Field, "failed to allocate storage key", err)
	}

	uri, err := w.store.Put(ctx, key, buffer.Bytes(), pngContentType)
	if err != nil {
		return models.StoredImage{}, apperrors.Wrap(apperrors.KindStorageWriteError, img.Field, "failed to write image to storage", err)
	}

	w.logger.Debug("Stored image",
		zap.String("field", img.Field),
		zap.String("uri", uri),
		zap.Int("size", buffer.Len()),
		zap.String("size_human", utils.HumanSize(int64(buffer.Len()))),
	)

	return models.StoredImage{
		Field:    img.Field,
		Key:      key,
		URI:      uri,
		BitDepth: img.BitDepth,
		Width:    img.Width,
		Height:   img.Height,
		Size:     int64(buffer.Len()),
	}, nil
}

// Remove deletes previously stored blobs. Failures are logged, not returned.
func (w *Writer) Remove(ctx context.Context, images []models.StoredImage) {
	ctx = context.WithoutCancel(ctx)
	for _, img := range images {
		if err := w.store.Delete(ctx, img.Key); err != nil {
			w.logger.Error("Failed to remove orphaned blob",
				zap.String("field", img.Field),
				zap.String("uri", img.URI),
				zap.Error(err),
			)
			continue
		}
		w.logger.Info("Removed orphaned blob", zap.String("field", img.Field), zap.String("uri", img.URI))
	}
}
