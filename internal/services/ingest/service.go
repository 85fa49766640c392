package ingest

import (
	"context"

	"github.com/phambaophuc/image-ingest/internal/models"
	"github.com/phambaophuc/image-ingest/internal/services/queue"
	"go.uber.org/zap"
)

const MetadataField = "metadata"

type Decoder interface {
	DecodeImage(part models.ImagePart) (*models.DecodedImage, error)
}

type MetadataValidator interface {
	Validate(field string, data []byte) (*models.Metadata, []byte, error)
}

type BlobWriter interface {
	WriteAll(ctx context.Context, images []*models.DecodedImage) ([]models.StoredImage, error)
	Remove(ctx context.Context, images []models.StoredImage)
}

type Recorder interface {
	Record(ctx context.Context, clientIP string, images []models.StoredImage, annotation []byte) (int64, error)
}

type Service struct {
	decoder   Decoder
	metadata  MetadataValidator
	writer    BlobWriter
	recorder  Recorder
	publisher queue.Publisher
	logger    *zap.Logger
}

func NewService(
	decoder Decoder,
	metadata MetadataValidator,
	writer BlobWriter,
	recorder Recorder,
	publisher queue.Publisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		decoder:   decoder,
		metadata:  metadata,
		writer:    writer,
		recorder:  recorder,
		publisher: publisher,
		logger:    logger,
	}
}

type Result struct {
	RequestID int64
	Images    []models.StoredImage
	Metadata  *models.Metadata
}

// Ingest decodes every image, validates the metadata, writes the blobs and
// records them. Nothing is written before all inputs have been checked, and
// blobs are removed again if the database transaction fails.
func (s *Service) Ingest(ctx context.Context, req *models.UploadRequest) (*Result, error) {
	decoded := make([]*models.DecodedImage, 0, len(req.Images))
	for _, part := range req.Images {
		img, err := s.decoder.DecodeImage(part)
		if err != nil {
			return nil, err
		}
		s.logger.Info("Decoded image",
			zap.String("field", part.Field),
			zap.String("filename", part.Filename),
			zap.Int("width", img.Width),
			zap.Int("height", img.Height),
			zap.Int("channels", img.Channels),
			zap.Int("bit_depth", int(img.BitDepth)),
		)
		decoded = append(decoded, img)
	}

	meta, annotation, err := s.metadata.Validate(MetadataField, req.Metadata)
	if err != nil {
		return nil, err
	}

	stored, err := s.writer.WriteAll(ctx, decoded)
	if err != nil {
		return nil, err
	}

	requestID, err := s.recorder.Record(ctx, req.ClientIP, stored, annotation)
	if err != nil {
		s.writer.Remove(ctx, stored)
		return nil, err
	}

	s.logger.Info("Upload recorded",
		zap.Int64("request_id", requestID),
		zap.String("client_ip", req.ClientIP),
		zap.Int("images", len(stored)),
	)

	event := queue.NewImageIngested(requestID, req.ClientIP, stored)
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Error("Failed to publish ingest event",
			zap.Int64("request_id", requestID),
			zap.Error(err),
		)
	}

	return &Result{RequestID: requestID, Images: stored, Metadata: meta}, nil
}

// Predict decodes the image and returns the placeholder prediction.
func (s *Service) Predict(part models.ImagePart) ([]int, error) {
	img, err := s.decoder.DecodeImage(part)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Inference image decoded",
		zap.String("field", part.Field),
		zap.Int("width", img.Width),
		zap.Int("height", img.Height),
		zap.Int("bit_depth", int(img.BitDepth)),
	)

	return []int{1, 2, 3}, nil
}
