package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phambaophuc/image-ingest/internal/models"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

func NewImageIngested(requestID int64, clientIP string, images []models.StoredImage) *models.ImageIngested {
	return &models.ImageIngested{
		EventID:    uuid.NewString(),
		RequestID:  requestID,
		ClientIP:   clientIP,
		Images:     images,
		IngestedAt: time.Now().UTC(),
	}
}

func buildPublishing(event *models.ImageIngested) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal event: %w", err)
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    event.EventID,
		Type:         "image.ingested",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.IngestedAt,
	}, nil
}

func (q *AMQPPublisher) Publish(ctx context.Context, event *models.ImageIngested) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := buildPublishing(event)
	if err != nil {
		return err
	}

	q.mu.Lock()
	err = q.publish(msg)
	q.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	q.logger.Info("Ingest event published",
		zap.String("event_id", event.EventID),
		zap.Int64("request_id", event.RequestID),
	)
	return nil
}

// publish sends msg on the shared channel. The broker closes a channel on
// any channel-level error, so a closed channel is reopened once before
// giving up. Callers hold q.mu.
func (q *AMQPPublisher) publish(msg amqp.Publishing) error {
	if q.channel == nil {
		if err := q.reopenChannel(); err != nil {
			return err
		}
	}

	err := q.channel.Publish(
		"",          // exchange
		q.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		msg,
	)
	if !errors.Is(err, amqp.ErrClosed) {
		return err
	}

	q.logger.Warn("Queue channel closed, reopening")
	if err := q.reopenChannel(); err != nil {
		return err
	}
	return q.channel.Publish("", q.queueName, false, false, msg)
}

func (q *AMQPPublisher) reopenChannel() error {
	if q.conn == nil || q.conn.IsClosed() {
		return amqp.ErrClosed
	}

	if q.channel != nil {
		_ = q.channel.Close()
		q.channel = nil
	}

	ch, err := q.openChannel()
	if err != nil {
		return fmt.Errorf("failed to reopen channel: %w", err)
	}
	q.channel = ch
	return nil
}
