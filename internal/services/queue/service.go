package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/phambaophuc/image-ingest/internal/models"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// Publisher announces committed uploads to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event *models.ImageIngested) error
	HealthCheck() string
	Close() error
}

// amqpChannel is the part of *amqp.Channel the publisher uses.
type amqpChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	QueueInspect(name string) (amqp.Queue, error)
	Close() error
}

type amqpConnection interface {
	IsClosed() bool
	Close() error
}

type AMQPPublisher struct {
	mu          sync.Mutex
	conn        amqpConnection
	channel     amqpChannel
	openChannel func() (amqpChannel, error)
	logger      *zap.Logger
	queueName   string
}

func NewAMQPPublisher(rabbitmqURL, queueName string, logger *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(rabbitmqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	// Declare queue
	_, err = channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &AMQPPublisher{
		conn:    conn,
		channel: channel,
		openChannel: func() (amqpChannel, error) {
			ch, err := conn.Channel()
			if err != nil {
				return nil, err
			}
			return ch, nil
		},
		logger:    logger,
		queueName: queueName,
	}, nil
}

// NewPublisher connects to RabbitMQ when a URL is configured. Without one, or
// when the broker is unreachable, events are dropped by a NoopPublisher.
func NewPublisher(rabbitmqURL, queueName string, logger *zap.Logger) Publisher {
	if rabbitmqURL == "" {
		logger.Info("RABBITMQ_URL not set, ingest events will not be published")
		return NoopPublisher{}
	}

	publisher, err := NewAMQPPublisher(rabbitmqURL, queueName, logger)
	if err != nil {
		logger.Warn("Failed to initialize queue publisher, ingest events will not be published", zap.Error(err))
		return NoopPublisher{}
	}
	return publisher
}

// Close closes the queue connection
func (q *AMQPPublisher) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.channel != nil {
		q.channel.Close()
		q.channel = nil
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}

// NoopPublisher discards events.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *models.ImageIngested) error { return nil }

func (NoopPublisher) HealthCheck() string { return "disabled" }

func (NoopPublisher) Close() error { return nil }
