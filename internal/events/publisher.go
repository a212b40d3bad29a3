// Package events публикует доменные события системы учёта показаний в RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/mmeshcher/meter-reading-system/internal/model"
)

// RoutingKeyReadingAccepted задаёт ключ маршрутизации события о принятом показании.
const RoutingKeyReadingAccepted = "meter.reading.accepted"

// ReadingAccepted описывает событие о сохранённом показании.
type ReadingAccepted struct {
	ReadingID  string `json:"reading_id"`
	MeterID    string `json:"meter_id"`
	UserID     string `json:"user_id"`
	Value      string `json:"value"`
	RecordedAt string `json:"recorded_at"`
}

// NewReadingAccepted формирует событие по сохранённому показанию.
func NewReadingAccepted(r model.Reading) ReadingAccepted {
	return ReadingAccepted{
		ReadingID:  r.ID.String(),
		MeterID:    r.MeterID.String(),
		UserID:     r.UserID.String(),
		Value:      r.Value.StringFixed(2),
		RecordedAt: r.RecordedAt.UTC().Format(time.RFC3339),
	}
}

// Publisher публикует события о показаниях.
type Publisher interface {
	PublishReadingAccepted(ctx context.Context, event ReadingAccepted) error
	Close() error
}

// NoopPublisher отбрасывает события; используется, когда брокер не настроен.
type NoopPublisher struct{}

// PublishReadingAccepted ничего не делает.
func (NoopPublisher) PublishReadingAccepted(context.Context, ReadingAccepted) error { return nil }

// Close ничего не делает.
func (NoopPublisher) Close() error { return nil }

// AMQPPublisher публикует события в topic-exchange RabbitMQ.
type AMQPPublisher struct {
	conn     *amqp.Connection
	mu       sync.Mutex
	channel  *amqp.Channel
	exchange string
	logger   *zap.Logger
}

// NewAMQPPublisher подключается к RabbitMQ и объявляет exchange.
func NewAMQPPublisher(url, exchange string, logger *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPPublisher{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
		logger:   logger,
	}, nil
}

// PublishReadingAccepted публикует событие о принятом показании.
func (p *AMQPPublisher) PublishReadingAccepted(ctx context.Context, event ReadingAccepted) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		RoutingKeyReadingAccepted,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	p.logger.Debug("published reading event",
		zap.String("routing_key", RoutingKeyReadingAccepted),
		zap.String("reading_id", event.ReadingID),
		zap.String("meter_id", event.MeterID),
	)

	return nil
}

// Close закрывает канал и соединение.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.logger.Warn("close rabbitmq channel", zap.Error(err))
		}
	}
	return p.conn.Close()
}
