// Package kafka публикует события виджета (переписка, изменения настроек) в Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// Типы событий
const (
	EventChatExchanged   = "chat.exchanged"
	EventSettingsUpdated = "settings.updated"
)

// Event: сообщение в топике событий виджета.
type Event struct {
	Type      string    `json:"type"`
	CompanyID string    `json:"companyId"`
	PublicKey string    `json:"publicKey"`
	At        time.Time `json:"at"`
	Payload   any       `json:"payload,omitempty"`
}

// Publisher отправляет события. Ошибка публикации не должна ломать запрос виджета.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Options: подключение к брокерам.
type Options struct {
	Brokers  []string
	Topic    string
	Username string
	Password string
}

// NewSaramaConfig собирает конфигурацию синхронного продюсера.
func NewSaramaConfig(opts Options) *sarama.Config {
	config := sarama.NewConfig()
	config.Version = sarama.V2_8_0_0
	config.ClientID = "answer24-widget-server"

	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	config.Producer.Return.Successes = true
	// события одной компании попадают в одну партицию по ключу
	config.Producer.Partitioner = sarama.NewHashPartitioner

	if opts.Username != "" {
		config.Net.SASL.Enable = true
		config.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		config.Net.SASL.User = opts.Username
		config.Net.SASL.Password = opts.Password
		config.Net.SASL.Handshake = true
	}
	return config
}

// Producer: Publisher поверх sarama.SyncProducer.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

// NewProducer подключается к брокерам.
func NewProducer(opts Options, logger *zap.Logger) (*Producer, error) {
	producer, err := sarama.NewSyncProducer(opts.Brokers, NewSaramaConfig(opts))
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return NewProducerFrom(producer, opts.Topic, logger), nil
}

// NewProducerFrom оборачивает готовый SyncProducer (например, mocks.SyncProducer).
func NewProducerFrom(producer sarama.SyncProducer, topic string, logger *zap.Logger) *Producer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Producer{producer: producer, topic: topic, logger: logger}
}

func (p *Producer) Publish(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(ev.CompanyID),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event-type"), Value: []byte(ev.Type)},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("send %s event: %w", ev.Type, err)
	}

	p.logger.Debug("событие отправлено в kafka",
		zap.String("type", ev.Type),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

func (p *Producer) Close() error {
	return p.producer.Close()
}

// Noop: Publisher для окружений без Kafka.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }
