package events

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Publisher отправляет доменные события внешним потребителям
// (уведомления, realtime-рассылка). Доставка fire-and-forget:
// ошибка публикации никогда не откатывает породившую её операцию.
type Publisher interface {
	Publish(subject string, event any) error
	Close()
}

// NatsPublisher публикует события в NATS в формате JSON
type NatsPublisher struct {
	conn   *nats.Conn
	logger *zap.Logger
}

func NewNatsPublisher(natsURL string, logger *zap.Logger) (*NatsPublisher, error) {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	return &NatsPublisher{conn: nc, logger: logger}, nil
}

func (p *NatsPublisher) Publish(subject string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish to nats: %w", err)
	}

	p.logger.Debug("Event published",
		zap.String("subject", subject),
		zap.Int("payload_bytes", len(payload)),
	)

	return nil
}

func (p *NatsPublisher) Close() {
	p.conn.Close()
}

// NopPublisher используется когда NATS не сконфигурирован
type NopPublisher struct{}

func (NopPublisher) Publish(subject string, event any) error { return nil }

func (NopPublisher) Close() {}
