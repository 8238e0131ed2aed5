package mq

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/config"
)

// Publisher forwards JSON events to a message broker.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
	Close() error
}

// NewPublisher builds the publisher selected by cfg.Broker. It returns nil when no
// broker is configured.
func NewPublisher(cfg config.EventsConfig, logger *zap.Logger) (Publisher, error) {
	switch cfg.Broker {
	case config.BrokerAMQP:
		p, err := NewRabbitPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		logger.Info("forwarding events to rabbitmq", zap.String("exchange", cfg.AMQPExchange))
		return p, nil
	case config.BrokerKafka:
		brokers := ParseBrokers(cfg.KafkaBrokers)
		if len(brokers) == 0 || cfg.KafkaTopic == "" {
			return nil, fmt.Errorf("kafka brokers and topic are required")
		}
		logger.Info("forwarding events to kafka", zap.Strings("brokers", brokers), zap.String("topic", cfg.KafkaTopic))
		return NewKafkaPublisher(brokers, cfg.KafkaTopic), nil
	default:
		return nil, nil
	}
}
