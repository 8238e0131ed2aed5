package mq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/config"
)

func TestParseBrokers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"a:9092", "b:9092"}, ParseBrokers(" a:9092, ,b:9092,"))
	assert.Nil(t, ParseBrokers(""))
}

func TestNewPublisher(t *testing.T) {
	t.Parallel()

	p, err := NewPublisher(config.EventsConfig{Broker: config.BrokerNone}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = NewPublisher(config.EventsConfig{Broker: config.BrokerKafka, KafkaBrokers: "localhost:9092", KafkaTopic: "events"}, zap.NewNop())
	require.NoError(t, err)
	require.IsType(t, &KafkaPublisher{}, p)
	assert.NoError(t, p.Close())

	_, err = NewPublisher(config.EventsConfig{Broker: config.BrokerKafka, KafkaBrokers: " , "}, zap.NewNop())
	assert.Error(t, err)
}
