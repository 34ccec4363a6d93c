package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load("shipping")

	assert.Equal(t, "8005", cfg.Server.Port)
	assert.Equal(t, "shipping-service", cfg.Kafka.ConsumerGroup)
	assert.Equal(t, "order.events", cfg.Kafka.TopicOrder)
	assert.Equal(t, "payment.events", cfg.Kafka.TopicPayment)
	assert.Equal(t, "shipping.events", cfg.Kafka.TopicShipping)
	assert.Equal(t, "DemoCarrier", cfg.Business.Carrier)
	assert.Equal(t, "USD", cfg.Business.Currency)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("CATALOG_BASE", "http://catalog:8000/")
	t.Setenv("OUTBOX_INTERVAL", "2s")
	t.Setenv("OUTBOX_BATCH", "not-a-number")

	cfg := Load("order")

	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "http://catalog:8000", cfg.Services.CatalogBase)
	assert.Equal(t, 2*time.Second, cfg.Business.OutboxInterval)
	assert.Equal(t, 50, cfg.Business.OutboxBatch)
}
