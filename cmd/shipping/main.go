package main

import (
	"context"

	"fulfillment/internal/api"
	"fulfillment/internal/app"
	"fulfillment/internal/auth"
	"fulfillment/internal/broker"
	"fulfillment/internal/models"
	"fulfillment/internal/service"
	"fulfillment/internal/store"
	"fulfillment/internal/worker"
)

func main() {
	a := app.New("shipping")
	cfg := a.Config

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		a.Fatal("Failed to connect to database", err)
	}
	a.OnClose(db.Close)
	if err := db.EnsureSchema(context.Background()); err != nil {
		a.Fatal("Failed to apply schema", err)
	}
	a.Logger.Info("Database connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers)
	a.OnClose(producer.Close)
	publisher := broker.NewEventPublisher(producer, broker.Topics{
		Order:    cfg.Kafka.TopicOrder,
		Payment:  cfg.Kafka.TopicPayment,
		Shipping: cfg.Kafka.TopicShipping,
	})

	shipping := service.NewShippingService(db, cfg.Business.Carrier)

	consumer := broker.NewConsumer(cfg.Kafka.Brokers,
		[]string{cfg.Kafka.TopicOrder, cfg.Kafka.TopicPayment},
		cfg.Kafka.ConsumerGroup, cfg.Business.ConsumerRetries)
	shippingWorker := worker.NewShippingWorker(consumer, shipping)
	a.Go("shipping-events", shippingWorker.Start)
	a.OnClose(shippingWorker.Stop)

	relay := worker.NewOutboxWorker(db, publisher, models.AggregateShipment, cfg.Business.OutboxInterval, cfg.Business.OutboxBatch)
	a.Go("shipping-outbox", relay.Start)

	verifier := auth.NewVerifier(cfg.Auth.JWTSecret)
	router := api.NewRouter(map[string]api.ReadyCheck{"postgres": db.Ping},
		api.NewShippingHandler(shipping, verifier, cfg.Services.InternalKey))
	a.Serve(router)
}
