package main

import (
	"context"

	"fulfillment/internal/api"
	"fulfillment/internal/app"
	"fulfillment/internal/auth"
	"fulfillment/internal/broker"
	"fulfillment/internal/clients"
	"fulfillment/internal/models"
	"fulfillment/internal/redisclient"
	"fulfillment/internal/service"
	"fulfillment/internal/store"
	"fulfillment/internal/worker"
)

func main() {
	a := app.New("order")
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

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		a.Fatal("Failed to connect to Redis", err)
	}
	a.OnClose(redisClient.Close)
	a.Logger.Info("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers)
	a.OnClose(producer.Close)
	publisher := broker.NewEventPublisher(producer, broker.Topics{
		Order:    cfg.Kafka.TopicOrder,
		Payment:  cfg.Kafka.TopicPayment,
		Shipping: cfg.Kafka.TopicShipping,
	})

	catalog := clients.NewCatalogClient(cfg.Services.CatalogBase, cfg.Services.InternalKey, cfg.Services.HTTPTimeout)
	shipping := clients.NewShippingClient(cfg.Services.ShippingBase, cfg.Services.InternalKey, cfg.Services.HTTPTimeout)

	orderService := service.NewOrderService(db, redisClient, redisClient, catalog, shipping,
		cfg.Business.Currency, cfg.Business.CheckoutLockTTL)
	saga := service.NewSagaOrchestrator(db, catalog)

	consumer := broker.NewConsumer(cfg.Kafka.Brokers, []string{cfg.Kafka.TopicPayment}, cfg.Kafka.ConsumerGroup, cfg.Business.ConsumerRetries)
	orderWorker := worker.NewOrderWorker(consumer, saga)
	a.Go("order-events", orderWorker.Start)
	a.OnClose(orderWorker.Stop)

	relay := worker.NewOutboxWorker(db, publisher, models.AggregateOrder, cfg.Business.OutboxInterval, cfg.Business.OutboxBatch)
	a.Go("order-outbox", relay.Start)

	verifier := auth.NewVerifier(cfg.Auth.JWTSecret)
	router := api.NewRouter(map[string]api.ReadyCheck{"postgres": db.Ping, "redis": redisClient.Ping},
		api.NewOrderHandler(orderService, verifier))
	a.Serve(router)
}
