package main

import (
	"fulfillment/internal/api"
	"fulfillment/internal/app"
	"fulfillment/internal/auth"
	"fulfillment/internal/broker"
	"fulfillment/internal/notify"
	"fulfillment/internal/redisclient"
	"fulfillment/internal/service"
	"fulfillment/internal/worker"
)

func main() {
	a := app.New("notifications")
	cfg := a.Config

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		a.Fatal("Failed to connect to Redis", err)
	}
	a.OnClose(redisClient.Close)
	a.Logger.Info("Redis connected")

	sender := notify.NewSMTPSender(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.From)
	notifications := service.NewNotificationService(sender, redisClient, redisClient,
		cfg.Business.EmailCacheTTL, cfg.Business.DedupTTL)

	consumer := broker.NewConsumer(cfg.Kafka.Brokers,
		[]string{cfg.Kafka.TopicOrder, cfg.Kafka.TopicPayment, cfg.Kafka.TopicShipping},
		cfg.Kafka.ConsumerGroup, cfg.Business.ConsumerRetries)
	notificationWorker := worker.NewNotificationWorker(consumer, notifications)
	a.Go("notification-events", notificationWorker.Start)
	a.OnClose(notificationWorker.Stop)

	verifier := auth.NewVerifier(cfg.Auth.JWTSecret)
	router := api.NewRouter(map[string]api.ReadyCheck{"redis": redisClient.Ping},
		api.NewNotificationHandler(notifications, verifier, cfg.Services.InternalKey))
	a.Serve(router)
}
