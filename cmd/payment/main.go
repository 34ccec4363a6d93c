package main

import (
	"fulfillment/internal/api"
	"fulfillment/internal/app"
	"fulfillment/internal/broker"
	"fulfillment/internal/service"
)

func main() {
	a := app.New("payment")
	cfg := a.Config

	producer := broker.NewProducer(cfg.Kafka.Brokers)
	a.OnClose(producer.Close)
	publisher := broker.NewEventPublisher(producer, broker.Topics{
		Order:    cfg.Kafka.TopicOrder,
		Payment:  cfg.Kafka.TopicPayment,
		Shipping: cfg.Kafka.TopicShipping,
	})

	payments := service.NewPaymentService(publisher)

	router := api.NewRouter(nil, api.NewPaymentHandler(payments))
	a.Serve(router)
}
