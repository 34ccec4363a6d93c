package main

import (
	"fulfillment/internal/api"
	"fulfillment/internal/app"
	"fulfillment/internal/auth"
	"fulfillment/internal/clients"
	"fulfillment/internal/redisclient"
	"fulfillment/internal/service"
)

func main() {
	a := app.New("cart")
	cfg := a.Config

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		a.Fatal("Failed to connect to Redis", err)
	}
	a.OnClose(redisClient.Close)
	a.Logger.Info("Redis connected")

	catalog := clients.NewCatalogClient(cfg.Services.CatalogBase, cfg.Services.InternalKey, cfg.Services.HTTPTimeout)
	carts := service.NewCartService(redisClient, catalog)
	verifier := auth.NewVerifier(cfg.Auth.JWTSecret)

	router := api.NewRouter(map[string]api.ReadyCheck{"redis": redisClient.Ping},
		api.NewCartHandler(carts, verifier))
	a.Serve(router)
}
