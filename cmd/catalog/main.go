package main

import (
	"context"

	"fulfillment/internal/api"
	"fulfillment/internal/app"
	"fulfillment/internal/auth"
	"fulfillment/internal/service"
	"fulfillment/internal/store"
)

func main() {
	a := app.New("catalog")
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

	inventory := service.NewInventoryService(db)
	verifier := auth.NewVerifier(cfg.Auth.JWTSecret)

	router := api.NewRouter(map[string]api.ReadyCheck{"postgres": db.Ping},
		api.NewCatalogHandler(inventory, verifier, cfg.Services.InternalKey))
	a.Serve(router)
}
