package main

import (
	"log"

	"vehicle-admin/internal/config"
	"vehicle-admin/internal/database"
	"vehicle-admin/internal/media"
	"vehicle-admin/internal/server"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	store, err := media.NewStorage(cfg.MediaPath)
	if err != nil {
		log.Fatalf("Media storage could not be prepared: %v", err)
	}
	signer := media.NewSigner(cfg.JWTSecret, cfg.SignedURLTTL, cfg.PublicBaseURL)

	app := server.New(cfg, store, signer)

	log.Printf("Server listening on :%s", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
