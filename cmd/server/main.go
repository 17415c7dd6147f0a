package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/tandoor/internal/config"
	"github.com/example/tandoor/internal/database"
	"github.com/example/tandoor/internal/routes"
	"github.com/example/tandoor/internal/ws"
)

func main() {
	cfg := config.Load()
	db := database.Connect(cfg.DatabaseURL)
	database.Seed(db)

	app := fiber.New(fiber.Config{
		AppName: "Tandoor POS",
	})

	app.Use(recover.New())
	app.Use(logger.New())

	hub := ws.NewHub()
	go hub.Run()

	routes.Register(app, db, cfg, hub)

	log.Printf("Starting server on :%s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}
}
