package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/renren-chavez/MatchUpBack/internal/config"
	"github.com/renren-chavez/MatchUpBack/internal/database"
	"github.com/renren-chavez/MatchUpBack/internal/routes"
	dashws "github.com/renren-chavez/MatchUpBack/internal/websocket"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Error("invalid timezone", "timezone", cfg.Timezone, "err", err)
		os.Exit(1)
	}

	if cfg.DBUrl == "" {
		log.Error("DB_URL is required")
		os.Exit(1)
	}
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.DBUrl)
	if err != nil {
		log.Error("failed to connect to database", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	hub := dashws.NewHub(log)
	go hub.Run()

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	bookingService, err := routes.RegisterRoutes(app, cfg, pool, hub, log, loc)
	if err != nil {
		log.Error("failed to register routes", "err", err)
		os.Exit(1)
	}

	go bookingService.RunExpirySweeper(ctx, cfg.ExpirySweepEvery)

	log.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Error("server failed", "err", err)
		os.Exit(1)
	}
}
