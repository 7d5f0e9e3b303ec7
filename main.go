package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"

	"medcard_backend/internals/configs"
	"medcard_backend/internals/constants"
	database "medcard_backend/internals/databases"
	scheduler "medcard_backend/internals/features/users/auth/scheduler"
	helper "medcard_backend/internals/helpers"
	middlewares "medcard_backend/internals/middlewares"
	routes "medcard_backend/internals/route"
	"medcard_backend/internals/seeds"
)

func main() {
	configs.LoadEnv()
	cfg := configs.App

	app := fiber.New(fiber.Config{
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"},
		ErrorHandler:            helper.FromFiberError,
	})

	middlewares.SetupMiddlewares(app, cfg)

	// request timing, keyed by the id set in SetupMiddlewares
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()
		c.SetUserContext(ctx)
		err := c.Next()
		log.Printf("[REQ] id=%v %s %s status=%d dur=%s",
			c.Locals(constants.LocalRequest), c.Method(), c.OriginalURL(), c.Response().StatusCode(), time.Since(start))
		return err
	})

	// 🔌 DB connect + pool + migrate + warm-up
	database.ConnectDB(cfg)
	database.TunePool()
	if err := database.AutoMigrate(database.DB); err != nil {
		log.Fatalf("❌ migrate: %v", err)
	}
	database.WarmUpQueries()

	if cfg.Seed {
		log.Println("[INFO] SEED=true, loading demo data...")
		seeds.RunAllSeeds(database.DB, cfg.SeedDir)
	}

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	scheduler.StartCleanupScheduler(bgCtx, database.DB, cfg)

	routes.SetupRoutes(app, database.DB)

	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	go func() {
		log.Printf("✅ Listening on :%s", cfg.Port)
		if err := app.Listen("0.0.0.0:" + cfg.Port); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown + close DB pool
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	stopBackground()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)

	if sqlDB, err := database.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
