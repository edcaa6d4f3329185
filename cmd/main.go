package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/mouthful-app/mouthful/config"
	"github.com/mouthful-app/mouthful/db"
	authhandler "github.com/mouthful-app/mouthful/internal/auth/handler"
	authrepo "github.com/mouthful-app/mouthful/internal/auth/repository/postgres"
	authservice "github.com/mouthful-app/mouthful/internal/auth/service"
	mediahandler "github.com/mouthful-app/mouthful/internal/media/handler"
	mediarepo "github.com/mouthful-app/mouthful/internal/media/repository/postgres"
	mediaservice "github.com/mouthful-app/mouthful/internal/media/service"
	metadatahandler "github.com/mouthful-app/mouthful/internal/metadata/handler"
	"github.com/mouthful-app/mouthful/internal/metadata/igdb"
	"github.com/mouthful-app/mouthful/internal/metadata/twitch"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("failed to load configuration")
	}

	ctx := context.Background()

	if err := db.RunMigrations(ctx, cfg.DBURL); err != nil {
		logger.WithError(err).Fatal("failed to run migrations")
	}

	pool, err := db.NewPostgresPool(ctx, cfg.DBURL)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := authrepo.NewPostgresRepository(pool)
	tokenService := authservice.NewTokenService(cfg.AccessTokenSecret, cfg.AccessExpiryMin, cfg.RefreshExpiryDays)
	userService := authservice.NewUserService(userRepo, tokenService)
	authHandler := authhandler.NewAuthHandler(userService, tokenService, cfg.CookieDomain, logger)

	entryRepo := mediarepo.NewPostgresRepository(pool)
	entryService := mediaservice.NewEntryService(entryRepo)
	mediaHandler := mediahandler.NewMediaHandler(entryService, logger)

	// The Twitch token cache is one injected instance, not module state.
	tokenSource := twitch.NewTokenSource(cfg.TwitchClientID, cfg.TwitchClientSecret, cfg.TwitchTokenURL, nil, logger)
	igdbClient := igdb.NewClient(cfg.IGDBBaseURL, cfg.TwitchClientID, tokenSource, nil, logger)
	metadataHandler := metadatahandler.NewMetadataHandler(igdbClient, logger)

	app := fiber.New()
	app.Use(requestLogger(logger))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	authhandler.RegisterRoutes(app, authHandler)
	mediahandler.RegisterRoutes(app, mediaHandler, tokenService)
	metadatahandler.RegisterRoutes(app, metadataHandler, tokenService)

	go func() {
		logger.WithField("port", cfg.Port).Info("starting server")
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.WithError(err).Error("forced shutdown")
	}
	logger.Info("server exited")
}

func requestLogger(logger *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		logger.WithFields(logrus.Fields{
			"method":   c.Method(),
			"path":     c.Path(),
			"status":   c.Response().StatusCode(),
			"duration": time.Since(start).String(),
		}).Info("request")

		return err
	}
}
