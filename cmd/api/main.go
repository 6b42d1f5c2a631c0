package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/exam-api/internal/answerkey"
	"github.com/noah-isme/exam-api/internal/config"
	"github.com/noah-isme/exam-api/internal/handler"
	"github.com/noah-isme/exam-api/internal/middleware"
	"github.com/noah-isme/exam-api/internal/router"
	"github.com/noah-isme/exam-api/internal/service"
	"github.com/noah-isme/exam-api/pkg/blobstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	store, err := buildStore(cfg, logger)
	if err != nil {
		log.Fatalf("failed to create object store: %v", err)
	}

	key := answerkey.Default()
	if cfg.AnswerKeyPath != "" {
		key, err = answerkey.LoadFile(cfg.AnswerKeyPath)
		if err != nil {
			log.Fatalf("failed to load answer key: %v", err)
		}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	intakeService := service.NewIntakeService(store, cfg.MaxUploadBytes, cfg.MaxArchiveBytes, logger)
	gradingService := service.NewGradingService(store, key, cfg.GradingWorkers, cfg.GradingItemTimeout, cfg.MaxArchiveBytes, logger)
	downloadService := service.NewDownloadService(store, logger)

	submitHandler := handler.NewSubmitHandler(intakeService, logger)
	gradingHandler := handler.NewGradingHandler(gradingService, logger)
	downloadHandler := handler.NewDownloadHandler(downloadService, validate, cfg.GradingSecret, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    int(cfg.MaxUploadBytes) + 1024*1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		SubmitHandler:   submitHandler,
		GradingHandler:  gradingHandler,
		DownloadHandler: downloadHandler,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func buildStore(cfg config.Config, logger zerolog.Logger) (blobstore.Store, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		logger.Warn().Msg("using in-memory object store; submissions will not survive restarts")
		return blobstore.NewMemory(cfg.PublicBaseURL), nil
	}

	return blobstore.NewS3(context.Background(), blobstore.S3Config{
		Bucket:        cfg.S3Bucket,
		Region:        cfg.S3Region,
		Endpoint:      cfg.S3Endpoint,
		PublicBaseURL: cfg.PublicBaseURL,
	}, logger)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
