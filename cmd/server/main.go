package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rabbitmq/amqp091-go"

	"github.com/Rithanya654/Generic-RAG/internal/app"
	"github.com/Rithanya654/Generic-RAG/internal/config"
	"github.com/Rithanya654/Generic-RAG/internal/queue"
	"github.com/Rithanya654/Generic-RAG/internal/server"
	"github.com/Rithanya654/Generic-RAG/internal/storage"
	"github.com/Rithanya654/Generic-RAG/internal/util"
	pgxstore "github.com/Rithanya654/Generic-RAG/pkg/graphstore/pgx"
	"github.com/Rithanya654/Generic-RAG/pkg/logger"
	"github.com/Rithanya654/Generic-RAG/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: util.GetEnvBool("DEBUG", false),
	}))

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", "err", err)
	}

	store, err := pgxstore.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to graph store", "err", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		logger.Fatal("Failed to migrate graph store", "err", err)
	}

	chain, err := app.NewAIChain(cfg)
	if err != nil {
		logger.Fatal("Failed to build AI chain", "err", err)
	}

	// The queue is optional; without it only inline query routes work.
	var ch *amqp091.Channel
	if cfg.RabbitMQHost != "" {
		conn, err := queue.Init(ctx, cfg)
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", "err", err)
		}
		defer conn.Close()

		ch, err = conn.Channel()
		if err != nil {
			logger.Fatal("Failed to open channel", "err", err)
		}
		defer ch.Close()

		if err := queue.SetupQueues(ch, []string{queue.IndexQueue}); err != nil {
			logger.Fatal("Failed to set up queues", "err", err)
		}
	}

	// S3 is optional; without it the upload endpoints answer 503.
	s3Client, err := storage.NewS3Client(ctx)
	if err != nil {
		logger.Warn("S3 unavailable, uploads disabled", "err", err)
		s3Client = nil
	}

	srv := server.New(cfg, store, chain, ch, s3Client)
	if err := srv.Run(ctx); err != nil {
		logger.Fatal("Server failed", "err", err)
	}
}
