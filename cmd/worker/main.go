package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Rithanya654/Generic-RAG/internal/app"
	"github.com/Rithanya654/Generic-RAG/internal/config"
	"github.com/Rithanya654/Generic-RAG/internal/queue"
	"github.com/Rithanya654/Generic-RAG/internal/storage"
	"github.com/Rithanya654/Generic-RAG/internal/util"
	"github.com/Rithanya654/Generic-RAG/pkg/chunker"
	"github.com/Rithanya654/Generic-RAG/pkg/graph"
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

	chain, err := app.NewAIChain(cfg)
	if err != nil {
		logger.Fatal("Failed to build AI chain", "err", err)
	}

	ch, err := chunker.New(chunker.NewParams{
		Encoder:      cfg.Encoder,
		ChunkSize:    cfg.ChunkSize,
		Overlap:      cfg.ChunkOverlap,
		MaxChunkSize: cfg.MaxChunkSize,
	})
	if err != nil {
		logger.Fatal("Failed to create chunker", "err", err)
	}
	pipeline := graph.NewPipeline(cfg, store, chain, ch)

	// S3 is optional; local-path jobs work without it.
	s3Client, err := storage.NewS3Client(ctx)
	if err != nil {
		logger.Warn("S3 unavailable, only local paths will index", "err", err)
		s3Client = nil
	}

	conn, err := queue.Init(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}
	defer conn.Close()

	pubCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer pubCh.Close()

	if err := queue.SetupQueues(pubCh, []string{queue.IndexQueue}); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	// Prefetch 1: one document indexes at a time per worker.
	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	if err := consumerCh.Qos(1, 0, false); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	msgs, err := consumerCh.Consume(
		queue.IndexQueue,
		"index_consumer",
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "err", err)
	}

	logger.Info("Listening for index jobs")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown signal received, exiting...")
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Info("Message channel closed")
				return
			}

			start := time.Now()
			err := queue.ProcessIndexMessage(ctx, s3Client, pipeline, msg.Body)
			if err != nil {
				logger.Error("Error processing index job", "err", err)
				queue.HandleProcessingError(consumerCh, msg, queue.IndexQueue)
				continue
			}

			if err := msg.Ack(false); err != nil {
				logger.Error("Failed to ack message", "err", err)
			}
			logger.Info("Index job finished", "duration", time.Since(start).Round(time.Second))
		}
	}
}
