// Package server exposes the query API over HTTP. Indexing is enqueued,
// never run inline; answering reads the graph directly.
package server

import (
	"context"
	"net/http"
	"time"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rabbitmq/amqp091-go"

	"github.com/Rithanya654/Generic-RAG/internal/config"
	"github.com/Rithanya654/Generic-RAG/pkg/ai"
	"github.com/Rithanya654/Generic-RAG/pkg/graphstore"
	"github.com/Rithanya654/Generic-RAG/pkg/logger"
)

type customValidator struct {
	validator *validator.Validate
}

func (cv *customValidator) Validate(i any) error {
	return cv.validator.Struct(i)
}

// Server holds the API's collaborators.
type Server struct {
	cfg   *config.Config
	store graphstore.GraphStorage
	ai    ai.Client
	// ch is optional; without it the index and upload endpoints answer 503.
	ch *amqp091.Channel
	// s3 is optional; without it the upload and document-delete endpoints
	// refuse object operations.
	s3 *awss3.Client
}

// New assembles a Server. ch and s3 may be nil when no queue or bucket is
// configured.
func New(cfg *config.Config, store graphstore.GraphStorage, client ai.Client, ch *amqp091.Channel, s3 *awss3.Client) *Server {
	return &Server{cfg: cfg, store: store, ai: client, ch: ch, s3: s3}
}

// Run starts the HTTP server and blocks until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &customValidator{validator: validator.New()}

	e.Use(echomw.CORS())
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	s.registerRoutes(e)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("[Server] starting", "port", s.cfg.ServerPort)
		if err := e.Start(":" + s.cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("[Server] failed to shut down cleanly", "err", err)
		return err
	}
	return nil
}
