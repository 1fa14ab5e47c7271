// Package container is the per-service dependency-injection base: it wires
// config, logging, a pgx pool, the domain-event publisher, and the HTTP
// server lifecycle, leaving route registration and schema migration to the
// owning service. Grounded on the teacher's internal/pkg/components
// package, split out of its one-container-per-monolith shape into a base
// every one of the four services composes with its own store/service/
// httpapi layer.
package container

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"digitalbank/internal/platform/config"
	"digitalbank/internal/platform/events"
	"digitalbank/internal/platform/logging"
)

// Base holds the components common to every service binary.
type Base struct {
	Config    *config.Config
	DB        *pgxpool.Pool
	Publisher events.Publisher
	Router    *gin.Engine
	Server    *http.Server
}

// New builds the Base for the given service name: loads config, initializes
// logging, opens the pgx pool, and wires a Kafka publisher (or a no-op
// fallback if Kafka is disabled or unreachable at startup).
func New(ctx context.Context, serviceName string) (*Base, error) {
	cfg := config.Load(serviceName)
	logging.Init(serviceName, cfg.Logging.Level, cfg.Logging.Format)

	pool, err := pgxpool.New(ctx, cfg.Database.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("container: open database pool: %w", err)
	}
	pool.Config().MaxConns = cfg.Database.MaxOpenConns
	pool.Config().MinConns = cfg.Database.MaxIdleConns
	pool.Config().MaxConnLifetime = cfg.Database.ConnMaxLifetime

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("container: ping database: %w", err)
	}
	logging.Info("database pool initialized", map[string]interface{}{
		"host": cfg.Database.Host, "database": cfg.Database.Database,
	})

	publisher := buildPublisher(cfg)

	if os.Getenv("GIN_MODE") == "" && cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	return &Base{
		Config:    cfg,
		DB:        pool,
		Publisher: publisher,
		Router:    router,
	}, nil
}

func buildPublisher(cfg *config.Config) events.Publisher {
	if !cfg.Kafka.Enabled {
		logging.Info("kafka disabled, using no-op event publisher", nil)
		return events.NewNoOpPublisher()
	}
	kafkaCfg := events.DefaultKafkaConfig(cfg.Kafka.Brokers, cfg.Kafka.ClientID)
	publisher, err := events.NewKafkaPublisher(kafkaCfg)
	if err != nil {
		logging.Warn("failed to initialize kafka, using no-op event publisher", map[string]interface{}{
			"error": err.Error(),
		})
		return events.NewNoOpPublisher()
	}
	return publisher
}

// Serve finalizes the HTTP server around the Base's router and blocks until
// a SIGINT/SIGTERM triggers a graceful shutdown.
func (b *Base) Serve() error {
	b.Server = &http.Server{
		Addr:           b.Config.Server.Addr(),
		Handler:        b.Router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logging.Info("starting http server", map[string]interface{}{"address": b.Server.Addr})
		if err := b.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("server failed to start", err, nil)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info("shutting down server", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return b.Shutdown(ctx)
}

// Shutdown gracefully stops the HTTP server, closes the event publisher,
// and closes the database pool.
func (b *Base) Shutdown(ctx context.Context) error {
	if b.Server != nil {
		if err := b.Server.Shutdown(ctx); err != nil {
			return fmt.Errorf("container: server shutdown: %w", err)
		}
	}
	if b.Publisher != nil {
		if err := b.Publisher.Close(); err != nil {
			logging.Error("failed to close event publisher", err, nil)
		}
	}
	b.DB.Close()
	logging.Info("shutdown complete", nil)
	return nil
}
