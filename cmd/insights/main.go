package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	natsadapter "github.com/samirrijal/tourmap/internal/adapters/nats"
	"github.com/samirrijal/tourmap/internal/core/ports"
	"github.com/samirrijal/tourmap/internal/core/usecases"
	"github.com/samirrijal/tourmap/internal/pkg/config"
	"github.com/samirrijal/tourmap/internal/pkg/logging"
	"github.com/samirrijal/tourmap/internal/pkg/metrics"
)

// insights consumes explorer events from JetStream and exposes the
// aggregates on /metrics and /v1/insights.
func main() {
	cfg, err := config.Load("tourmap-insights")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL, "tourmap-insights")
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer sub.Close()

	insights := usecases.NewInsights()
	if err := consume(ctx, sub, insights); err != nil {
		log.Fatalf("subscribe: %v", err)
	}
	slog.Info("consuming explorer events", "stream", natsadapter.StreamExplorerEvents)

	app := fiber.New(fiber.Config{DisableStartupMessage: true, AppName: "Tourmap Insights"})
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())
	app.Get("/v1/insights", func(c *fiber.Ctx) error {
		n := c.QueryInt("top", 10)
		if n <= 0 || n > 100 {
			n = 10
		}
		return c.JSON(insights.Snapshot(n))
	})

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("insights server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutting down", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}
}

func consume(ctx context.Context, sub ports.EventSubscriber, in *usecases.Insights) error {
	return sub.SubscribeExplorerEvents(ctx, in.Handle)
}
