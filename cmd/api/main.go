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
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/barrierfree/internal/adapters/http"
	natsadapter "github.com/samirrijal/barrierfree/internal/adapters/nats"
	"github.com/samirrijal/barrierfree/internal/adapters/osrm"
	"github.com/samirrijal/barrierfree/internal/adapters/photon"
	"github.com/samirrijal/barrierfree/internal/adapters/postgres"
	"github.com/samirrijal/barrierfree/internal/adapters/valkey"
	"github.com/samirrijal/barrierfree/internal/adapters/wheelmap"
	"github.com/samirrijal/barrierfree/internal/core/domain"
	"github.com/samirrijal/barrierfree/internal/core/ports"
	"github.com/samirrijal/barrierfree/internal/core/usecases"
	"github.com/samirrijal/barrierfree/internal/pkg/config"
	"github.com/samirrijal/barrierfree/internal/pkg/logging"
	"github.com/samirrijal/barrierfree/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("barrierfree-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logger := logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go db.ReportPoolStats(ctx, 15*time.Second)

	deps := &http.Dependencies{
		Map:    cfg.Map,
		Logger: logger,
		DB:     db,
	}

	// Cache
	var cache ports.CacheService
	if c, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable, serving nodes uncached", "error", err)
	} else {
		defer c.Close()
		cache = c
		deps.Cache = c
	}

	// NATS
	var publisher ports.EventPublisher
	if p, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, map events stay local", "error", err)
	} else {
		defer p.Close()
		publisher = p
		deps.Publisher = p
		deps.NATS = p
	}

	// Upstreams
	source := wheelmap.New(cfg.Wheelmap.URL, cfg.Wheelmap.APIKey, cfg.Wheelmap.PerPage, cfg.Wheelmap.RequestTimeout())
	router := osrm.New(cfg.OSRM.URL, cfg.OSRM.RequestTimeout())
	geocoder := photon.New(cfg.Photon.URL, cfg.Photon.RequestTimeout())

	// Use cases
	overrides := postgres.NewAccessibilityRepo(db)
	deps.Nodes = usecases.NewNodeService(source, overrides, cache, publisher, cfg.Valkey.NodesTTL)
	deps.Routes = usecases.NewRouteService(router)
	deps.Router = router
	deps.Sessions = usecases.NewSessionRegistry()
	deps.Search = usecases.NewSearchService(geocoder, cache, cfg.Photon.Lang, cfg.Photon.CacheTTL)

	// Every instance refreshes its own open maps when any instance stores
	// an override.
	if sub, err := natsadapter.NewSubscriber(cfg.NATS.URL); err != nil {
		slog.Warn("nats subscriber unavailable, overrides refresh local maps only", "error", err)
	} else {
		defer sub.Close()
		err := sub.SubscribeNodesUpdated(ctx, func(ctx context.Context, point domain.GeoPoint) error {
			n, err := deps.Sessions.RefreshWhere(ctx, point)
			if n > 0 {
				slog.Info("maps refreshed after override", "sessions", n, "lat", point.Lat, "lon", point.Lon)
			}
			return err
		})
		if err != nil {
			slog.Warn("subscribe nodes-updated failed", "error", err)
		}
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Barrier Free API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     "GET,POST,PUT,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped", "open_sessions", deps.Sessions.Len())
}
