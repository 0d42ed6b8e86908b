package http

import (
	"context"
	"log/slog"

	"github.com/samirrijal/barrierfree/internal/core/ports"
	"github.com/samirrijal/barrierfree/internal/core/usecases"
	"github.com/samirrijal/barrierfree/internal/pkg/config"
)

// Checker is a dependency probed by the readiness endpoint.
type Checker interface {
	Ping(ctx context.Context) error
}

// Connectivity reports the broker link state.
type Connectivity interface {
	IsConnected() bool
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Nodes    *usecases.NodeService
	Routes   *usecases.RouteService
	Sessions *usecases.SessionRegistry
	Search   *usecases.SearchService

	// Router and Publisher are handed to each websocket map session.
	Router    ports.Router
	Publisher ports.EventPublisher

	Map    config.MapConfig
	Logger *slog.Logger

	DB    Checker
	Cache Checker
	NATS  Connectivity
}

func (d *Dependencies) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}
