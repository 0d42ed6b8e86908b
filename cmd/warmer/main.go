package main

import (
	"context"
	"errors"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/barrierfree/internal/adapters/valkey"
	"github.com/samirrijal/barrierfree/internal/adapters/wheelmap"
	"github.com/samirrijal/barrierfree/internal/core/ports"
	"github.com/samirrijal/barrierfree/internal/core/usecases"
	"github.com/samirrijal/barrierfree/internal/pkg/config"
	"github.com/samirrijal/barrierfree/internal/pkg/logging"
	"github.com/samirrijal/barrierfree/internal/workflows"
)

const scheduleID = "barrierfree-node-warmup"

func main() {
	cfg, err := config.Load("barrierfree-warmer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	// Warming without a cache would only load Wheelmap.
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		log.Fatalf("valkey: %v", err)
	}
	defer cache.Close()

	var store ports.CacheService = cache
	source := wheelmap.New(cfg.Wheelmap.URL, cfg.Wheelmap.APIKey, cfg.Wheelmap.PerPage, cfg.Wheelmap.RequestTimeout())
	nodes := usecases.NewNodeService(source, nil, store, nil, cfg.Valkey.NodesTTL)

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	if err := ensureSchedule(context.Background(), c, cfg.Temporal); err != nil {
		log.Fatalf("schedule: %v", err)
	}

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.WarmupWorkflow)
	w.RegisterActivity(&workflows.WarmupActivities{Nodes: nodes})

	slog.Info("warmer worker started", "task_queue", cfg.Temporal.TaskQueue, "every", cfg.Temporal.WarmupInterval().String(), "bboxes", len(cfg.Temporal.WarmupBBoxes))
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

// ensureSchedule creates the periodic warm-up run. A schedule left by a
// previous start is kept as is.
func ensureSchedule(ctx context.Context, c client.Client, cfg config.TemporalConfig) error {
	_, err := c.ScheduleClient().Create(ctx, client.ScheduleOptions{
		ID: scheduleID,
		Spec: client.ScheduleSpec{
			Intervals: []client.ScheduleIntervalSpec{{Every: cfg.WarmupInterval()}},
		},
		Action: &client.ScheduleWorkflowAction{
			ID:        scheduleID + "-run",
			Workflow:  workflows.WarmupWorkflow,
			Args:      []interface{}{workflows.WarmupInput{BBoxes: cfg.WarmupBBoxes}},
			TaskQueue: cfg.TaskQueue,
		},
		TriggerImmediately: true,
	})
	if errors.Is(err, temporal.ErrScheduleAlreadyRunning) {
		slog.Info("warm-up schedule already exists", "schedule_id", scheduleID)
		return nil
	}
	return err
}
