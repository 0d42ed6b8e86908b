package workflows

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/barrierfree/internal/core/domain"
	"github.com/samirrijal/barrierfree/internal/core/usecases"
	"github.com/samirrijal/barrierfree/internal/pkg/metrics"
)

// WarmupActivities holds the activity implementations for the warm-up
// workflow.
type WarmupActivities struct {
	Nodes *usecases.NodeService
}

// WarmBBox fetches one box from Wheelmap into the cache and returns the
// number of nodes stored. A malformed box is not retried.
func (a *WarmupActivities) WarmBBox(ctx context.Context, bbox string) (int, error) {
	bounds, err := domain.ParseBounds(bbox)
	if err != nil {
		metrics.WarmupRuns.WithLabelValues("invalid").Inc()
		return 0, temporal.NewNonRetryableApplicationError("invalid bbox", "InvalidBBox", err)
	}

	n, err := a.Nodes.Warm(ctx, bounds)
	if err != nil {
		metrics.WarmupRuns.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("warm %s: %w", bbox, err)
	}

	activity.GetLogger(ctx).Info("bbox warmed", "bbox", bbox, "nodes", n)
	metrics.WarmupRuns.WithLabelValues("ok").Inc()
	return n, nil
}
