package workflows

import (
	"errors"
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
	"go.uber.org/multierr"
)

// WarmBBoxActivity is the registered name of WarmupActivities.WarmBBox.
const WarmBBoxActivity = "WarmBBox"

// ErrNothingWarmed is returned when every box of a run failed.
var ErrNothingWarmed = errors.New("warm-up: no bounding box could be warmed")

// WarmupInput is the input for the warm-up workflow.
type WarmupInput struct {
	// BBoxes are "minLon,minLat,maxLon,maxLat" boxes.
	BBoxes []string
}

// WarmupResult summarises one warm-up run.
type WarmupResult struct {
	Warmed int
	Failed int
	Nodes  int
}

// WarmupWorkflow refreshes the node cache of every configured box in
// parallel so that the first map to open over a popular area is served
// from Valkey. Individual failures are logged; the run only fails when no
// box could be warmed.
func WarmupWorkflow(ctx workflow.Context, input WarmupInput) (WarmupResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting warm-up workflow", "bboxes", len(input.BBoxes))

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: time.Second,
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	futures := make([]workflow.Future, len(input.BBoxes))
	for i, bbox := range input.BBoxes {
		futures[i] = workflow.ExecuteActivity(ctx, WarmBBoxActivity, bbox)
	}

	var result WarmupResult
	var errs error
	for i, f := range futures {
		var n int
		if err := f.Get(ctx, &n); err != nil {
			result.Failed++
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", input.BBoxes[i], err))
			continue
		}
		result.Warmed++
		result.Nodes += n
	}

	if errs != nil {
		logger.Warn("warm-up finished with failures", "failed", result.Failed, "error", errs)
	}
	if result.Warmed == 0 && result.Failed > 0 {
		return result, fmt.Errorf("%w: %v", ErrNothingWarmed, errs)
	}

	logger.Info("Warm-up complete", "warmed", result.Warmed, "nodes", result.Nodes)
	return result, nil
}
