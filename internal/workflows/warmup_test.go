package workflows

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"go.temporal.io/sdk/testsuite"

	"github.com/samirrijal/barrierfree/internal/core/domain"
	"github.com/samirrijal/barrierfree/internal/core/usecases"
)

// --- Mock node source ---

type countingSource struct {
	calls atomic.Int32
	nodes []domain.Node
	err   error
}

func (s *countingSource) FetchNodes(ctx context.Context, bounds domain.Bounds) ([]domain.Node, error) {
	s.calls.Add(1)
	return s.nodes, s.err
}

func newEnv(t *testing.T, src *countingSource) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(WarmupWorkflow)
	env.RegisterActivity(&WarmupActivities{Nodes: usecases.NewNodeService(src, nil, nil, nil, 0)})
	return env
}

// --- Tests ---

func TestWarmupWorkflow_AllBoxes(t *testing.T) {
	src := &countingSource{nodes: make([]domain.Node, 3)}
	env := newEnv(t, src)

	env.ExecuteWorkflow(WarmupWorkflow, WarmupInput{BBoxes: []string{
		"-2.97,43.24,-2.90,43.28",
		"-2.95,43.25,-2.92,43.27",
	}})

	if !env.IsWorkflowCompleted() {
		t.Fatal("workflow did not complete")
	}
	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var res WarmupResult
	if err := env.GetWorkflowResult(&res); err != nil {
		t.Fatal(err)
	}
	if res.Warmed != 2 || res.Failed != 0 || res.Nodes != 6 {
		t.Errorf("unexpected result %+v", res)
	}
	if n := src.calls.Load(); n != 2 {
		t.Errorf("expected 2 upstream fetches, got %d", n)
	}
}

func TestWarmupWorkflow_InvalidBoxIsNotRetried(t *testing.T) {
	src := &countingSource{nodes: make([]domain.Node, 1)}
	env := newEnv(t, src)

	env.ExecuteWorkflow(WarmupWorkflow, WarmupInput{BBoxes: []string{"not-a-box", "-2.97,43.24,-2.90,43.28"}})

	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("a partial failure must not fail the run: %v", err)
	}
	var res WarmupResult
	if err := env.GetWorkflowResult(&res); err != nil {
		t.Fatal(err)
	}
	if res.Warmed != 1 || res.Failed != 1 {
		t.Errorf("unexpected result %+v", res)
	}
	if n := src.calls.Load(); n != 1 {
		t.Errorf("expected the invalid box to never reach upstream, got %d fetches", n)
	}
}

func TestWarmupWorkflow_AllFail(t *testing.T) {
	src := &countingSource{err: errors.New("wheelmap down")}
	env := newEnv(t, src)

	env.ExecuteWorkflow(WarmupWorkflow, WarmupInput{BBoxes: []string{"-2.97,43.24,-2.90,43.28"}})

	err := env.GetWorkflowError()
	if err == nil {
		t.Fatal("expected the run to fail")
	}
	if !strings.Contains(err.Error(), "no bounding box could be warmed") {
		t.Errorf("unexpected error: %v", err)
	}
	if n := src.calls.Load(); n != 3 {
		t.Errorf("expected 3 attempts, got %d", n)
	}
}

func TestWarmupWorkflow_Empty(t *testing.T) {
	env := newEnv(t, &countingSource{})

	env.ExecuteWorkflow(WarmupWorkflow, WarmupInput{})

	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
