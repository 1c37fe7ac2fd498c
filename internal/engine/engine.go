package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kode4food/pilot/internal/catalog"
	"github.com/kode4food/pilot/internal/metrics"
	"github.com/kode4food/pilot/internal/task"
	"github.com/kode4food/pilot/pkg/api"
	"github.com/kode4food/pilot/pkg/log"
)

type (
	// Engine executes flows. It holds no per-run state, so a single Engine
	// serves any number of concurrent runs
	Engine struct {
		catalog  Catalog
		registry Registry
		metrics  *metrics.Metrics
		clock    Clock
	}

	// Dependencies are the collaborators an Engine is built from
	Dependencies struct {
		Catalog  Catalog
		Registry Registry
		Metrics  *metrics.Metrics
		Clock    Clock
	}

	// Catalog resolves flow definitions and agent bindings
	Catalog interface {
		Resolve(ctx context.Context, name api.FlowName) (*api.FlowDefinition, error)
		LoadAgentBindings(ctx context.Context) (map[api.TaskID]api.AgentID, error)
	}

	// Registry looks up invocable tasks by ID
	Registry interface {
		Lookup(id api.TaskID) (task.Task, bool)
	}

	// StepObserver receives each step result as soon as it is recorded
	StepObserver func(api.StepResult)

	// Clock provides the current time for run and step timing
	Clock func() time.Time
)

var (
	// ErrFlowNotFound is returned when the catalog has no such flow
	ErrFlowNotFound = catalog.ErrFlowNotFound

	ErrLoadFlow  = errors.New("failed to load flow")
	ErrTaskPanic = errors.New("task panicked")
)

// New creates an Engine from its dependencies
func New(deps Dependencies) *Engine {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Engine{
		catalog:  deps.Catalog,
		registry: deps.Registry,
		metrics:  deps.Metrics,
		clock:    clock,
	}
}

// Run executes the named flow with the caller's inputs and returns the
// full report. Only an unknown or unloadable flow produces an error; task
// failures are recorded in the step outputs
func (e *Engine) Run(
	ctx context.Context, name api.FlowName, inputs api.Inputs,
) (*api.RunResult, error) {
	return e.Stream(ctx, name, inputs, nil)
}

// Stream behaves like Run, and also hands every step result to obs as soon
// as the step completes
func (e *Engine) Stream(
	ctx context.Context, name api.FlowName, inputs api.Inputs,
	obs StepObserver,
) (*api.RunResult, error) {
	fl, err := e.catalog.Resolve(ctx, name)
	if err != nil {
		e.metrics.ObserveRun(metrics.UnknownFlow, metrics.OutcomeFailed, 0)
		if errors.Is(err, ErrFlowNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrLoadFlow, err)
	}

	bindings, err := e.catalog.LoadAgentBindings(ctx)
	if err != nil {
		slog.Warn("Agent bindings unavailable",
			log.Flow(name),
			log.Error(err))
		bindings = map[api.TaskID]api.AgentID{}
	}

	r := &run{
		engine:   e,
		flow:     name,
		id:       api.RunID(uuid.NewString()),
		inputs:   inputs,
		bindings: bindings,
		observer: obs,
		context:  api.Inputs{},
		steps:    []api.StepResult{},
	}
	return r.execute(ctx, fl), nil
}
