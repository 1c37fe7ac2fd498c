package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kode4food/pilot/internal/metrics"
	"github.com/kode4food/pilot/internal/task"
	"github.com/kode4food/pilot/pkg/api"
	"github.com/kode4food/pilot/pkg/log"
)

// run carries the state of a single flow execution
type run struct {
	engine   *Engine
	bindings map[api.TaskID]api.AgentID
	observer StepObserver
	inputs   api.Inputs
	context  api.Inputs
	flow     api.FlowName
	id       api.RunID
	steps    []api.StepResult
}

func (r *run) execute(
	ctx context.Context, fl *api.FlowDefinition,
) *api.RunResult {
	start := r.engine.clock()
	slog.Info("Flow run started",
		log.Flow(r.flow),
		log.RunID(r.id),
		slog.Int("steps", len(fl.Steps)))

	for _, step := range fl.Steps {
		if step.Run == "" {
			continue
		}
		res := r.executeStep(ctx, step.Run)
		r.steps = append(r.steps, res)
		r.context[string(res.Task)] = res.Output
		if r.observer != nil {
			r.observer(res)
		}
	}

	total := r.engine.clock().Sub(start)
	meta := ExtractMetadata(r.steps)
	meta[api.MetaTotalDuration] = total.Milliseconds()

	res := &api.RunResult{
		RunID:       r.id,
		Flow:        r.flow,
		FinalAnswer: ExtractFinalAnswer(r.steps),
		Steps:       r.steps,
		Metadata:    meta,
	}

	r.engine.metrics.ObserveRun(r.flow, metrics.OutcomeOK, total)
	slog.Info("Flow run completed",
		log.Flow(r.flow),
		log.RunID(r.id),
		log.DurationMs(total),
		slog.Int("steps", len(res.Steps)),
		slog.Int("failed_steps", res.FailedSteps()))
	return res
}

func (r *run) executeStep(ctx context.Context, id api.TaskID) api.StepResult {
	t, ok := r.engine.registry.Lookup(id)
	if !ok {
		slog.Warn("Task not found",
			log.Flow(r.flow),
			log.RunID(r.id),
			log.Task(id))
		r.engine.metrics.ObserveStep(r.flow, id, metrics.OutcomeMissing, 0)
		return api.StepResult{
			Agent:  api.UnknownAgent,
			Task:   id,
			Output: api.ErrorOutput(fmt.Sprintf("task '%s' not found", id)),
		}
	}

	agent := r.agentFor(id)
	in := r.inputs.Merge(r.context)

	start := r.engine.clock()
	output, err := invoke(ctx, t, in)
	dur := r.engine.clock().Sub(start)

	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeError
		output = api.ErrorOutput(err.Error())
		slog.Warn("Task failed",
			log.Flow(r.flow),
			log.RunID(r.id),
			log.Task(id),
			log.Agent(agent),
			log.DurationMs(dur),
			log.Error(err))
	} else {
		slog.Debug("Task completed",
			log.Flow(r.flow),
			log.RunID(r.id),
			log.Task(id),
			log.Agent(agent),
			log.DurationMs(dur))
	}
	r.engine.metrics.ObserveStep(r.flow, id, outcome, dur)

	return api.StepResult{
		Agent:      agent,
		Task:       id,
		Output:     output,
		DurationMs: dur.Milliseconds(),
	}
}

func (r *run) agentFor(id api.TaskID) api.AgentID {
	if agent, ok := r.bindings[id]; ok && agent != "" {
		return agent
	}
	return api.UnknownAgent
}

func invoke(
	ctx context.Context, t task.Task, in api.Inputs,
) (output string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			output = ""
			err = fmt.Errorf("%w: %v", ErrTaskPanic, rec)
		}
	}()
	return t.Invoke(ctx, in)
}
