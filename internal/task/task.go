package task

import (
	"context"
	"errors"

	"github.com/kode4food/pilot/pkg/api"
)

type (
	// Task is an invocable unit of work. It receives the merged context of
	// the run so far and returns a textual result or fails
	Task interface {
		Invoke(ctx context.Context, in api.Inputs) (string, error)
	}

	// Func adapts a plain function to the Task interface
	Func func(ctx context.Context, in api.Inputs) (string, error)
)

var (
	ErrTimeout       = errors.New("task timed out")
	ErrHTTPStatus    = errors.New("unexpected HTTP status")
	ErrResultMissing = errors.New("result path not found in response")
	ErrCommandFailed = errors.New("command failed")
	ErrLuaLoad       = errors.New("lua load error")
	ErrLuaExecution  = errors.New("lua execution error")
	ErrTemplate      = errors.New("template error")
)

var _ Task = Func(nil)

// Invoke calls f
func (f Func) Invoke(ctx context.Context, in api.Inputs) (string, error) {
	return f(ctx, in)
}

// Static returns a Task that always produces output
func Static(output string) Task {
	return Func(func(context.Context, api.Inputs) (string, error) {
		return output, nil
	})
}
