package task

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"text/template"
	"time"

	"github.com/kode4food/pilot/pkg/api"
)

// CommandTask runs an external program and returns its combined output
type CommandTask struct {
	argv    []*template.Template
	dir     string
	timeout time.Duration
}

var _ Task = (*CommandTask)(nil)

// NewCommandTask builds a command task from its definition
func NewCommandTask(
	id api.TaskID, def *Definition, timeout time.Duration,
) (*CommandTask, error) {
	argv, err := parseTemplates(string(id)+".command", def.Command)
	if err != nil {
		return nil, err
	}
	return &CommandTask{
		argv:    argv,
		dir:     def.Dir,
		timeout: timeout,
	}, nil
}

// Invoke renders the argument vector and executes it. A non-zero exit
// status fails the task with the program's output attached
func (t *CommandTask) Invoke(ctx context.Context, in api.Inputs) (string, error) {
	args := make([]string, len(t.argv))
	for i, tmpl := range t.argv {
		arg, err := render(tmpl, in)
		if err != nil {
			return "", err
		}
		args[i] = arg
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = t.dir
	out, err := cmd.CombinedOutput()
	output := strings.TrimSpace(string(out))
	if err == nil {
		return output, nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("%w after %s", ErrTimeout, t.timeout)
	}
	if output == "" {
		return "", fmt.Errorf("%w: %w", ErrCommandFailed, err)
	}
	return "", fmt.Errorf("%w: %w: %s", ErrCommandFailed, err, output)
}
