package task

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kode4food/pilot/pkg/api"
)

type (
	// Definition describes a task in tasks.yaml
	Definition struct {
		Headers      map[string]string `yaml:"headers,omitempty"`
		Kind         Kind              `yaml:"kind"`
		Description  string            `yaml:"description,omitempty"`
		Method       string            `yaml:"method,omitempty"`
		URL          string            `yaml:"url,omitempty"`
		Body         string            `yaml:"body,omitempty"`
		Result       string            `yaml:"result,omitempty"`
		Dir          string            `yaml:"dir,omitempty"`
		Script       string            `yaml:"script,omitempty"`
		ExpectStatus []int             `yaml:"expect_status,omitempty"`
		Command      []string          `yaml:"command,omitempty"`
		Timeout      int64             `yaml:"timeout,omitempty"`
	}

	// Kind names the implementation a task definition is bound to
	Kind string

	// Options control how task definitions are turned into tasks
	Options struct {
		HTTPClient     *http.Client
		LuaEnv         *LuaEnv
		DefaultTimeout time.Duration
	}

	tasksFile struct {
		Tasks map[api.TaskID]*Definition `yaml:"tasks"`
	}
)

const (
	KindHTTP    Kind = "http"
	KindCommand Kind = "command"
	KindLua     Kind = "lua"
)

var (
	ErrInvalidTasksFile = errors.New("invalid tasks file")
	ErrUnknownKind      = errors.New("unknown task kind")
	ErrURLRequired      = errors.New("http task requires url")
	ErrCommandRequired  = errors.New("command task requires command")
	ErrScriptRequired   = errors.New("lua task requires script")
	ErrInvalidTimeout   = errors.New("timeout must not be negative")
)

// ParseDefinitions decodes the tasks section of a tasks.yaml document
func ParseDefinitions(data []byte) (map[api.TaskID]*Definition, error) {
	var file tasksFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTasksFile, err)
	}
	if file.Tasks == nil {
		return map[api.TaskID]*Definition{}, nil
	}
	return file.Tasks, nil
}

// Build validates every definition and returns a registry holding the
// resulting tasks. Any invalid definition fails the whole build
func Build(
	defs map[api.TaskID]*Definition, opts Options,
) (*Registry, error) {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.LuaEnv == nil {
		opts.LuaEnv = NewLuaEnv()
	}

	tasks := make(map[api.TaskID]Task, len(defs))
	for id, def := range defs {
		t, err := buildTask(id, def, &opts)
		if err != nil {
			return nil, fmt.Errorf("task %s: %w", id, err)
		}
		tasks[id] = t
	}
	return NewRegistry(tasks), nil
}

// Validate checks that a definition carries what its kind requires
func (d *Definition) Validate() error {
	if d.Timeout < 0 {
		return ErrInvalidTimeout
	}
	switch d.Kind {
	case KindHTTP:
		if d.URL == "" {
			return ErrURLRequired
		}
	case KindCommand:
		if len(d.Command) == 0 || d.Command[0] == "" {
			return ErrCommandRequired
		}
	case KindLua:
		if d.Script == "" {
			return ErrScriptRequired
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, d.Kind)
	}
	return nil
}

// TimeoutDuration returns the definition's timeout, or def when unset
func (d *Definition) TimeoutDuration(def time.Duration) time.Duration {
	if d.Timeout > 0 {
		return time.Duration(d.Timeout) * time.Millisecond
	}
	return def
}

func buildTask(id api.TaskID, def *Definition, opts *Options) (Task, error) {
	if def == nil {
		return nil, fmt.Errorf("%w: empty definition", ErrUnknownKind)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}

	timeout := def.TimeoutDuration(opts.DefaultTimeout)
	switch def.Kind {
	case KindHTTP:
		return NewHTTPTask(id, def, opts.HTTPClient, timeout)
	case KindCommand:
		return NewCommandTask(id, def, timeout)
	default:
		return opts.LuaEnv.Compile(def.Script, timeout)
	}
}
