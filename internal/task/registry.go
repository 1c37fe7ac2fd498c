package task

import (
	"maps"
	"slices"

	"github.com/kode4food/pilot/pkg/api"
)

// Registry maps task IDs to invocable tasks. It is populated once at
// construction and is read-only afterwards, so it can be shared between
// concurrent runs
type Registry struct {
	tasks map[api.TaskID]Task
}

// NewRegistry creates a registry holding a copy of tasks
func NewRegistry(tasks map[api.TaskID]Task) *Registry {
	return &Registry{
		tasks: maps.Clone(tasks),
	}
}

// Lookup returns the task registered under id. A missing task is reported
// through the boolean and is not an error
func (r *Registry) Lookup(id api.TaskID) (Task, bool) {
	t, ok := r.tasks[id]
	return t, ok
}

// IDs returns the registered task IDs, sorted
func (r *Registry) IDs() []api.TaskID {
	return slices.Sorted(maps.Keys(r.tasks))
}

// Len returns the number of registered tasks
func (r *Registry) Len() int {
	return len(r.tasks)
}
