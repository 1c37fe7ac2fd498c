package helpers

import (
	"context"
	"maps"
	"sync"

	"github.com/kode4food/pilot/internal/task"
	"github.com/kode4food/pilot/pkg/api"
)

type (
	// MockTasks is a task registry whose tasks return configured outputs and
	// record every invocation along with the inputs they received
	MockTasks struct {
		outputs map[api.TaskID]string
		errors  map[api.TaskID]error
		panics  map[api.TaskID]any
		invoked []Invocation
		mu      sync.Mutex
	}

	// Invocation is a single recorded task call
	Invocation struct {
		Inputs api.Inputs
		Task   api.TaskID
	}

	mockTask struct {
		tasks *MockTasks
		id    api.TaskID
	}
)

// NewMockTasks creates a registry of mock tasks with the given outputs.
// Only the IDs present in outputs, or later configured with SetError or
// SetPanic, can be looked up
func NewMockTasks(outputs map[api.TaskID]string) *MockTasks {
	return &MockTasks{
		outputs: maps.Clone(outputs),
		errors:  map[api.TaskID]error{},
		panics:  map[api.TaskID]any{},
	}
}

// Lookup returns a mock task when id has been configured
func (m *MockTasks) Lookup(id api.TaskID) (task.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, out := m.outputs[id]
	_, err := m.errors[id]
	_, pan := m.panics[id]
	if !out && !err && !pan {
		return nil, false
	}
	return &mockTask{tasks: m, id: id}, true
}

// SetOutput configures the output a task returns
func (m *MockTasks) SetOutput(id api.TaskID, output string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outputs[id] = output
}

// SetError configures a task to fail with err
func (m *MockTasks) SetError(id api.TaskID, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[id] = err
}

// SetPanic configures a task to panic with value
func (m *MockTasks) SetPanic(id api.TaskID, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panics[id] = value
}

// Invocations returns the recorded calls in order
func (m *MockTasks) Invocations() []Invocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Invocation{}, m.invoked...)
}

// InvokedIDs returns the task IDs in invocation order
func (m *MockTasks) InvokedIDs() []api.TaskID {
	var res []api.TaskID
	for _, inv := range m.Invocations() {
		res = append(res, inv.Task)
	}
	return res
}

func (t *mockTask) Invoke(_ context.Context, in api.Inputs) (string, error) {
	m := t.tasks
	m.mu.Lock()
	m.invoked = append(m.invoked, Invocation{
		Task:   t.id,
		Inputs: maps.Clone(in),
	})
	pv, pan := m.panics[t.id]
	err := m.errors[t.id]
	out := m.outputs[t.id]
	m.mu.Unlock()

	if pan {
		panic(pv)
	}
	if err != nil {
		return "", err
	}
	return out, nil
}
