package task_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/pilot/internal/task"
	"github.com/kode4food/pilot/pkg/api"
)

func TestRegistryLookup(t *testing.T) {
	reg := task.NewRegistry(map[api.TaskID]task.Task{
		"one": task.Static("1"),
	})

	tk, ok := reg.Lookup("one")
	require.True(t, ok)
	out, err := tk.Invoke(context.Background(), nil)
	assert.NoError(t, err)
	assert.Equal(t, "1", out)

	tk, ok = reg.Lookup("two")
	assert.False(t, ok)
	assert.Nil(t, tk)
}

func TestRegistryIDs(t *testing.T) {
	reg := task.NewRegistry(map[api.TaskID]task.Task{
		"zeta":  task.Static(""),
		"alpha": task.Static(""),
		"mid":   task.Static(""),
	})

	assert.Equal(t, []api.TaskID{"alpha", "mid", "zeta"}, reg.IDs())
	assert.Equal(t, 3, reg.Len())
}

func TestRegistryCopiesInput(t *testing.T) {
	tasks := map[api.TaskID]task.Task{"one": task.Static("1")}
	reg := task.NewRegistry(tasks)

	tasks["two"] = task.Static("2")
	_, ok := reg.Lookup("two")
	assert.False(t, ok)
}

func TestEmptyRegistry(t *testing.T) {
	reg := task.NewRegistry(nil)
	assert.Empty(t, reg.IDs())
	assert.Zero(t, reg.Len())
}

func TestFunc(t *testing.T) {
	boom := errors.New("boom")
	tk := task.Func(func(_ context.Context, in api.Inputs) (string, error) {
		if in["fail"] != "" {
			return "", boom
		}
		return "hello " + in["name"], nil
	})

	out, err := tk.Invoke(context.Background(), api.Inputs{"name": "pilot"})
	assert.NoError(t, err)
	assert.Equal(t, "hello pilot", out)

	_, err = tk.Invoke(context.Background(), api.Inputs{"fail": "yes"})
	assert.ErrorIs(t, err, boom)
}
