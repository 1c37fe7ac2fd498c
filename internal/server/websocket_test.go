package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/pilot/internal/assert/helpers"
	"github.com/kode4food/pilot/internal/catalog"
	"github.com/kode4food/pilot/internal/task"
	"github.com/kode4food/pilot/pkg/api"
)

func dialRun(t *testing.T, env *testServerEnv, flow string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(env.Router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/run/" + flow + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestStreamFlow(t *testing.T) {
	env := testServer(t, helpers.DefaultCatalogFiles())
	conn := dialRun(t, env, "k8s-healthcheck")

	require.NoError(t, conn.WriteJSON(api.RunRequest{Namespace: "prod"}))

	var steps []api.StepResult
	for range 4 {
		var msg api.StreamMessage
		require.NoError(t, conn.ReadJSON(&msg))
		require.Equal(t, api.StreamStep, msg.Type)
		require.NotNil(t, msg.Step)
		steps = append(steps, *msg.Step)
	}

	var msg api.StreamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, api.StreamResult, msg.Type)
	require.NotNil(t, msg.Result)
	assert.Equal(t, steps, msg.Result.Steps)
	assert.Equal(t, "No issue needed", msg.Result.FinalAnswer)
	assert.Equal(t, "prod", env.inputsFor("k8s_pods_overview")["namespace"])

	_, _, err := conn.ReadMessage()
	assert.True(t,
		websocket.IsCloseError(err, websocket.CloseNormalClosure), err,
	)
}

func TestStreamUnknownFlow(t *testing.T) {
	env := testServer(t, helpers.DefaultCatalogFiles())
	conn := dialRun(t, env, "nope")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{}")))

	var msg api.StreamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, api.StreamError, msg.Type)
	assert.Equal(t, http.StatusNotFound, msg.Status)
	assert.NotEmpty(t, msg.Error)
}

func TestStreamInvalidRequest(t *testing.T) {
	env := testServer(t, helpers.DefaultCatalogFiles())
	conn := dialRun(t, env, "infra-health")

	require.NoError(t,
		conn.WriteMessage(websocket.TextMessage, []byte("not json")),
	)

	var msg api.StreamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, api.StreamError, msg.Type)
	assert.Equal(t, http.StatusBadRequest, msg.Status)
}

func TestCloseWebSockets(t *testing.T) {
	env := testServer(t, helpers.DefaultCatalogFiles())
	conn := dialRun(t, env, "infra-health")

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			env.Server.CloseWebSockets()
			select {
			case <-done:
				return
			case <-ticker.C:
			}
		}
	}()

	_, _, err := conn.ReadMessage()
	assert.True(t,
		websocket.IsCloseError(err, websocket.CloseNormalClosure), err,
	)
}

func TestStreamCancelledOnDisconnect(t *testing.T) {
	started := make(chan struct{})
	cancelled := make(chan struct{})
	wait := task.Func(func(ctx context.Context, _ api.Inputs) (string, error) {
		close(started)
		select {
		case <-ctx.Done():
			close(cancelled)
			return "", ctx.Err()
		case <-time.After(10 * time.Second):
			return "finished", nil
		}
	})

	files := helpers.DefaultCatalogFiles()
	files[catalog.FlowKey("slow")] = "steps:\n  - run: wait\n"
	env := testServerWithTasks(t, files, map[api.TaskID]task.Task{
		"wait": wait,
	})
	conn := dialRun(t, env, "slow")

	require.NoError(t, conn.WriteJSON(api.RunRequest{}))
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("task did not start")
	}

	require.NoError(t, conn.Close())
	select {
	case <-cancelled:
	case <-time.After(5 * time.Second):
		t.Fatal("run was not cancelled after disconnect")
	}
}
