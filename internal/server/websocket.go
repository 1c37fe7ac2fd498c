package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/kode4food/pilot/pkg/api"
	"github.com/kode4food/pilot/pkg/log"
)

// streamClient is a websocket connection streaming a single flow run
type streamClient struct {
	conn      *websocket.Conn
	flow      api.FlowName
	closeOnce sync.Once
}

const (
	writeWait      = 10 * time.Second
	requestWait    = 30 * time.Second
	closeWait      = time.Second
	maxMessageSize = 64 << 10
	wsBufferSize   = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  wsBufferSize,
	WriteBufferSize: wsBufferSize,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// streamFlow upgrades the connection, reads one RunRequest, then streams
// each step as it completes followed by the full result
func (s *Server) streamFlow(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed",
			log.Error(err))
		return
	}

	client := &streamClient{
		conn: conn,
		flow: api.FlowName(c.Param("flowName")),
	}
	s.registerSocket(client)
	defer func() {
		s.unregisterSocket(client)
		client.Close()
	}()

	req, err := client.readRequest()
	if err != nil {
		client.sendError(http.StatusBadRequest, err)
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go client.watchDisconnect(cancel)

	res, err := s.runner.Stream(
		ctx, client.flow, s.buildInputs(req),
		func(step api.StepResult) {
			client.send(&api.StreamMessage{
				Type: api.StreamStep,
				Step: &step,
			})
		},
	)
	if err != nil {
		client.sendError(runErrorStatus(err), err)
		return
	}

	client.send(&api.StreamMessage{
		Type:   api.StreamResult,
		Result: res,
	})
}

func (c *streamClient) readRequest() (*api.RunRequest, error) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(requestWait))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	_ = c.conn.SetReadDeadline(time.Time{})
	return parseRunRequest(data)
}

// watchDisconnect cancels the run once the peer closes its side of the
// connection. Messages received after the request are discarded
func (c *streamClient) watchDisconnect(cancel context.CancelFunc) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			cancel()
			return
		}
	}
}

func (c *streamClient) send(msg *api.StreamMessage) bool {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(msg); err != nil {
		slog.Debug("WebSocket write failed",
			log.Flow(c.flow),
			log.Error(err))
		return false
	}
	return true
}

func (c *streamClient) sendError(status int, err error) {
	c.send(&api.StreamMessage{
		Type:   api.StreamError,
		Error:  err.Error(),
		Status: status,
	})
}

// Close sends a normal closure frame and closes the connection
func (c *streamClient) Close() {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(
			websocket.CloseMessage, msg, time.Now().Add(closeWait),
		)
		_ = c.conn.Close()
	})
}
