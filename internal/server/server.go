package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	glog "github.com/gin-contrib/slog"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kode4food/pilot/internal/config"
	"github.com/kode4food/pilot/internal/engine"
	"github.com/kode4food/pilot/internal/metrics"
	"github.com/kode4food/pilot/pkg/api"
)

type (
	// Server implements the HTTP API of the flow runner
	Server struct {
		runner   Runner
		catalog  Catalog
		tasks    TaskLister
		gatherer prometheus.Gatherer
		config   *config.Config
		sockets  map[*streamClient]struct{}
		mu       sync.Mutex
	}

	// Dependencies are the collaborators a Server is built from
	Dependencies struct {
		Runner   Runner
		Catalog  Catalog
		Tasks    TaskLister
		Gatherer prometheus.Gatherer
		Config   *config.Config
	}

	// Runner executes flows, optionally reporting steps as they complete
	Runner interface {
		Stream(
			ctx context.Context, name api.FlowName, inputs api.Inputs,
			obs engine.StepObserver,
		) (*api.RunResult, error)
	}

	// Catalog lists the declared flows and agents
	Catalog interface {
		ListFlows(ctx context.Context) ([]api.FlowName, error)
		ListAgents(ctx context.Context) ([]api.AgentID, error)
	}

	// TaskLister lists the registered task IDs
	TaskLister interface {
		IDs() []api.TaskID
	}
)

// ServiceName is reported by the health endpoint
const ServiceName = "pilot"

// NewServer creates a new HTTP API server
func NewServer(deps Dependencies) *Server {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	return &Server{
		runner:   deps.Runner,
		catalog:  deps.Catalog,
		tasks:    deps.Tasks,
		gatherer: deps.Gatherer,
		config:   cfg,
		sockets:  map[*streamClient]struct{}{},
	}
}

// SetupRoutes configures and returns the HTTP router with all API endpoints
func (s *Server) SetupRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(glog.SetLogger(
		glog.WithLogger(func(c *gin.Context, l *slog.Logger) *slog.Logger {
			return slog.Default()
		}),
	))

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set(
			"Access-Control-Allow-Methods", "GET, POST, OPTIONS",
		)
		c.Writer.Header().Set(
			"Access-Control-Allow-Headers", "Content-Type, Authorization",
		)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})

	router.GET("/health", s.handleHealth)

	// Catalog endpoints
	router.GET("/flows", s.listFlows)
	router.GET("/agents", s.listAgents)
	router.GET("/tasks", s.listTasks)

	// Run endpoints
	router.POST("/run", s.runDefaultFlow)
	router.POST("/run/:flowName", s.runFlow)
	router.GET("/run/:flowName/ws", s.streamFlow)

	if s.gatherer != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler(s.gatherer)))
	}

	return router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{
		Status:  api.HealthOK,
		Service: ServiceName,
		Version: s.config.Version,
	})
}

func (s *Server) registerSocket(c *streamClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sockets[c] = struct{}{}
}

func (s *Server) unregisterSocket(c *streamClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sockets, c)
}

// CloseWebSockets closes all active run streams
func (s *Server) CloseWebSockets() {
	s.mu.Lock()
	conns := make([]*streamClient, 0, len(s.sockets))
	for c := range s.sockets {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}

func errorResponse(c *gin.Context, status int, err error) {
	c.JSON(status, api.ErrorResponse{
		Error:  err.Error(),
		Status: status,
	})
}
