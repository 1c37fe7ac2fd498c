package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kode4food/pilot/internal/catalog"
	"github.com/kode4food/pilot/pkg/api"
)

func (s *Server) listFlows(c *gin.Context) {
	flows, err := s.catalog.ListFlows(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, api.FlowsListResponse{
		Flows: flows,
		Count: len(flows),
	})
}

func (s *Server) listAgents(c *gin.Context) {
	agents, err := s.catalog.ListAgents(c.Request.Context())
	if errors.Is(err, catalog.ErrBehaviorNotFound) {
		agents, err = []api.AgentID{}, nil
	}
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, api.AgentsListResponse{
		Agents: agents,
		Count:  len(agents),
	})
}

func (s *Server) listTasks(c *gin.Context) {
	var tasks []api.TaskID
	if s.tasks != nil {
		tasks = s.tasks.IDs()
	}
	if tasks == nil {
		tasks = []api.TaskID{}
	}

	c.JSON(http.StatusOK, api.TasksListResponse{
		Tasks: tasks,
		Count: len(tasks),
	})
}
