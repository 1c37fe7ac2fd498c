package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kode4food/pilot/internal/engine"
	"github.com/kode4food/pilot/pkg/api"
	"github.com/kode4food/pilot/pkg/log"
)

const (
	inputNamespace = "namespace"
	inputAppName   = "app_name"
)

var ErrInvalidRequest = errors.New("invalid request")

func (s *Server) runDefaultFlow(c *gin.Context) {
	s.run(c, s.config.DefaultFlow)
}

func (s *Server) runFlow(c *gin.Context) {
	s.run(c, api.FlowName(c.Param("flowName")))
}

func (s *Server) run(c *gin.Context, name api.FlowName) {
	data, err := c.GetRawData()
	if err != nil {
		errorResponse(c, http.StatusBadRequest,
			fmt.Errorf("%w: %w", ErrInvalidRequest, err))
		return
	}

	req, err := parseRunRequest(data)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err)
		return
	}

	res, err := s.runner.Stream(
		c.Request.Context(), name, s.buildInputs(req), nil,
	)
	if err != nil {
		status := runErrorStatus(err)
		if status == http.StatusInternalServerError {
			slog.Error("Flow run failed",
				log.Flow(name),
				log.Error(err))
		}
		errorResponse(c, status, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func parseRunRequest(data []byte) (*api.RunRequest, error) {
	req := &api.RunRequest{}
	if len(data) == 0 {
		return req, nil
	}
	if err := json.Unmarshal(data, req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return req, nil
}

// buildInputs seeds the run inputs with the namespace and app name, falling
// back to configured defaults, and lets context entries override them
func (s *Server) buildInputs(req *api.RunRequest) api.Inputs {
	res := api.Inputs{
		inputNamespace: s.config.DefaultNamespace,
		inputAppName:   s.config.DefaultAppName,
	}
	if req.Namespace != "" {
		res[inputNamespace] = req.Namespace
	}
	if req.AppName != "" {
		res[inputAppName] = req.AppName
	}
	for k, v := range req.Context {
		res[k] = stringify(v)
	}
	return res
}

func stringify(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool, float64, int, int64:
		return fmt.Sprint(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	}
}

func runErrorStatus(err error) int {
	if errors.Is(err, engine.ErrFlowNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
