package api

type (
	// RunRequest contains the optional parameters for running a flow
	RunRequest struct {
		Context   map[string]any `json:"context,omitempty"`
		Namespace string         `json:"namespace,omitempty"`
		AppName   string         `json:"app_name,omitempty"`
	}

	// FlowsListResponse contains the names of the available flows
	FlowsListResponse struct {
		Flows []FlowName `json:"flows"`
		Count int        `json:"count"`
	}

	// AgentsListResponse contains the agent roster
	AgentsListResponse struct {
		Agents []AgentID `json:"agents"`
		Count  int       `json:"count"`
	}

	// TasksListResponse contains the registered task IDs
	TasksListResponse struct {
		Tasks []TaskID `json:"tasks"`
		Count int      `json:"count"`
	}

	// HealthResponse provides service health information
	HealthResponse struct {
		Status  string `json:"status"`
		Service string `json:"service"`
		Version string `json:"version"`
	}

	// ErrorResponse contains error details for failed requests
	ErrorResponse struct {
		Error  string `json:"error"`
		Status int    `json:"status,omitempty"`
	}
)

// HealthOK is the status reported by a healthy service
const HealthOK = "ok"
