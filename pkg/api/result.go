package api

import "strings"

type (
	// StepResult records the outcome of one executed step
	StepResult struct {
		Agent      AgentID `json:"agent"`
		Task       TaskID  `json:"task"`
		Output     string  `json:"output"`
		DurationMs int64   `json:"duration_ms"`
	}

	// RunResult is the full report of a single flow run
	RunResult struct {
		Metadata    Metadata     `json:"metadata"`
		RunID       RunID        `json:"run_id"`
		Flow        FlowName     `json:"flow"`
		FinalAnswer string       `json:"final_answer"`
		Steps       []StepResult `json:"steps"`
	}

	// Metadata holds summary values derived from a run's steps
	Metadata map[string]any
)

const (
	// ErrorPrefix marks the output of a step that did not run successfully
	ErrorPrefix = "ERROR: "

	// MetaTotalDuration is the wall-clock duration of the whole run
	MetaTotalDuration = "total_duration_ms"

	// MetaClusterSummary holds the truncated summary task output
	MetaClusterSummary = "cluster_summary"

	// MetaIncidentCreated reports whether the incident task filed an issue
	MetaIncidentCreated = "incident_created"
)

// Failed reports whether the step ended with an error output
func (r StepResult) Failed() bool {
	return strings.HasPrefix(r.Output, ErrorPrefix)
}

// ErrorOutput formats a failure detail as a step output
func ErrorOutput(detail string) string {
	return ErrorPrefix + detail
}

// FailedSteps counts the steps of the run that ended with an error output
func (r *RunResult) FailedSteps() int {
	res := 0
	for _, s := range r.Steps {
		if s.Failed() {
			res++
		}
	}
	return res
}
