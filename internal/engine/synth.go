package engine

import (
	"strings"

	"github.com/kode4food/pilot/pkg/api"
)

const (
	// SummaryTask produces the cluster summary
	SummaryTask api.TaskID = "cluster_summary"

	// IncidentTask files an incident issue when one is needed
	IncidentTask api.TaskID = "incident_create_issue_if_needed"

	// IncidentCreatedMarker appears in the incident output when an issue
	// was filed
	IncidentCreatedMarker = "Created issue"

	// SummaryMaxRunes bounds the summary carried in run metadata
	SummaryMaxRunes = 500
)

// ExtractFinalAnswer picks the run's headline output. Scanning from the
// last step backward, the first incident or summary step wins; otherwise
// the last step's output is used, and an empty run yields ""
func ExtractFinalAnswer(steps []api.StepResult) string {
	for i := len(steps) - 1; i >= 0; i-- {
		switch steps[i].Task {
		case IncidentTask, SummaryTask:
			return steps[i].Output
		}
	}
	if len(steps) == 0 {
		return ""
	}
	return steps[len(steps)-1].Output
}

// ExtractMetadata derives summary values from the steps. When a task
// appears more than once, its last occurrence wins
func ExtractMetadata(steps []api.StepResult) api.Metadata {
	res := api.Metadata{}
	for _, s := range steps {
		switch s.Task {
		case SummaryTask:
			res[api.MetaClusterSummary] = truncateRunes(
				s.Output, SummaryMaxRunes,
			)
		case IncidentTask:
			res[api.MetaIncidentCreated] = strings.Contains(
				s.Output, IncidentCreatedMarker,
			)
		}
	}
	return res
}

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
