package engine_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/pilot/internal/engine"
	"github.com/kode4food/pilot/pkg/api"
)

func steps(pairs ...string) []api.StepResult {
	var res []api.StepResult
	for i := 0; i+1 < len(pairs); i += 2 {
		res = append(res, api.StepResult{
			Task:   api.TaskID(pairs[i]),
			Output: pairs[i+1],
		})
	}
	return res
}

func TestExtractFinalAnswer(t *testing.T) {
	tests := []struct {
		name  string
		steps []api.StepResult
		want  string
	}{
		{
			name:  "empty",
			steps: nil,
			want:  "",
		},
		{
			name:  "last output",
			steps: steps("a", "first", "b", "second"),
			want:  "second",
		},
		{
			name: "incident wins",
			steps: steps(
				"cluster_summary", "summary",
				"incident_create_issue_if_needed", "Created issue #1",
			),
			want: "Created issue #1",
		},
		{
			name: "summary wins over later tasks",
			steps: steps(
				"a", "first",
				"cluster_summary", "summary",
				"b", "trailing",
			),
			want: "summary",
		},
		{
			name: "later summary beats earlier incident",
			steps: steps(
				"incident_create_issue_if_needed", "No issue needed",
				"cluster_summary", "summary",
			),
			want: "summary",
		},
		{
			name: "last of repeated summary",
			steps: steps(
				"cluster_summary", "first summary",
				"cluster_summary", "second summary",
				"z", "trailing",
			),
			want: "second summary",
		},
		{
			name:  "error output still counts",
			steps: steps("cluster_summary", "ERROR: timeout"),
			want:  "ERROR: timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, engine.ExtractFinalAnswer(tt.steps))
		})
	}
}

func TestExtractMetadata(t *testing.T) {
	tests := []struct {
		name  string
		steps []api.StepResult
		want  api.Metadata
	}{
		{
			name:  "empty",
			steps: nil,
			want:  api.Metadata{},
		},
		{
			name:  "unrelated tasks",
			steps: steps("a", "x", "b", "y"),
			want:  api.Metadata{},
		},
		{
			name: "summary and incident",
			steps: steps(
				"cluster_summary", "healthy",
				"incident_create_issue_if_needed", "Created issue #3",
			),
			want: api.Metadata{
				api.MetaClusterSummary:  "healthy",
				api.MetaIncidentCreated: true,
			},
		},
		{
			name: "no incident created",
			steps: steps(
				"incident_create_issue_if_needed", "No issue needed",
			),
			want: api.Metadata{api.MetaIncidentCreated: false},
		},
		{
			name: "last write wins",
			steps: steps(
				"cluster_summary", "first",
				"incident_create_issue_if_needed", "Created issue #1",
				"cluster_summary", "second",
				"incident_create_issue_if_needed", "nothing",
			),
			want: api.Metadata{
				api.MetaClusterSummary:  "second",
				api.MetaIncidentCreated: false,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, engine.ExtractMetadata(tt.steps))
		})
	}
}

func TestExtractMetadataTruncatesSummary(t *testing.T) {
	long := strings.Repeat("a", 600)
	md := engine.ExtractMetadata(steps("cluster_summary", long))
	assert.Equal(t, strings.Repeat("a", 500), md[api.MetaClusterSummary])

	exact := strings.Repeat("b", 500)
	md = engine.ExtractMetadata(steps("cluster_summary", exact))
	assert.Equal(t, exact, md[api.MetaClusterSummary])

	wide := strings.Repeat("é", 501)
	md = engine.ExtractMetadata(steps("cluster_summary", wide))
	assert.Equal(t, strings.Repeat("é", 500), md[api.MetaClusterSummary])
}
