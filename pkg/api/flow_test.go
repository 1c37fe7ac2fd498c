package api_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/pilot/pkg/api"
)

func TestFlowTaskIDs(t *testing.T) {
	fl := &api.FlowDefinition{
		Steps: []api.StepDescriptor{
			{Run: "k8s_pods_overview"},
			{},
			{Run: "cluster_summary"},
		},
	}
	assert.Equal(t,
		[]api.TaskID{"k8s_pods_overview", "cluster_summary"}, fl.TaskIDs(),
	)
}

func TestBehaviorBindings(t *testing.T) {
	b := &api.Behavior{
		Agents: []api.AgentDescriptor{
			{ID: "k8s_operator"}, {ID: "reporting_analyst"},
		},
		Tasks: []api.TaskBinding{
			{ID: "k8s_pods_overview", Agent: "k8s_operator"},
			{ID: "cluster_summary", Agent: "k8s_operator"},
			{ID: "cluster_summary", Agent: "reporting_analyst"},
		},
	}

	assert.Equal(t,
		[]api.AgentID{"k8s_operator", "reporting_analyst"}, b.AgentIDs(),
	)
	assert.Equal(t, map[api.TaskID]api.AgentID{
		"k8s_pods_overview": "k8s_operator",
		"cluster_summary":   "reporting_analyst",
	}, b.Bindings())
}
