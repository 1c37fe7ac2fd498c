package helpers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gocloud.dev/blob"

	"github.com/kode4food/pilot/internal/catalog"

	_ "gocloud.dev/blob/memblob"
)

const (
	// BehaviorYAML is a small roster with three agents and their tasks
	BehaviorYAML = `
agents:
  - id: k8s_operator
    role: Kubernetes operator
  - id: reporting_analyst
    role: Reporting analyst
  - id: incident_triager
    role: Incident triager
tasks:
  - id: k8s_pods_overview
    agent: k8s_operator
  - id: cluster_summary
    agent: reporting_analyst
  - id: incident_create_issue_if_needed
    agent: incident_triager
`

	// HealthcheckYAML is a flow with a skipped step and a missing task
	HealthcheckYAML = `
name: k8s-healthcheck
description: Cluster health check
steps:
  - run: k8s_pods_overview
  - description: no task here
  - run: missing_task
  - run: cluster_summary
  - run: incident_create_issue_if_needed
`

	// InfraYAML is a flow with a single step
	InfraYAML = `
steps:
  - run: k8s_pods_overview
`
)

// DefaultCatalogFiles returns a fixture set with behavior and two flows
func DefaultCatalogFiles() map[string]string {
	return map[string]string{
		catalog.BehaviorFile:               BehaviorYAML,
		catalog.FlowKey("k8s-healthcheck"): HealthcheckYAML,
		catalog.FlowKey("infra-health"):    InfraYAML,
	}
}

// NewBucket opens an in-memory bucket populated with files, closed when the
// test completes
func NewBucket(t *testing.T, files map[string]string) *blob.Bucket {
	t.Helper()
	ctx := context.Background()

	bucket, err := blob.OpenBucket(ctx, "mem://")
	require.NoError(t, err)
	t.Cleanup(func() { _ = bucket.Close() })

	for key, content := range files {
		require.NoError(t, bucket.WriteAll(ctx, key, []byte(content), nil))
	}
	return bucket
}

// NewCatalog returns a Catalog over an in-memory bucket holding files
func NewCatalog(t *testing.T, files map[string]string) *catalog.Catalog {
	t.Helper()
	return catalog.New(NewBucket(t, files))
}
