package api

import (
	"regexp"
	"strings"
)

type (
	// FlowName identifies a flow definition in the catalog
	FlowName string

	// TaskID identifies an invocable task in the registry
	TaskID string

	// AgentID identifies the agent that owns a task, for reporting only
	AgentID string

	// RunID is a unique identifier for a single flow run
	RunID string
)

// UnknownAgent is reported when a task has no agent binding
const UnknownAgent AgentID = "unknown"

// validFlowName matches names that can safely be turned into catalog keys
var validFlowName = regexp.MustCompile(`^[a-zA-Z0-9_.\-]+$`)

// Valid reports whether the flow name is usable as a catalog key. Names with
// path separators or parent references are never valid
func (n FlowName) Valid() bool {
	s := string(n)
	return validFlowName.MatchString(s) && !strings.Contains(s, "..")
}
