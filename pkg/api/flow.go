package api

type (
	// FlowDefinition is an ordered list of steps loaded from the catalog.
	// Step order is execution order
	FlowDefinition struct {
		Name        FlowName         `yaml:"name" json:"name"`
		Description string           `yaml:"description,omitempty" json:"description,omitempty"`
		Steps       []StepDescriptor `yaml:"steps" json:"steps"`
	}

	// StepDescriptor names the task a flow step runs. A step without a task
	// ID is skipped
	StepDescriptor struct {
		Run         TaskID `yaml:"run" json:"run"`
		Description string `yaml:"description,omitempty" json:"description,omitempty"`
	}

	// Behavior is the agent roster and task ownership description
	Behavior struct {
		Agents []AgentDescriptor `yaml:"agents" json:"agents"`
		Tasks  []TaskBinding     `yaml:"tasks" json:"tasks"`
	}

	// AgentDescriptor describes a single agent in the roster
	AgentDescriptor struct {
		ID   AgentID `yaml:"id" json:"id"`
		Role string  `yaml:"role,omitempty" json:"role,omitempty"`
	}

	// TaskBinding associates a task with the agent that owns it
	TaskBinding struct {
		ID    TaskID  `yaml:"id" json:"id"`
		Agent AgentID `yaml:"agent" json:"agent"`
	}
)

// TaskIDs returns the non-empty task IDs of the flow in declared order
func (f *FlowDefinition) TaskIDs() []TaskID {
	res := make([]TaskID, 0, len(f.Steps))
	for _, s := range f.Steps {
		if s.Run != "" {
			res = append(res, s.Run)
		}
	}
	return res
}

// AgentIDs returns the roster's agent IDs in declared order
func (b *Behavior) AgentIDs() []AgentID {
	res := make([]AgentID, 0, len(b.Agents))
	for _, a := range b.Agents {
		res = append(res, a.ID)
	}
	return res
}

// Bindings returns the task to agent mapping. Later entries for the same
// task override earlier ones
func (b *Behavior) Bindings() map[TaskID]AgentID {
	res := make(map[TaskID]AgentID, len(b.Tasks))
	for _, t := range b.Tasks {
		res[t.ID] = t.Agent
	}
	return res
}
