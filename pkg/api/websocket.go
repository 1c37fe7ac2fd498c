package api

type (
	// StreamMessageType identifies a message sent on a run stream
	StreamMessageType string

	// StreamMessage is a single message sent while streaming a run. Exactly
	// one of Step, Result, or Error is set, according to Type
	StreamMessage struct {
		Step   *StepResult       `json:"step,omitempty"`
		Result *RunResult        `json:"result,omitempty"`
		Type   StreamMessageType `json:"type"`
		Error  string            `json:"error,omitempty"`
		Status int               `json:"status,omitempty"`
	}
)

const (
	StreamStep   StreamMessageType = "step"
	StreamResult StreamMessageType = "result"
	StreamError  StreamMessageType = "error"
)
