package provider

// RunStatus is the lifecycle state of a run as reported by the service.
type RunStatus string

const (
	RunStatusQueued         RunStatus = "queued"
	RunStatusInProgress     RunStatus = "in_progress"
	RunStatusRequiresAction RunStatus = "requires_action"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusFailed         RunStatus = "failed"
	RunStatusCancelling     RunStatus = "cancelling"
	RunStatusCancelled      RunStatus = "cancelled"
	RunStatusIncomplete     RunStatus = "incomplete"
	RunStatusExpired        RunStatus = "expired"
)

// Active reports whether the run is still being computed.
func (s RunStatus) Active() bool {
	return s == RunStatusQueued || s == RunStatusInProgress
}

// ToolCallTypeFunction is the only tool call type the client can fulfil.
const ToolCallTypeFunction = "function"

// Run is a snapshot of one server-side run.
type Run struct {
	ID        string
	ThreadID  string
	Status    RunStatus
	ToolCalls []ToolCall // set when Status is requires_action
	LastError string     // set when Status is failed
}

// ToolCall is a request to execute a named function.
type ToolCall struct {
	ID        string
	Type      string
	Name      string
	Arguments string // raw JSON object, possibly empty
}

// ToolOutput answers one ToolCall.
type ToolOutput struct {
	ToolCallID string
	Output     string
}

// Message is the text view of a thread message.
type Message struct {
	ID    string
	Role  string
	RunID string
	Text  string
}

// AssistantInfo describes the configured assistant.
type AssistantInfo struct {
	ID    string
	Name  string
	Model string
}

// FunctionDefinition is a function tool advertised to the assistant.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}
