package flowengine

// EventType classifies the events surfaced while a workflow run streams.
type EventType string

const (
	EventToken     EventType = "token"
	EventReasoning EventType = "reasoning"
	EventTool      EventType = "tool"
	EventMessage   EventType = "message"
)

// ToolInvocation records one tool call the engine made during a run.
type ToolInvocation struct {
	Name     string
	Input    map[string]any
	Output   any
	Duration *float64
}

// Event is one discrete update from an in-flight workflow run.
type Event struct {
	Type EventType

	// token
	Chunk    string
	FullText string

	// reasoning
	Content string

	// tool
	Tool *ToolInvocation

	// message
	Text     string
	Complete bool
}

// Callback receives events in the order the engine emits them.
type Callback func(Event)
