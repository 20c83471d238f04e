package reconcile

// ToolCall records one external tool invocation surfaced during a turn.
type ToolCall struct {
	Name     string
	Input    map[string]any
	Output   string
	Duration float64
}

// Turn holds the in-flight state of one request-response cycle. It is
// discarded once the turn's final message is committed.
type Turn struct {
	Text      string
	Reasoning []string
	Tools     []ToolCall
	Streaming bool
}

// NewTurn starts a streaming turn.
func NewTurn() *Turn {
	return &Turn{Streaming: true}
}

// ApplyToken folds a token event into the accumulated text. A non-empty
// fullText is authoritative and replaces everything accumulated so far;
// the upstream contract does not guarantee cumulative chunking.
func (t *Turn) ApplyToken(chunk, fullText string) {
	if fullText != "" {
		t.Text = fullText
		return
	}
	t.Text += chunk
}

// AddReasoning appends a reasoning fragment.
func (t *Turn) AddReasoning(content string) {
	t.Reasoning = append(t.Reasoning, content)
}

// AddTool appends a tool invocation record.
func (t *Turn) AddTool(call ToolCall) {
	t.Tools = append(t.Tools, call)
}

// Finish marks the turn complete, fixing the final text.
func (t *Turn) Finish(finalText string) {
	if finalText != "" {
		t.Text = finalText
	}
	t.Streaming = false
}
