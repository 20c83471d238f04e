package flowengine

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func collect(t *testing.T, stream string) ([]Event, string, error) {
	t.Helper()
	var events []Event
	finalText, err := parseStream(strings.NewReader(stream), func(event Event) {
		events = append(events, event)
	}, zerolog.Nop())
	return events, finalText, err
}

func TestParseStream_TokenDeltas(t *testing.T) {
	stream := strings.Join([]string{
		`data: {"event":"token","data":{"chunk":"Hel"}}`,
		`data: {"event":"token","data":{"chunk":"lo"}}`,
	}, "\n")

	events, finalText, err := collect(t, stream)
	if err != nil {
		t.Fatalf("parseStream() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events len = %d, want 2", len(events))
	}
	if events[1].FullText != "Hello" {
		t.Errorf("FullText = %q, want %q", events[1].FullText, "Hello")
	}
	if finalText != "Hello" {
		t.Errorf("finalText = %q, want %q", finalText, "Hello")
	}
}

func TestParseStream_FullTextOverridesDeltas(t *testing.T) {
	stream := strings.Join([]string{
		`data: {"event":"token","data":{"chunk":"Hel"}}`,
		`data: {"event":"token","data":{"chunk":"lo"}}`,
		`data: {"event":"token","data":{"text":"Hello there"}}`,
		`data: {"event":"token","data":{"chunk":"!"}}`,
	}, "\n")

	events, finalText, err := collect(t, stream)
	if err != nil {
		t.Fatalf("parseStream() error = %v", err)
	}
	last := events[len(events)-1]
	if last.FullText != "Hello there!" {
		t.Errorf("FullText = %q, want full text override plus trailing delta", last.FullText)
	}
	if finalText != "Hello there!" {
		t.Errorf("finalText = %q, want %q", finalText, "Hello there!")
	}
}

func TestParseStream_UserEchoDiscarded(t *testing.T) {
	stream := strings.Join([]string{
		`data: {"event":"add_message","data":{"id":"m1","sender":"User","text":"what is my churn?","properties":{"state":"complete"}}}`,
		`data: {"event":"add_message","data":{"id":"m2","sender_name":"User","text":"what is my churn?","properties":{"state":"complete"}}}`,
	}, "\n")

	events, finalText, err := collect(t, stream)
	if err != nil {
		t.Fatalf("parseStream() error = %v", err)
	}
	if len(events) != 0 {
		t.Errorf("events = %v, want user echoes discarded", events)
	}
	if finalText != "" {
		t.Errorf("finalText = %q, want empty", finalText)
	}
}

func TestParseStream_PartialThenCompleteNoDuplicates(t *testing.T) {
	partial := `data: {"event":"add_message","data":{"id":"m1","sender":"Machine","properties":{"state":"partial"},"content_blocks":[{"title":"Agent Steps","contents":[{"type":"text","text":"thinking about revenue"}]}]}}`
	complete := `data: {"event":"add_message","data":{"id":"m1","sender":"Machine","text":"the answer","properties":{"state":"complete"},"content_blocks":[{"title":"Agent Steps","contents":[{"type":"text","text":"thinking about revenue"},{"type":"tool_use","name":"supabase_query","tool_input":{"table":"orders"},"output":"42 rows","duration":120.5}]}]}}`
	repeat := complete

	events, finalText, err := collect(t, partial+"\n"+complete+"\n"+repeat)
	if err != nil {
		t.Fatalf("parseStream() error = %v", err)
	}

	var reasoning, tools, messages int
	for _, event := range events {
		switch event.Type {
		case EventReasoning:
			reasoning++
		case EventTool:
			tools++
			if event.Tool.Name != "supabase_query" {
				t.Errorf("tool name = %q", event.Tool.Name)
			}
			if event.Tool.Duration == nil || *event.Tool.Duration != 120.5 {
				t.Errorf("tool duration = %v", event.Tool.Duration)
			}
		case EventMessage:
			messages++
		}
	}

	if reasoning != 1 {
		t.Errorf("reasoning events = %d, want 1 (no duplicate for same step)", reasoning)
	}
	if tools != 1 {
		t.Errorf("tool events = %d, want 1", tools)
	}
	if messages != 2 {
		t.Errorf("message events = %d, want 2 (one per complete frame with text)", messages)
	}
	if finalText != "the answer" {
		t.Errorf("finalText = %q, want %q", finalText, "the answer")
	}
}

func TestParseStream_PartialFramesSurfaceOnlyNewSteps(t *testing.T) {
	first := `data: {"event":"add_message","data":{"id":"m1","sender":"Machine","properties":{"state":"partial"},"content_blocks":[{"title":"Agent Steps","contents":[{"type":"text","text":"step one"}]}]}}`
	second := `data: {"event":"add_message","data":{"id":"m1","sender":"Machine","properties":{"state":"partial"},"content_blocks":[{"title":"Agent Steps","contents":[{"type":"text","text":"step one"},{"type":"text","text":"step two"}]}]}}`

	events, _, err := collect(t, first+"\n"+second)
	if err != nil {
		t.Fatalf("parseStream() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events len = %d, want 2", len(events))
	}
	if events[0].Content != "step one" || events[1].Content != "step two" {
		t.Errorf("events = %v, want incremental steps only", events)
	}
}

func TestParseStream_EndResultExtraction(t *testing.T) {
	stream := `data: {"event":"end","data":{"result":{"outputs":[{"outputs":[{"results":{"message":{"text":"nested final"}}}]}]}}}`

	_, finalText, err := collect(t, stream)
	if err != nil {
		t.Fatalf("parseStream() error = %v", err)
	}
	if finalText != "nested final" {
		t.Errorf("finalText = %q, want %q", finalText, "nested final")
	}
}

func TestParseStream_EndResultRegexFallback(t *testing.T) {
	stream := `data: {"event":"end","data":{"result":{"unexpected":{"deep":{"text":"fallback final"}}}}}`

	_, finalText, err := collect(t, stream)
	if err != nil {
		t.Fatalf("parseStream() error = %v", err)
	}
	if finalText != "fallback final" {
		t.Errorf("finalText = %q, want regex fallback value", finalText)
	}
}

func TestParseStream_MalformedFrameSkipped(t *testing.T) {
	stream := strings.Join([]string{
		`data: {"event":"token","data":{"chunk":"ok"}}`,
		`data: {not valid json`,
		`random noise line`,
		`data: {"event":"token","data":{"chunk":" fine"}}`,
	}, "\n")

	events, finalText, err := collect(t, stream)
	if err != nil {
		t.Fatalf("parseStream() error = %v", err)
	}
	if len(events) != 2 {
		t.Errorf("events len = %d, want malformed frames skipped", len(events))
	}
	if finalText != "ok fine" {
		t.Errorf("finalText = %q, want %q", finalText, "ok fine")
	}
}

func TestParseStream_ErrorFrameIsTerminal(t *testing.T) {
	stream := strings.Join([]string{
		`data: {"event":"token","data":{"chunk":"partial"}}`,
		`data: {"event":"error","data":{"error":"flow crashed"}}`,
		`data: {"event":"token","data":{"chunk":"never seen"}}`,
	}, "\n")

	_, _, err := collect(t, stream)
	if err == nil {
		t.Fatal("parseStream() error = nil, want engine error")
	}
	if !strings.Contains(err.Error(), "flow crashed") {
		t.Errorf("error = %v, want engine message included", err)
	}
}

func TestParseStream_MessageTextWithoutCompleteNotEmitted(t *testing.T) {
	stream := `data: {"event":"add_message","data":{"id":"m1","sender":"Machine","text":"draft answer","properties":{"state":"partial"}}}`

	events, finalText, err := collect(t, stream)
	if err != nil {
		t.Fatalf("parseStream() error = %v", err)
	}
	for _, event := range events {
		if event.Type == EventMessage {
			t.Error("partial message should not emit a message event")
		}
	}
	if finalText != "draft answer" {
		t.Errorf("finalText = %q, partial text still counts as last known good", finalText)
	}
}

func TestExtractResultText(t *testing.T) {
	nested := []byte(`{"outputs":[{"outputs":[{"results":{"message":{"text":"hello"}}}]}]}`)
	if got := extractResultText(nested); got != "hello" {
		t.Errorf("extractResultText(nested) = %q, want hello", got)
	}

	flat := []byte(`{"message":{"text":"from regex"}}`)
	if got := extractResultText(flat); got != "from regex" {
		t.Errorf("extractResultText(flat) = %q, want from regex", got)
	}

	empty := []byte(`{"outputs":[]}`)
	if got := extractResultText(empty); got != "" {
		t.Errorf("extractResultText(empty) = %q, want empty", got)
	}
}
