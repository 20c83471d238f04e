package flowengine

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

const (
	dataPrefix           = "data: "
	scannerInitialBuffer = 12 * 1024        // 12KB
	scannerMaxBuffer     = 10 * 1024 * 1024 // 10MB

	agentStepsTitle = "Agent Steps"
	senderUser      = "User"

	statePartial  = "partial"
	stateComplete = "complete"
)

// engineFrame is one upstream event. Every field is optional; the engine's
// shapes vary and missing fields degrade to empty defaults.
type engineFrame struct {
	Event string          `json:"event"`
	Data  engineFrameData `json:"data"`
}

type engineFrameData struct {
	Chunk         string          `json:"chunk"`
	Text          string          `json:"text"`
	ID            string          `json:"id"`
	Sender        string          `json:"sender"`
	SenderName    string          `json:"sender_name"`
	Properties    map[string]any  `json:"properties"`
	ContentBlocks []contentBlock  `json:"content_blocks"`
	Result        json.RawMessage `json:"result"`
	Error         string          `json:"error"`
}

type contentBlock struct {
	Title    string         `json:"title"`
	Contents []blockContent `json:"contents"`
}

type blockContent struct {
	Type      string         `json:"type"`
	Name      string         `json:"name"`
	ToolInput map[string]any `json:"tool_input"`
	Output    any            `json:"output"`
	Duration  *float64       `json:"duration"`
	Text      string         `json:"text"`
}

// streamParser folds upstream frames into downstream events. Reasoning and
// tool steps are tracked per upstream message ID: partial frames repeat the
// steps emitted so far, so only the tail beyond the surfaced count goes
// out, and a complete frame fixes the ID so later repeats are dropped.
type streamParser struct {
	emit Callback
	log  zerolog.Logger

	fullText      string
	finalText     string
	surfacedSteps map[string]int
	completedIDs  map[string]bool
	frameCount    int
}

// parseStream consumes an upstream event-stream body and invokes emit once
// per downstream event, in order. It returns the last known good text. A
// malformed frame is skipped; an engine error frame or transport failure is
// terminal.
func parseStream(r io.Reader, emit Callback, log zerolog.Logger) (string, error) {
	parser := &streamParser{
		emit:          emit,
		log:           log,
		surfacedSteps: make(map[string]int),
		completedIDs:  make(map[string]bool),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, scannerInitialBuffer), scannerMaxBuffer)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}

		var payload string
		if data, found := strings.CutPrefix(line, dataPrefix); found {
			payload = strings.TrimSpace(data)
		} else if strings.HasPrefix(line, "{") {
			payload = line
		} else {
			continue
		}

		var frame engineFrame
		if err := json.Unmarshal([]byte(payload), &frame); err != nil {
			log.Debug().Err(err).Str("frame", truncate(payload, 200)).Msg("skipping malformed stream frame")
			continue
		}

		if err := parser.handleFrame(frame); err != nil {
			return "", err
		}
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read stream: %w", err)
	}

	if parser.finalText != "" {
		return parser.finalText, nil
	}
	return parser.fullText, nil
}

func (p *streamParser) handleFrame(frame engineFrame) error {
	p.frameCount++

	switch frame.Event {
	case "token":
		p.handleToken(frame.Data)
	case "add_message":
		p.handleAddMessage(frame.Data)
	case "end":
		p.handleEnd(frame.Data)
	case "error":
		return p.errorFromFrame(frame.Data)
	default:
		p.log.Debug().Str("event", frame.Event).Msg("ignoring unknown stream event")
	}
	return nil
}

// handleToken folds a token frame into the accumulated text. A frame
// carrying the full text so far is authoritative and replaces accumulated
// deltas; the upstream contract does not guarantee cumulative chunking.
func (p *streamParser) handleToken(data engineFrameData) {
	switch {
	case data.Text != "":
		p.fullText = data.Text
	case data.Chunk != "":
		p.fullText += data.Chunk
	default:
		return
	}

	p.emit(Event{Type: EventToken, Chunk: data.Chunk, FullText: p.fullText})
}

func (p *streamParser) handleAddMessage(data engineFrameData) {
	// Request echoes carry the caller as sender and are never surfaced.
	if data.Sender == senderUser || data.SenderName == senderUser {
		return
	}

	state, _ := data.Properties["state"].(string)
	if state == statePartial || state == stateComplete {
		p.surfaceSteps(data, state)
	}

	if data.Text != "" {
		p.finalText = data.Text
		if state == stateComplete {
			p.emit(Event{Type: EventMessage, Text: data.Text, Complete: true})
		}
	}
}

func (p *streamParser) surfaceSteps(data engineFrameData, state string) {
	id := data.ID
	if id == "" {
		id = fmt.Sprintf("unknown-%d", p.frameCount)
	}
	if state == stateComplete && p.completedIDs[id] {
		return
	}

	steps := collectSteps(data.ContentBlocks)
	for _, step := range steps[min(p.surfacedSteps[id], len(steps)):] {
		p.emit(step)
	}
	if len(steps) > p.surfacedSteps[id] {
		p.surfacedSteps[id] = len(steps)
	}
	if state == stateComplete {
		p.completedIDs[id] = true
	}
}

func collectSteps(blocks []contentBlock) []Event {
	var steps []Event
	for _, block := range blocks {
		if block.Title != agentStepsTitle {
			continue
		}
		for _, content := range block.Contents {
			switch content.Type {
			case "tool_use":
				steps = append(steps, Event{
					Type: EventTool,
					Tool: &ToolInvocation{
						Name:     content.Name,
						Input:    content.ToolInput,
						Output:   content.Output,
						Duration: content.Duration,
					},
				})
			case "text":
				if content.Text != "" {
					steps = append(steps, Event{Type: EventReasoning, Content: content.Text})
				}
			}
		}
	}
	return steps
}

// handleEnd pulls the authoritative final text out of the terminal frame's
// nested result when present.
func (p *streamParser) handleEnd(data engineFrameData) {
	if len(data.Result) == 0 {
		return
	}
	if text := extractResultText(data.Result); text != "" {
		p.finalText = text
	}
}

func (p *streamParser) errorFromFrame(data engineFrameData) error {
	switch {
	case data.Error != "":
		return fmt.Errorf("engine error: %s", data.Error)
	case data.Text != "":
		return fmt.Errorf("engine error: %s", data.Text)
	default:
		return fmt.Errorf("engine error")
	}
}

// runResult mirrors the engine's nested run output shape.
type runResult struct {
	Outputs []struct {
		Outputs []struct {
			Results struct {
				Message struct {
					Text string `json:"text"`
				} `json:"message"`
			} `json:"results"`
		} `json:"outputs"`
	} `json:"outputs"`
}

var resultTextPattern = regexp.MustCompile(`"text"\s*:\s*"([^"]+)"`)

// extractResultText digs the message text out of a run result. When the
// nested path is absent it falls back to scanning the raw payload for the
// first text field.
func extractResultText(raw []byte) string {
	var result runResult
	if err := json.Unmarshal(raw, &result); err == nil {
		if len(result.Outputs) > 0 && len(result.Outputs[0].Outputs) > 0 {
			if text := result.Outputs[0].Outputs[0].Results.Message.Text; text != "" {
				return text
			}
		}
	}

	if match := resultTextPattern.FindSubmatch(raw); match != nil {
		return string(match[1])
	}
	return ""
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
