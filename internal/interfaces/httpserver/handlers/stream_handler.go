package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"invision-server/internal/domain/chatsession"
	"invision-server/internal/domain/connector"
	"invision-server/internal/domain/organization"
	"invision-server/internal/domain/workflow"
	"invision-server/internal/infrastructure/flowengine"
	"invision-server/internal/infrastructure/metrics"
	"invision-server/internal/infrastructure/observability"
	"invision-server/internal/interfaces/httpserver/responses"
	"invision-server/internal/utils/idgen"
	"invision-server/internal/utils/platformerrors"
)

// closeGraceDelay keeps the connection open briefly after the last flush so
// slow transports deliver the final frame before the channel closes.
const closeGraceDelay = 200 * time.Millisecond

// StreamHandler owns the server-sent-events channel for one turn: it
// resolves the session, launches the workflow and forwards engine events to
// the browser in emission order, then commits the final transcript.
type StreamHandler struct {
	sessions      *chatsession.Service
	organizations *organization.Service
	connectors    *connector.Service
	engine        *flowengine.Client
	log           zerolog.Logger
}

// NewStreamHandler constructs the handler.
func NewStreamHandler(
	sessions *chatsession.Service,
	organizations *organization.Service,
	connectors *connector.Service,
	engine *flowengine.Client,
	log zerolog.Logger,
) *StreamHandler {
	return &StreamHandler{
		sessions:      sessions,
		organizations: organizations,
		connectors:    connectors,
		engine:        engine,
		log:           log.With().Str("handler", "stream").Logger(),
	}
}

// Stream handles GET /v1/chat/stream
// @Summary Stream one conversation turn
// @Description Runs the session's workflow with the given message and relays engine events as a server-sent event stream.
// @Tags Chat
// @Produce text/event-stream
// @Param sessionId query string true "Session ID"
// @Param message query string true "User message"
// @Success 200 {string} string "event stream"
// @Failure 400 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Failure 412 {object} responses.ErrorResponse
// @Router /v1/chat/stream [get]
func (h *StreamHandler) Stream(c *gin.Context) {
	identity, organizationID, ok := resolveTenant(c, h.organizations)
	if !ok {
		return
	}

	sessionID := strings.TrimSpace(c.Query("sessionId"))
	message := c.Query("message")
	if sessionID == "" || strings.TrimSpace(message) == "" {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "sessionId and message are required", "0ac1df6b-1aad-4e18-a6f2-6497fb158588")
		return
	}
	if !idgen.ValidateIDFormat(sessionID, "sess") {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "sessionId is malformed", "9d5c6231-99ea-48d1-a16c-763b4f361d83")
		return
	}

	ctx := c.Request.Context()

	session, definition, err := h.sessions.ResolveForStream(ctx, sessionID, identity.UserID, organizationID)
	if err != nil {
		responses.HandleError(c, err, "session not found")
		return
	}

	if err := h.connectors.RequireConnected(ctx, identity.UserID, definition.RequiredConnectors); err != nil {
		responses.HandleError(c, err, "required connectors are not connected")
		return
	}

	// The user message is committed before streaming begins so it survives
	// a mid-stream failure.
	if _, err := h.sessions.AppendUserMessage(ctx, session, message); err != nil {
		responses.HandleError(c, err, "failed to record message")
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		responses.HandleNewError(c, platformerrors.ErrorTypeInternal, "streaming not supported", "a756f5c9-df6b-411a-b02f-dbe1eafa463e")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	gateway := newSSEGateway(c.Writer, flusher, h.log)

	tweaks := workflow.SubstituteVariables(definition.Tweaks, workflow.Variables{
		OrganizationID: organizationID,
		UserID:         identity.UserID,
		SessionID:      session.PublicID,
	})

	ctx, span := observability.StartStreamSpan(ctx, session.PublicID, definition.PublicID, definition.FlowID)
	defer span.End()

	start := time.Now()
	request := flowengine.NewChatRunRequest(message, tweaks, session.PublicID)

	// The request context is handed to the engine call, so a client
	// disconnect cancels the upstream invocation.
	finalText, err := h.engine.RunStream(ctx, definition.FlowID, request, gateway.Forward)
	if err != nil {
		observability.RecordError(span, err)
		metrics.RecordStream(definition.PublicID, "error", time.Since(start).Seconds())
		gateway.SendError(err)
		return
	}

	if _, err := h.sessions.FinalizeAssistant(ctx, session.PublicID, identity.UserID, organizationID, finalText); err != nil {
		observability.RecordError(span, err)
		metrics.RecordStream(definition.PublicID, "error", time.Since(start).Seconds())
		gateway.SendError(err)
		return
	}

	metrics.RecordStream(definition.PublicID, "success", time.Since(start).Seconds())
	gateway.SendFinal(finalText)
	time.Sleep(closeGraceDelay)
}

// sseGateway serializes engine events onto the wire, one frame per event,
// flushed immediately and in emission order.
type sseGateway struct {
	writer  http.ResponseWriter
	flusher http.Flusher
	log     zerolog.Logger
}

func newSSEGateway(w http.ResponseWriter, flusher http.Flusher, log zerolog.Logger) *sseGateway {
	return &sseGateway{
		writer:  w,
		flusher: flusher,
		log:     log,
	}
}

// Forward writes one engine event as a wire frame.
func (g *sseGateway) Forward(event flowengine.Event) {
	switch event.Type {
	case flowengine.EventToken:
		payload := map[string]any{}
		if event.Chunk != "" {
			payload["chunk"] = event.Chunk
		}
		if event.FullText != "" {
			payload["fullText"] = event.FullText
		}
		g.sendEvent("token", payload)
	case flowengine.EventReasoning:
		g.sendEvent("reasoning", map[string]any{"content": event.Content})
	case flowengine.EventTool:
		if event.Tool == nil {
			return
		}
		payload := map[string]any{
			"name":   event.Tool.Name,
			"input":  event.Tool.Input,
			"output": event.Tool.Output,
		}
		if event.Tool.Duration != nil {
			payload["duration"] = *event.Tool.Duration
		}
		g.sendEvent("tool", payload)
	case flowengine.EventMessage:
		g.sendEvent("message", map[string]any{
			"text":     event.Text,
			"complete": event.Complete,
		})
	}
}

// SendFinal emits the terminal frames: the complete text followed by the
// end marker.
func (g *sseGateway) SendFinal(text string) {
	g.sendEvent("message", map[string]any{
		"text":     text,
		"complete": true,
	})
	g.sendEvent("end", map[string]any{})
}

// SendError emits the single terminal error frame.
func (g *sseGateway) SendError(err error) {
	message := "workflow execution failed"
	var platformErr *platformerrors.PlatformError
	if errors.As(err, &platformErr) {
		message = platformErr.Message
	}
	g.sendEvent("error", map[string]any{"error": message})
}

func (g *sseGateway) sendEvent(name string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		g.log.Error().Err(err).Msg("marshal SSE payload")
		return
	}

	fmt.Fprintf(g.writer, "event: %s\n", name)
	fmt.Fprintf(g.writer, "data: %s\n\n", data)
	g.flusher.Flush()
	metrics.RecordStreamEvent(name)
}
