package flowengine

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"invision-server/internal/config"
	"invision-server/internal/utils/httpclients"
	"invision-server/internal/utils/platformerrors"
)

// Client invokes workflows on the external flow-execution engine.
type Client struct {
	client  *resty.Client
	baseURL string
	apiKey  string
	log     zerolog.Logger
}

// NewClient creates a flow-engine client from service configuration.
func NewClient(cfg *config.Config, log zerolog.Logger) *Client {
	client := httpclients.NewClient("flowengine", log).
		SetTimeout(cfg.StreamTimeout)
	return &Client{
		client:  client,
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.FlowEngineURL), "/"),
		apiKey:  cfg.FlowEngineAPIKey,
		log:     log,
	}
}

// RunRequest is the engine's run payload.
type RunRequest struct {
	OutputType string         `json:"output_type"`
	InputType  string         `json:"input_type"`
	InputValue string         `json:"input_value"`
	Tweaks     map[string]any `json:"tweaks,omitempty"`
	SessionID  string         `json:"session_id,omitempty"`
	Stream     bool           `json:"stream"`
}

// NewChatRunRequest builds a chat-shaped run payload.
func NewChatRunRequest(message string, tweaks map[string]any, sessionID string) RunRequest {
	return RunRequest{
		OutputType: "chat",
		InputType:  "chat",
		InputValue: message,
		Tweaks:     tweaks,
		SessionID:  sessionID,
	}
}

// RunStream executes a workflow with streaming output, invoking callback
// once per event in emission order, and returns the final text. The
// request is bound to ctx, so a downstream disconnect cancels the upstream
// run. No retry is attempted; workflow invocation may not be idempotent.
func (c *Client) RunStream(ctx context.Context, flowID string, request RunRequest, callback Callback) (string, error) {
	request.Stream = true

	resp, err := c.prepareRequest(ctx).
		SetBody(request).
		SetDoNotParseResponse(true).
		SetHeader("Accept-Encoding", "identity").
		Post(c.runEndpoint(flowID))
	if err != nil {
		return "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "flow engine streaming request failed", err, "5264e2b8-5e19-4f07-abf3-b666521be171")
	}

	body := resp.RawBody()
	if resp.IsError() {
		defer closeBody(body, c.log)
		raw, _ := io.ReadAll(body)
		message := strings.TrimSpace(string(raw))
		if message == "" {
			message = resp.Status()
		}
		return "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, fmt.Sprintf("flow engine streaming request failed: %s", message), nil, "79bf4e02-b6e1-4a9b-b40e-7880b52b4686")
	}
	if body == nil {
		return "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "flow engine streaming request failed: empty response body", nil, "921a7ca1-9866-4b08-8c33-4a5f55afeaf5")
	}
	defer closeBody(body, c.log)

	finalText, err := parseStream(body, callback, c.log)
	if err != nil {
		return "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "flow engine stream failed", err, "2261bec3-6b0a-4f9c-9621-950ed64b0e0c")
	}
	return finalText, nil
}

func (c *Client) prepareRequest(ctx context.Context) *resty.Request {
	req := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json")
	if strings.TrimSpace(c.apiKey) != "" {
		req.SetHeader("x-api-key", c.apiKey)
	}
	return req
}

func (c *Client) runEndpoint(flowID string) string {
	return fmt.Sprintf("%s/api/v1/run/%s?stream=true", c.baseURL, flowID)
}

func closeBody(body io.ReadCloser, log zerolog.Logger) {
	if body == nil {
		return
	}
	if err := body.Close(); err != nil {
		log.Error().Err(err).Str("client", "flowengine").Msg("unable to close response body")
	}
}
