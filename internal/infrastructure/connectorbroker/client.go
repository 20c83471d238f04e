package connectorbroker

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"invision-server/internal/config"
	"invision-server/internal/domain/connector"
	"invision-server/internal/utils/functional"
	"invision-server/internal/utils/httpclients"
	"invision-server/internal/utils/platformerrors"
)

// Client talks to the connector broker's REST API.
type Client struct {
	client *resty.Client
}

// NewClient creates a broker client from service configuration.
func NewClient(cfg *config.Config, log zerolog.Logger) *Client {
	client := httpclients.NewClient("connectorbroker", log).
		SetBaseURL(strings.TrimRight(strings.TrimSpace(cfg.ConnectorAPIURL), "/")).
		SetTimeout(cfg.ConnectorTimeout).
		SetHeader("x-api-key", cfg.ConnectorAPIKey)
	return &Client{client: client}
}

type accountItem struct {
	ID      string `json:"id"`
	Toolkit struct {
		Slug string `json:"slug"`
	} `json:"toolkit"`
	Status string `json:"status"`
}

type accountsResponse struct {
	Items []accountItem `json:"items"`
}

// ListAccounts returns the connected accounts registered under the user.
func (c *Client) ListAccounts(ctx context.Context, userID string) ([]connector.Account, error) {
	var body accountsResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("user_ids", userID).
		SetResult(&body).
		Get("/api/v3/connected_accounts")
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "connector broker request failed", err, "2990c2ba-8188-47e2-bae6-8886dd9d547b")
	}
	if resp.IsError() {
		return nil, c.errorFromResponse(ctx, resp, "connector broker accounts request failed")
	}

	return functional.Map(body.Items, func(item accountItem) connector.Account {
		return connector.Account{
			ID:      item.ID,
			Toolkit: item.Toolkit.Slug,
			Status:  item.Status,
		}
	}), nil
}

type toolkitItem struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
	Meta struct {
		Description string `json:"description"`
		Logo        string `json:"logo"`
	} `json:"meta"`
	AuthSchemes []string `json:"auth_schemes"`
}

type toolkitsResponse struct {
	Items []toolkitItem `json:"items"`
}

// ListToolkits returns the broker's toolkit catalog.
func (c *Client) ListToolkits(ctx context.Context) ([]connector.Toolkit, error) {
	var body toolkitsResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&body).
		Get("/api/v3/toolkits")
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "connector broker request failed", err, "6e0122a9-35af-4be8-8862-94182229bcd9")
	}
	if resp.IsError() {
		return nil, c.errorFromResponse(ctx, resp, "connector broker toolkits request failed")
	}

	return functional.Map(body.Items, func(item toolkitItem) connector.Toolkit {
		return connector.Toolkit{
			Slug:        item.Slug,
			Name:        item.Name,
			Description: item.Meta.Description,
			LogoURL:     item.Meta.Logo,
			AuthSchemes: item.AuthSchemes,
		}
	}), nil
}

type authorizeRequest struct {
	UserID  string `json:"user_id"`
	Toolkit string `json:"toolkit"`
}

type authorizeResponse struct {
	RedirectURL string `json:"redirect_url"`
}

// Authorize initiates a connection flow for a toolkit and returns the
// broker's redirect URL.
func (c *Client) Authorize(ctx context.Context, userID, toolkitSlug string) (string, error) {
	var body authorizeResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(authorizeRequest{UserID: userID, Toolkit: toolkitSlug}).
		SetResult(&body).
		Post("/api/v3/connected_accounts/link")
	if err != nil {
		return "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "connector broker request failed", err, "ad72d4f9-f62a-4e97-b34d-62266fbbeed3")
	}
	if resp.IsError() {
		return "", c.errorFromResponse(ctx, resp, "connector broker authorize request failed")
	}
	if strings.TrimSpace(body.RedirectURL) == "" {
		return "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "connector broker returned no redirect URL", nil, "17fa6df3-a901-4d4e-965e-b0b393aab1bf")
	}
	return body.RedirectURL, nil
}

// DeleteAccount removes a connected account at the broker.
func (c *Client) DeleteAccount(ctx context.Context, accountID string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		Delete("/api/v3/connected_accounts/" + accountID)
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "connector broker request failed", err, "cc13d02e-1d4d-4655-9e1a-76d7c71be3a7")
	}
	if resp.IsError() {
		return c.errorFromResponse(ctx, resp, "connector broker delete request failed")
	}
	return nil
}

func (c *Client) errorFromResponse(ctx context.Context, resp *resty.Response, message string) error {
	trimmed := strings.TrimSpace(string(resp.Body()))
	if trimmed == "" {
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, fmt.Sprintf("%s: %s", message, resp.Status()), nil, "918e7c28-2955-49e6-a378-f11376c1889a")
	}
	return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, fmt.Sprintf("%s: %s", message, trimmed), nil, "fb607f06-c0fe-40b1-a42a-5e9d9121ab22")
}

// Ensure interface compliance.
var _ connector.Client = (*Client)(nil)
