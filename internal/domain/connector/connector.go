package connector

import (
	"context"
	"strings"
)

// Account is a user's connected third-party account.
type Account struct {
	ID      string
	Toolkit string
	Status  string
}

// AccountStatusActive marks a usable connected account.
const AccountStatusActive = "ACTIVE"

// Toolkit describes an integration available for connection.
type Toolkit struct {
	Slug        string
	Name        string
	Description string
	LogoURL     string
	AuthSchemes []string
}

// Client talks to the connector broker. Accounts are scoped to the
// individual user, not the organization.
type Client interface {
	ListAccounts(ctx context.Context, userID string) ([]Account, error)
	ListToolkits(ctx context.Context) ([]Toolkit, error)
	Authorize(ctx context.Context, userID, toolkitSlug string) (string, error)
	DeleteAccount(ctx context.Context, accountID string) error
}

// NormalizeSlug canonicalizes toolkit slugs for comparison. Broker
// responses are inconsistent about case and dashes.
func NormalizeSlug(slug string) string {
	slug = strings.ToLower(strings.TrimSpace(slug))
	slug = strings.ReplaceAll(slug, "-", "")
	slug = strings.ReplaceAll(slug, "_", "")
	return slug
}
