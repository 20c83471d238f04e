package connector

import (
	"context"
	"time"

	"invision-server/internal/utils/platformerrors"
)

const (
	accountsCacheTTL = 30 * time.Second
	toolkitsCacheTTL = 5 * time.Minute
)

// Service exposes connected accounts and toolkits with short-lived caching
// in front of the broker.
type Service struct {
	client   Client
	accounts *KeyedCache[[]Account]
	toolkits *Cache[[]Toolkit]
}

// NewService creates a connector service using the real clock.
func NewService(client Client) *Service {
	return NewServiceWithClock(client, time.Now)
}

// NewServiceWithClock creates a connector service with an injected clock.
func NewServiceWithClock(client Client, clock func() time.Time) *Service {
	return &Service{
		client:   client,
		accounts: NewKeyedCache[[]Account](accountsCacheTTL, clock),
		toolkits: NewCache[[]Toolkit](toolkitsCacheTTL, clock),
	}
}

// ConnectedAccounts returns the user's connected accounts, cached for a
// short window to absorb bursty polling.
func (s *Service) ConnectedAccounts(ctx context.Context, userID string) ([]Account, error) {
	if cached, ok := s.accounts.Get(userID); ok {
		return cached, nil
	}

	accounts, err := s.client.ListAccounts(ctx, userID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list connected accounts")
	}

	s.accounts.Set(userID, accounts)
	return accounts, nil
}

// Toolkits returns the broker's toolkit catalog, cached globally.
func (s *Service) Toolkits(ctx context.Context) ([]Toolkit, error) {
	if cached, ok := s.toolkits.Get(); ok {
		return cached, nil
	}

	toolkits, err := s.client.ListToolkits(ctx)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list toolkits")
	}

	s.toolkits.Set(toolkits)
	return toolkits, nil
}

// InvalidateAccounts drops the user's cached accounts, used after a new
// connection completes so the next read is fresh.
func (s *Service) InvalidateAccounts(userID string) {
	s.accounts.Invalidate(userID)
}

// Authorize starts the connection flow for a toolkit and returns the URL
// the caller must be redirected to.
func (s *Service) Authorize(ctx context.Context, userID, toolkitSlug string) (string, error) {
	redirectURL, err := s.client.Authorize(ctx, userID, toolkitSlug)
	if err != nil {
		return "", platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to start connector authorization")
	}
	return redirectURL, nil
}

// DeleteAccount removes a connected account and drops the user's cached
// account list.
func (s *Service) DeleteAccount(ctx context.Context, userID, accountID string) error {
	if err := s.client.DeleteAccount(ctx, accountID); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete connected account")
	}
	s.accounts.Invalidate(userID)
	return nil
}

// MissingRequired returns the required connector slugs the user has no
// active account for. Slugs are compared in normalized form.
func (s *Service) MissingRequired(ctx context.Context, userID string, required []string) ([]string, error) {
	if len(required) == 0 {
		return nil, nil
	}

	accounts, err := s.ConnectedAccounts(ctx, userID)
	if err != nil {
		return nil, err
	}

	connected := make(map[string]bool, len(accounts))
	for _, account := range accounts {
		if account.Status == AccountStatusActive {
			connected[NormalizeSlug(account.Toolkit)] = true
		}
	}

	var missing []string
	for _, slug := range required {
		if !connected[NormalizeSlug(slug)] {
			missing = append(missing, slug)
		}
	}
	return missing, nil
}

// RequireConnected fails with a precondition error naming the missing
// connectors when the user is not fully connected.
func (s *Service) RequireConnected(ctx context.Context, userID string, required []string) error {
	missing, err := s.MissingRequired(ctx, userID, required)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypePrecondition, "required connectors are not connected", nil, "9be31533-85df-4c76-8ba5-7cec7d57f099", map[string]any{
			"missing_connectors": missing,
		})
	}
	return nil
}
