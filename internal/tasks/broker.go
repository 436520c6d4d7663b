package tasks

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/desertthunder/snaptunes/internal/models"
	"github.com/desertthunder/snaptunes/internal/services"
	"github.com/desertthunder/snaptunes/internal/shared"
)

// Query parameters carrying the credential in a hand-off redirect.
const (
	AccessTokenParam  = "spotify_access_token"
	RefreshTokenParam = "spotify_refresh_token"
)

// Broker exchanges authorization grants for credentials.
type Broker struct {
	provider services.OAuthService
	now      func() time.Time
}

// NewBroker creates a broker for provider.
func NewBroker(provider services.OAuthService) *Broker {
	return &Broker{provider: provider, now: time.Now}
}

// BeginAuthorization returns the provider's consent URL. state may be empty.
func (b *Broker) BeginAuthorization(state string) string {
	return b.provider.AuthCodeURL(state)
}

// CompleteAuthorization exchanges code for a [models.Credential].
//
// A blank code fails with [shared.ErrMissingCode]. A rejected exchange or a response without an
// access token fails with [shared.ErrExchangeFailed], carrying the provider's error body when one was returned.
func (b *Broker) CompleteAuthorization(ctx context.Context, code string) (models.Credential, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return models.Credential{}, shared.ErrMissingCode
	}

	token, err := b.provider.Exchange(ctx, code)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return models.Credential{}, ctxErr
		}
		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) && len(rErr.Body) > 0 {
			return models.Credential{}, fmt.Errorf("%w: %s", shared.ErrExchangeFailed, strings.TrimSpace(string(rErr.Body)))
		}
		return models.Credential{}, fmt.Errorf("%w: %v", shared.ErrExchangeFailed, err)
	}
	if token == nil || token.AccessToken == "" {
		return models.Credential{}, fmt.Errorf("%w: response has no access_token", shared.ErrExchangeFailed)
	}

	return models.Credential{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		IssuedAt:     b.now(),
		ExpiresAt:    token.Expiry,
	}, nil
}

// HandoffURL appends the credential's tokens to appRoot as one-time query parameters.
// The refresh token parameter is always present, empty when there is none.
func HandoffURL(appRoot string, cred models.Credential) (string, error) {
	if !cred.Valid() {
		return "", shared.ErrNotAuthenticated
	}

	u, err := url.Parse(appRoot)
	if err != nil {
		return "", fmt.Errorf("%w: app url: %v", shared.ErrInvalidConfig, err)
	}

	q := u.Query()
	q.Set(AccessTokenParam, cred.AccessToken)
	q.Set(RefreshTokenParam, cred.RefreshToken)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
