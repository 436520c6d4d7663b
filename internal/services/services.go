// package services defines the remote collaborators of the pipeline
package services

import (
	"context"

	"github.com/desertthunder/snaptunes/internal/models"
	"golang.org/x/oauth2"
)

// CompletionService is a language model backend that answers a single prompt with raw text.
type CompletionService interface {
	// Complete sends prompt and returns the model's text content.
	// An empty string means the backend returned no content.
	Complete(ctx context.Context, prompt string) (string, error)

	// Name returns the backend name (e.g., "openai", "gemini")
	Name() string
}

// OAuthService is an OAuth2 authorization-code provider.
type OAuthService interface {
	// AuthCodeURL returns the provider's consent URL for state.
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for a token.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// CatalogService searches the catalog and mutates playlists on behalf of a credential.
type CatalogService interface {
	// SearchTrack returns the top track for query, or nil when there are no results.
	SearchTrack(ctx context.Context, cred models.Credential, query string) (*SpotifyTrack, error)

	// CurrentUser returns the profile that owns cred.
	CurrentUser(ctx context.Context, cred models.Credential) (*SpotifyUser, error)

	// CreatePlaylist creates an empty playlist owned by userID.
	CreatePlaylist(ctx context.Context, cred models.Credential, userID string, p NewPlaylist) (*SpotifyPlaylist, error)

	// AddTracks appends uris to a playlist in a single request.
	AddTracks(ctx context.Context, cred models.Credential, playlistID string, uris []string) error
}

// NewPlaylist is the body of a playlist creation request.
type NewPlaylist struct {
	Name        string `json:"name"`
	Public      bool   `json:"public"`
	Description string `json:"description"`
}
