// Spotify implementation of [OAuthService] and [CatalogService]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/snaptunes/internal/models"
	"github.com/desertthunder/snaptunes/internal/shared"
	"golang.org/x/oauth2"
)

const (
	DefaultSpotifyAuthURL = "https://accounts.spotify.com"
	DefaultSpotifyAPIURL  = "https://api.spotify.com/v1"

	// MaxTracksPerRequest is the catalog's limit on uris per add-tracks call.
	MaxTracksPerRequest = 100
)

// SpotifyScopes is the fixed scope set requested at authorization.
var SpotifyScopes = []string{
	"playlist-modify-public",
	"playlist-modify-private",
	"user-read-email",
	"user-read-private",
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID           string         `json:"id"`
	DisplayName  string         `json:"display_name"`
	Email        string         `json:"email"`
	ExternalURLs externalURLs   `json:"external_urls"`
	Images       []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Artists []SpotifyArtist `json:"artists"`
	Album   SpotifyAlbum    `json:"album"`
	URI     string          `json:"uri"`
}

// ArtistNames joins every contributing artist with ", ".
func (t SpotifyTrack) ArtistNames() string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// ArtworkURL returns the first album image, if any.
func (t SpotifyTrack) ArtworkURL() string {
	if len(t.Album.Images) == 0 {
		return ""
	}
	return t.Album.Images[0].URL
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
}

// Owner is the user that owns a playlist.
type Owner struct {
	ID           string       `json:"id"`
	DisplayName  string       `json:"display_name"`
	ExternalURLs externalURLs `json:"external_urls"`
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Owner        Owner          `json:"owner"`
	Public       bool           `json:"public"`
	ExternalURLs externalURLs   `json:"external_urls"`
	Images       []SpotifyImage `json:"images"`
	URI          string         `json:"uri"`
}

// URL returns the playlist's web URL.
func (p SpotifyPlaylist) URL() string {
	return p.ExternalURLs.Spotify
}

type searchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
	} `json:"tracks"`
}

type addTracksRequest struct {
	URIs []string `json:"uris"`
}

// SpotifyOptions configures [NewSpotifyService].
type SpotifyOptions struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	// AuthURL is the accounts host; /authorize and /api/token are appended.
	AuthURL string
	APIURL  string
	// HTTPClient is used for token exchange and as the base transport for catalog calls.
	HTTPClient *http.Client
}

// SpotifyService talks to the Spotify accounts service and Web API.
type SpotifyService struct {
	config     *oauth2.Config
	baseURL    string
	httpClient *http.Client
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 client identity.
func NewSpotifyService(opts SpotifyOptions) (*SpotifyService, error) {
	if opts.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}
	if opts.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	authURL := strings.TrimRight(opts.AuthURL, "/")
	if authURL == "" {
		authURL = DefaultSpotifyAuthURL
	}
	apiURL := strings.TrimRight(opts.APIURL, "/")
	if apiURL == "" {
		apiURL = DefaultSpotifyAPIURL
	}
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	config := &oauth2.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		RedirectURL:  opts.RedirectURI,
		Scopes:       SpotifyScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   authURL + "/authorize",
			TokenURL:  authURL + "/api/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	return &SpotifyService{config: config, baseURL: apiURL, httpClient: client}, nil
}

// NewSpotifyServiceFromConfig builds a [SpotifyService] from the loaded configuration.
func NewSpotifyServiceFromConfig(cfg *shared.Config, client *http.Client) (*SpotifyService, error) {
	return NewSpotifyService(SpotifyOptions{
		ClientID:     cfg.Credentials.Spotify.ClientID,
		ClientSecret: cfg.Credentials.Spotify.ClientSecret,
		RedirectURI:  cfg.Credentials.Spotify.RedirectURI,
		AuthURL:      cfg.Catalog.AuthURL,
		APIURL:       cfg.Catalog.APIURL,
		HTTPClient:   client,
	})
}

// Name returns the service name
func (s *SpotifyService) Name() string {
	return "Spotify"
}

// AuthCodeURL returns the consent URL. The dialog is always shown so users can switch accounts.
func (s *SpotifyService) AuthCodeURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", "true"))
}

// Exchange trades code for a token at the accounts service.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	return s.config.Exchange(ctx, code)
}

// api returns a JSON client whose transport attaches cred's bearer token.
func (s *SpotifyService) api(ctx context.Context, cred models.Credential) *APIService {
	// Expiry stays zero: the transport must never refresh on its own.
	token := &oauth2.Token{AccessToken: cred.AccessToken, TokenType: "Bearer"}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	return NewAPIService(s.baseURL, oauth2.NewClient(ctx, oauth2.StaticTokenSource(token)))
}

// doRequest performs an authenticated request and decodes a 2xx body into result.
func (s *SpotifyService) doRequest(ctx context.Context, cred models.Credential, method, endpoint string, body, result any) error {
	if !cred.Valid() {
		return shared.ErrNotAuthenticated
	}
	if cred.Expired(time.Now()) {
		return fmt.Errorf("%w: expired at %s", shared.ErrTokenExpired, cred.ExpiresAt.Format(time.RFC3339))
	}

	var data []byte
	if body != nil {
		var err error
		if data, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	resp, err := s.api(ctx, cred).Do(ctx, method, endpoint, data)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", shared.ErrTokenExpired, strings.TrimSpace(string(resp.Body)))
	case !resp.OK():
		return fmt.Errorf("%w: spotify %s %s: status %d: %s",
			shared.ErrAPIRequest, method, endpoint, resp.StatusCode, strings.TrimSpace(string(resp.Body)))
	}

	if result != nil {
		if err := resp.Decode(result); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrUnexpectedResponse, err)
		}
	}
	return nil
}

// searchPath builds the search endpoint for the top track matching query.
// Spaces are encoded as %20, matching encodeURIComponent.
func searchPath(query string) string {
	q := strings.ReplaceAll(url.QueryEscape(query), "+", "%20")
	return "/search?q=" + q + "&type=track&limit=1"
}

// SearchTrack returns the top-ranked track for query, or nil when the result set is empty.
func (s *SpotifyService) SearchTrack(ctx context.Context, cred models.Credential, query string) (*SpotifyTrack, error) {
	var resp searchResponse
	if err := s.doRequest(ctx, cred, http.MethodGet, searchPath(query), nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Tracks.Items) == 0 {
		return nil, nil
	}
	return &resp.Tracks.Items[0], nil
}

// CurrentUser retrieves the current authenticated user's profile.
func (s *SpotifyService) CurrentUser(ctx context.Context, cred models.Credential) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, cred, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreatePlaylist creates an empty playlist for userID.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, cred models.Credential, userID string, p NewPlaylist) (*SpotifyPlaylist, error) {
	var playlist SpotifyPlaylist
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))
	if err := s.doRequest(ctx, cred, http.MethodPost, endpoint, p, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// AddTracks appends up to [MaxTracksPerRequest] uris to playlistID.
func (s *SpotifyService) AddTracks(ctx context.Context, cred models.Credential, playlistID string, uris []string) error {
	if len(uris) == 0 {
		return nil
	}
	if len(uris) > MaxTracksPerRequest {
		return fmt.Errorf("%w: %d uris exceeds the per-request limit of %d", shared.ErrInvalidArgument, len(uris), MaxTracksPerRequest)
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	return s.doRequest(ctx, cred, http.MethodPost, endpoint, addTracksRequest{URIs: uris}, nil)
}
