package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/desertthunder/snaptunes/internal/models"
	"github.com/desertthunder/snaptunes/internal/shared"
	tu "github.com/desertthunder/snaptunes/internal/testing"
	"golang.org/x/oauth2"
)

func newStubbedSpotify(t *testing.T) (*SpotifyService, *tu.SpotifyStub) {
	t.Helper()
	stub := tu.NewSpotifyStub(t)
	srv, err := NewSpotifyService(SpotifyOptions{
		ClientID:     "test_client_id",
		ClientSecret: "test_client_secret",
		RedirectURI:  "http://127.0.0.1:3000/auth/spotify/callback",
		AuthURL:      stub.AuthURL(),
		APIURL:       stub.APIURL(),
		HTTPClient:   stub.Client(),
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return srv, stub
}

var testCred = models.Credential{AccessToken: "access-123"}

func TestSpotifyService(t *testing.T) {
	ctx := context.Background()

	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			srv, err := NewSpotifyService(SpotifyOptions{ClientID: "id", ClientSecret: "secret"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if srv.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", srv.Name())
			}
			if srv.baseURL != DefaultSpotifyAPIURL {
				t.Errorf("expected default api url, got %s", srv.baseURL)
			}
			if srv.config.Endpoint.TokenURL != DefaultSpotifyAuthURL+"/api/token" {
				t.Errorf("unexpected token url %s", srv.config.Endpoint.TokenURL)
			}
			if srv.config.Endpoint.AuthStyle != oauth2.AuthStyleInParams {
				t.Error("expected client credentials in params")
			}
		})

		t.Run("Missing Client ID", func(t *testing.T) {
			_, err := NewSpotifyService(SpotifyOptions{ClientSecret: "secret"})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			_, err := NewSpotifyService(SpotifyOptions{ClientID: "id"})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("From Config", func(t *testing.T) {
			cfg := shared.DefaultConfig()
			srv, err := NewSpotifyServiceFromConfig(cfg, nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if srv.config.RedirectURL != cfg.Credentials.Spotify.RedirectURI {
				t.Errorf("expected redirect uri from config, got %s", srv.config.RedirectURL)
			}
		})
	})

	t.Run("AuthCodeURL", func(t *testing.T) {
		srv, _ := NewSpotifyService(SpotifyOptions{ClientID: "id", ClientSecret: "secret", RedirectURI: "http://127.0.0.1:3000/cb"})
		u, err := url.Parse(srv.AuthCodeURL("state-1"))
		if err != nil {
			t.Fatalf("invalid url: %v", err)
		}

		q := u.Query()
		if u.Host != "accounts.spotify.com" || u.Path != "/authorize" {
			t.Errorf("unexpected endpoint %s", u)
		}
		if q.Get("response_type") != "code" || q.Get("client_id") != "id" {
			t.Errorf("unexpected params %v", q)
		}
		if q.Get("scope") != "playlist-modify-public playlist-modify-private user-read-email user-read-private" {
			t.Errorf("unexpected scope %q", q.Get("scope"))
		}
		if q.Get("show_dialog") != "true" || q.Get("state") != "state-1" {
			t.Errorf("expected show_dialog and state, got %v", q)
		}
		if q.Get("redirect_uri") != "http://127.0.0.1:3000/cb" {
			t.Errorf("unexpected redirect uri %s", q.Get("redirect_uri"))
		}
	})

	t.Run("Exchange", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			srv, stub := newStubbedSpotify(t)
			token, err := srv.Exchange(ctx, "good-code")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if token.AccessToken != "stub-access" || token.RefreshToken != "stub-refresh" {
				t.Errorf("unexpected token %+v", token)
			}

			calls := stub.Calls("token")
			if len(calls) != 1 {
				t.Fatalf("expected 1 token call, got %d", len(calls))
			}
			form, _ := url.ParseQuery(calls[0].Body)
			if form.Get("client_secret") != "test_client_secret" || form.Get("grant_type") != "authorization_code" {
				t.Errorf("expected credentials in form body, got %v", form)
			}
		})

		t.Run("Rejected Code", func(t *testing.T) {
			srv, _ := newStubbedSpotify(t)
			_, err := srv.Exchange(ctx, "bad-code")

			var rErr *oauth2.RetrieveError
			if !errors.As(err, &rErr) {
				t.Fatalf("expected RetrieveError, got %v", err)
			}
			if !strings.Contains(string(rErr.Body), "invalid_grant") {
				t.Errorf("expected provider body, got %s", rErr.Body)
			}
		})
	})

	t.Run("SearchTrack", func(t *testing.T) {
		t.Run("Found", func(t *testing.T) {
			srv, stub := newStubbedSpotify(t)
			stub.AddTrack("Under Pressure", "Queen", tu.StubTrack{
				ID: "t1", Name: "Under Pressure", Artists: []string{"Queen", "David Bowie"},
				Images: []string{"https://i.scdn.co/a.jpg", "https://i.scdn.co/b.jpg"},
			})

			track, err := srv.SearchTrack(ctx, testCred, "Under Pressure Queen")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if track == nil || track.ID != "t1" {
				t.Fatalf("expected track t1, got %+v", track)
			}
			if track.ArtistNames() != "Queen, David Bowie" {
				t.Errorf("unexpected artists %q", track.ArtistNames())
			}
			if track.ArtworkURL() != "https://i.scdn.co/a.jpg" {
				t.Errorf("expected first image, got %q", track.ArtworkURL())
			}

			call := stub.Calls("search")[0]
			if call.Auth != "Bearer access-123" {
				t.Errorf("expected bearer token, got %q", call.Auth)
			}
			if call.Query != "Under Pressure Queen" {
				t.Errorf("unexpected query %q", call.Query)
			}
		})

		t.Run("No Results", func(t *testing.T) {
			srv, _ := newStubbedSpotify(t)
			track, err := srv.SearchTrack(ctx, testCred, "Nothing Here")
			if err != nil || track != nil {
				t.Errorf("expected nil, nil; got %+v, %v", track, err)
			}
		})

		t.Run("Unauthorized", func(t *testing.T) {
			srv, stub := newStubbedSpotify(t)
			stub.SetStatus("search", 401)
			_, err := srv.SearchTrack(ctx, testCred, "x")
			if !errors.Is(err, shared.ErrTokenExpired) {
				t.Errorf("expected ErrTokenExpired, got %v", err)
			}
		})

		t.Run("Server Error", func(t *testing.T) {
			srv, stub := newStubbedSpotify(t)
			stub.SetStatus("search", 500)
			_, err := srv.SearchTrack(ctx, testCred, "x")
			if !errors.Is(err, shared.ErrAPIRequest) || !strings.Contains(err.Error(), "500") {
				t.Errorf("expected ErrAPIRequest with status, got %v", err)
			}
		})

		t.Run("Missing Token", func(t *testing.T) {
			srv, stub := newStubbedSpotify(t)
			_, err := srv.SearchTrack(ctx, models.Credential{}, "x")
			if !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
			if stub.TotalCalls() != 0 {
				t.Error("expected no remote call")
			}
		})
	})

	t.Run("searchPath", func(t *testing.T) {
		got := searchPath("Don't Stop Me Now Queen & Co")
		want := "/search?q=Don%27t%20Stop%20Me%20Now%20Queen%20%26%20Co&type=track&limit=1"
		if got != want {
			t.Errorf("searchPath() = %s, want %s", got, want)
		}
	})

	t.Run("Playlist Lifecycle", func(t *testing.T) {
		srv, stub := newStubbedSpotify(t)

		user, err := srv.CurrentUser(ctx, testCred)
		if err != nil {
			t.Fatalf("CurrentUser failed: %v", err)
		}
		if user.ID != "stub-user" || user.ExternalURLs.Spotify == "" {
			t.Errorf("unexpected user %+v", user)
		}

		playlist, err := srv.CreatePlaylist(ctx, testCred, user.ID, NewPlaylist{Name: "Test", Description: "Created with SnapTunes"})
		if err != nil {
			t.Fatalf("CreatePlaylist failed: %v", err)
		}
		if playlist.ID == "" || playlist.URL() == "" {
			t.Errorf("expected id and url, got %+v", playlist)
		}

		var body map[string]any
		json.Unmarshal([]byte(stub.Calls("create")[0].Body), &body)
		if body["public"] != false || body["name"] != "Test" {
			t.Errorf("unexpected create body %v", body)
		}

		if err := srv.AddTracks(ctx, testCred, playlist.ID, []string{"spotify:track:t1"}); err != nil {
			t.Fatalf("AddTracks failed: %v", err)
		}
		if added := stub.Added(); len(added) != 1 || added[0][0] != "spotify:track:t1" {
			t.Errorf("unexpected added uris %v", added)
		}
	})

	t.Run("AddTracks Limits", func(t *testing.T) {
		srv, stub := newStubbedSpotify(t)

		if err := srv.AddTracks(ctx, testCred, "pl", nil); err != nil {
			t.Errorf("expected no-op for empty uris, got %v", err)
		}

		uris := make([]string, MaxTracksPerRequest+1)
		if err := srv.AddTracks(ctx, testCred, "pl", uris); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if stub.TotalCalls() != 0 {
			t.Error("expected no remote calls")
		}
	})

	t.Run("Implements Interfaces", func(t *testing.T) {
		var _ CatalogService = (*SpotifyService)(nil)
		var _ OAuthService = (*SpotifyService)(nil)
	})
}
