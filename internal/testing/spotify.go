package testing

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/snaptunes/internal/shared"
)

// StubTrack is a catalog entry served by [SpotifyStub].
type StubTrack struct {
	ID      string
	Name    string
	Artists []string
	Images  []string
}

// StubCall records one request received by a stub.
type StubCall struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   string
}

// SpotifyStub is an httptest server implementing the accounts token endpoint and the
// search, profile, and playlist endpoints of the Web API under /v1.
type SpotifyStub struct {
	*httptest.Server

	mu sync.Mutex
	// Catalog maps a normalized "title artist" query to its top result.
	Catalog map[string]StubTrack
	// Status forces a status code for a route: token, search, me, create, tracks.
	Status map[string]int
	// TokenBody is the raw JSON returned by /api/token.
	TokenBody   string
	UserID      string
	DisplayName string
	// TracksFailAfter makes add-tracks calls fail once this many have succeeded; 0 disables.
	TracksFailAfter int

	calls     map[string][]StubCall
	playlists int
	added     [][]string
}

// NewSpotifyStub starts a stub and closes it when the test ends.
func NewSpotifyStub(t *testing.T) *SpotifyStub {
	t.Helper()

	s := &SpotifyStub{
		Catalog:     make(map[string]StubTrack),
		Status:      make(map[string]int),
		TokenBody:   `{"access_token":"stub-access","refresh_token":"stub-refresh","token_type":"Bearer","expires_in":3600}`,
		UserID:      "stub-user",
		DisplayName: "Stub User",
		calls:       make(map[string][]StubCall),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/token", s.route("token", false, s.token))
	mux.HandleFunc("GET /v1/search", s.route("search", true, s.search))
	mux.HandleFunc("GET /v1/me", s.route("me", true, s.me))
	mux.HandleFunc("POST /v1/users/{id}/playlists", s.route("create", true, s.create))
	mux.HandleFunc("POST /v1/playlists/{id}/tracks", s.route("tracks", true, s.tracks))

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// AuthURL is the accounts base URL.
func (s *SpotifyStub) AuthURL() string { return s.URL }

// APIURL is the Web API base URL.
func (s *SpotifyStub) APIURL() string { return s.URL + "/v1" }

// AddTrack registers a catalog entry for the given title and artist.
func (s *SpotifyStub) AddTrack(title, artist string, track StubTrack) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Catalog[shared.NormalizeQuery(title+" "+artist)] = track
}

// SetStatus forces status for every request on route; 0 clears it.
func (s *SpotifyStub) SetStatus(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status[route] = status
}

// SetTokenBody replaces the raw JSON returned by /api/token.
func (s *SpotifyStub) SetTokenBody(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.TokenBody = body
}

// SetTracksFailAfter makes add-tracks fail once n batches have been accepted.
func (s *SpotifyStub) SetTracksFailAfter(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.TracksFailAfter = n
}

// Calls returns the requests received on route.
func (s *SpotifyStub) Calls(route string) []StubCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]StubCall(nil), s.calls[route]...)
}

// TotalCalls counts every request received on the Web API routes.
func (s *SpotifyStub) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for route, calls := range s.calls {
		if route != "token" {
			n += len(calls)
		}
	}
	return n
}

// Added returns the uri batches received by add-tracks.
func (s *SpotifyStub) Added() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]string(nil), s.added...)
}

func (s *SpotifyStub) route(name string, bearer bool, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		s.mu.Lock()
		s.calls[name] = append(s.calls[name], StubCall{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query().Get("q"),
			Auth:   r.Header.Get("Authorization"),
			Body:   string(body),
		})
		status := s.Status[name]
		s.mu.Unlock()

		if bearer && !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			writeStub(w, http.StatusUnauthorized, `{"error":{"status":401,"message":"No token provided"}}`)
			return
		}
		if status != 0 {
			writeStub(w, status, fmt.Sprintf(`{"error":{"status":%d,"message":"stubbed failure"}}`, status))
			return
		}
		next(w, r)
	}
}

func (s *SpotifyStub) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil || r.PostForm.Get("code") == "" {
		writeStub(w, http.StatusBadRequest, `{"error":"invalid_request","error_description":"code is required"}`)
		return
	}
	if r.PostForm.Get("code") == "bad-code" {
		writeStub(w, http.StatusBadRequest, `{"error":"invalid_grant","error_description":"Invalid authorization code"}`)
		return
	}
	s.mu.Lock()
	body := s.TokenBody
	s.mu.Unlock()
	writeStub(w, http.StatusOK, body)
}

func (s *SpotifyStub) search(w http.ResponseWriter, r *http.Request) {
	q := shared.NormalizeQuery(r.URL.Query().Get("q"))

	s.mu.Lock()
	track, ok := s.Catalog[q]
	s.mu.Unlock()

	items := []map[string]any{}
	if ok {
		artists := make([]map[string]string, 0, len(track.Artists))
		for _, a := range track.Artists {
			artists = append(artists, map[string]string{"name": a})
		}
		images := make([]map[string]any, 0, len(track.Images))
		for _, u := range track.Images {
			images = append(images, map[string]any{"url": u, "height": 640, "width": 640})
		}
		items = append(items, map[string]any{
			"id":      track.ID,
			"name":    track.Name,
			"uri":     "spotify:track:" + track.ID,
			"artists": artists,
			"album":   map[string]any{"images": images},
		})
	}
	writeJSONStub(w, map[string]any{"tracks": map[string]any{"items": items}})
}

func (s *SpotifyStub) me(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSONStub(w, map[string]any{
		"id":            s.UserID,
		"display_name":  s.DisplayName,
		"external_urls": map[string]string{"spotify": "https://open.spotify.com/user/" + s.UserID},
	})
}

func (s *SpotifyStub) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Public      bool   `json:"public"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeStub(w, http.StatusBadRequest, `{"error":{"status":400,"message":"Missing name"}}`)
		return
	}

	s.mu.Lock()
	s.playlists++
	id := fmt.Sprintf("pl-%d", s.playlists)
	owner := map[string]any{
		"id":            r.PathValue("id"),
		"display_name":  s.DisplayName,
		"external_urls": map[string]string{"spotify": "https://open.spotify.com/user/" + r.PathValue("id")},
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"id":            id,
		"name":          req.Name,
		"description":   req.Description,
		"public":        req.Public,
		"owner":         owner,
		"external_urls": map[string]string{"spotify": "https://open.spotify.com/playlist/" + id},
		"images":        []any{},
		"uri":           "spotify:playlist:" + id,
	})
}

func (s *SpotifyStub) tracks(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URIs []string `json:"uris"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeStub(w, http.StatusBadRequest, `{"error":{"status":400,"message":"Invalid body"}}`)
		return
	}

	s.mu.Lock()
	if s.TracksFailAfter > 0 && len(s.added) >= s.TracksFailAfter {
		s.mu.Unlock()
		writeStub(w, http.StatusBadGateway, `{"error":{"status":502,"message":"Bad gateway"}}`)
		return
	}
	s.added = append(s.added, req.URIs)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	fmt.Fprint(w, `{"snapshot_id":"snap"}`)
}

func writeStub(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprint(w, body)
}

func writeJSONStub(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
