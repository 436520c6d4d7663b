package tasks

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/oauth2"

	"github.com/desertthunder/snaptunes/internal/models"
	"github.com/desertthunder/snaptunes/internal/services"
	"github.com/desertthunder/snaptunes/internal/shared"
)

type fakeCompletion struct {
	content string
	err     error
	prompts []string
}

func (f *fakeCompletion) Name() string { return "fake" }

func (f *fakeCompletion) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.content, f.err
}

type fakeOAuth struct {
	token *oauth2.Token
	err   error
	codes []string
}

func (f *fakeOAuth) AuthCodeURL(state string) string {
	return "https://accounts.example.com/authorize?state=" + state
}

func (f *fakeOAuth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	f.codes = append(f.codes, code)
	return f.token, f.err
}

// fakeCatalog answers searches from tracks keyed by normalized query.
type fakeCatalog struct {
	mu        sync.Mutex
	tracks    map[string]*services.SpotifyTrack
	searchErr map[string]error
	searches  []string

	user      *services.SpotifyUser
	userErr   error
	playlist  *services.SpotifyPlaylist
	createErr error
	created   []services.NewPlaylist
	addErrAt  int // 1-based batch that fails; 0 never
	addErr    error
	batches   [][]string
	calls     int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		tracks:    make(map[string]*services.SpotifyTrack),
		searchErr: make(map[string]error),
		user:      &services.SpotifyUser{ID: "user-1", DisplayName: "Listener"},
		playlist: &services.SpotifyPlaylist{
			ID:   "pl-1",
			Name: "Test",
			Owner: services.Owner{
				DisplayName: "Listener",
			},
		},
	}
}

func (f *fakeCatalog) add(query string, track *services.SpotifyTrack) {
	f.tracks[shared.NormalizeQuery(query)] = track
}

func (f *fakeCatalog) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeCatalog) SearchTrack(ctx context.Context, cred models.Credential, query string) (*services.SpotifyTrack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.searches = append(f.searches, query)
	key := shared.NormalizeQuery(query)
	if err := f.searchErr[key]; err != nil {
		return nil, err
	}
	return f.tracks[key], nil
}

func (f *fakeCatalog) CurrentUser(ctx context.Context, cred models.Credential) (*services.SpotifyUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.user, f.userErr
}

func (f *fakeCatalog) CreatePlaylist(ctx context.Context, cred models.Credential, userID string, p services.NewPlaylist) (*services.SpotifyPlaylist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.created = append(f.created, p)
	if f.createErr != nil {
		return nil, f.createErr
	}
	pl := *f.playlist
	pl.Name = p.Name
	return &pl, nil
}

func (f *fakeCatalog) AddTracks(ctx context.Context, cred models.Credential, playlistID string, uris []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.addErrAt > 0 && len(f.batches)+1 == f.addErrAt {
		if f.addErr == nil {
			return errors.New("add failed")
		}
		return f.addErr
	}
	f.batches = append(f.batches, append([]string(nil), uris...))
	return nil
}

// memCache is an in-memory [TrackCacher].
type memCache struct {
	mu      sync.Mutex
	entries map[string]models.MatchedTrack
	failGet bool
	failPut bool
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]models.MatchedTrack)}
}

func (c *memCache) CachedMatch(ctx context.Context, key string) (models.MatchedTrack, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return models.MatchedTrack{}, false, errors.New("cache down")
	}
	t, ok := c.entries[key]
	return t, ok, nil
}

func (c *memCache) CacheMatch(ctx context.Context, key string, track models.MatchedTrack) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failPut {
		return errors.New("cache down")
	}
	c.entries[key] = track
	return nil
}

var validCred = models.Credential{AccessToken: "access"}
