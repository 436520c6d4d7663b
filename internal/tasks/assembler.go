package tasks

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/snaptunes/internal/models"
	"github.com/desertthunder/snaptunes/internal/services"
	"github.com/desertthunder/snaptunes/internal/shared"
)

const (
	DefaultPlaylistName        = "SnapTunes Playlist"
	DefaultPlaylistDescription = "Created with SnapTunes"

	trackURIPrefix = "spotify:track:"
)

// AssemblerOptions configures [NewAssembler]. Blank values use the defaults.
type AssemblerOptions struct {
	DefaultName string
	Description string
	Logger      *log.Logger
}

// Assembler creates playlists from selected catalog ids.
type Assembler struct {
	catalog     services.CatalogService
	defaultName string
	description string
	logger      *log.Logger
}

// NewAssembler creates an assembler for catalog.
func NewAssembler(catalog services.CatalogService, opts AssemblerOptions) *Assembler {
	if strings.TrimSpace(opts.DefaultName) == "" {
		opts.DefaultName = DefaultPlaylistName
	}
	if opts.Description == "" {
		opts.Description = DefaultPlaylistDescription
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Assembler{
		catalog:     catalog,
		defaultName: opts.DefaultName,
		description: opts.Description,
		logger:      opts.Logger,
	}
}

// TrackURIs converts catalog ids to track URIs. Track URIs are kept; any other URI is rejected.
func TrackURIs(ids []string) ([]string, error) {
	uris := make([]string, 0, len(ids))
	for i, id := range ids {
		id = strings.TrimSpace(id)
		switch {
		case id == "" || id == trackURIPrefix:
			return nil, fmt.Errorf("%w: track %d has no id", shared.ErrInvalidInput, i)
		case strings.HasPrefix(id, trackURIPrefix):
			uris = append(uris, id)
		case strings.Contains(id, ":"):
			return nil, fmt.Errorf("%w: track %d is not a track id: %q", shared.ErrInvalidInput, i, id)
		default:
			uris = append(uris, trackURIPrefix+id)
		}
	}
	return uris, nil
}

// CreatePlaylist creates a private playlist owned by the credential's user and adds the selected tracks.
//
// Validation happens before any remote call. When the playlist exists but adding tracks fails, the
// descriptor is returned together with an error wrapping [shared.ErrPartialSuccess].
func (a *Assembler) CreatePlaylist(ctx context.Context, req models.PlaylistRequest) (*models.PlaylistDescriptor, error) {
	if len(req.TrackIDs) == 0 {
		return nil, shared.ErrEmptySelection
	}
	uris, err := TrackURIs(req.TrackIDs)
	if err != nil {
		return nil, err
	}
	if !req.Credential.Valid() {
		return nil, fmt.Errorf("%w: an access token is required to create a playlist", shared.ErrNotAuthenticated)
	}
	if req.Credential.Expired(time.Now()) {
		return nil, shared.ErrTokenExpired
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = a.defaultName
	}

	user, err := a.catalog.CurrentUser(ctx, req.Credential)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrIdentityLookupFailed, err)
	}
	if user == nil || user.ID == "" {
		return nil, fmt.Errorf("%w: profile has no id", shared.ErrIdentityLookupFailed)
	}

	playlist, err := a.catalog.CreatePlaylist(ctx, req.Credential, user.ID, services.NewPlaylist{
		Name:        name,
		Public:      false,
		Description: a.description,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrPlaylistCreateFailed, err)
	}
	if playlist == nil || playlist.ID == "" {
		return nil, fmt.Errorf("%w: response has no playlist id", shared.ErrPlaylistCreateFailed)
	}

	desc := describePlaylist(playlist, user, name)
	a.logger.Info("playlist created", "id", desc.ID, "tracks", len(uris))

	for start := 0; start < len(uris); start += services.MaxTracksPerRequest {
		end := min(start+services.MaxTracksPerRequest, len(uris))
		if err := a.catalog.AddTracks(ctx, req.Credential, playlist.ID, uris[start:end]); err != nil {
			a.logger.Warn("adding tracks failed", "playlist", desc.ID, "added", desc.TracksAdded, "error", err)
			return desc, fmt.Errorf("%w: added %d of %d tracks: %w", shared.ErrPartialSuccess, desc.TracksAdded, len(uris), err)
		}
		desc.TracksAdded = end
	}
	return desc, nil
}

func describePlaylist(p *services.SpotifyPlaylist, user *services.SpotifyUser, name string) *models.PlaylistDescriptor {
	desc := &models.PlaylistDescriptor{
		ID:        p.ID,
		URL:       p.URL(),
		Name:      p.Name,
		OwnerName: p.Owner.DisplayName,
		OwnerURL:  p.Owner.ExternalURLs.Spotify,
	}
	if desc.Name == "" {
		desc.Name = name
	}
	if desc.OwnerName == "" {
		desc.OwnerName = user.DisplayName
	}
	if desc.OwnerURL == "" {
		desc.OwnerURL = user.ExternalURLs.Spotify
	}
	if len(p.Images) > 0 {
		desc.CoverImage = p.Images[0].URL
	}
	return desc
}
