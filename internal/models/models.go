// package models defines the data model for the playlist pipeline
package models

import (
	"strings"
	"time"
)

// Credential is an access/refresh token pair delegating access to a user's Spotify account.
//
// It lives only in process memory.
type Credential struct {
	AccessToken  string
	RefreshToken string
	IssuedAt     time.Time
	ExpiresAt    time.Time // zero when the provider did not report expires_in
}

// Valid reports whether the credential carries an access token.
func (c Credential) Valid() bool {
	return strings.TrimSpace(c.AccessToken) != ""
}

// Expired reports whether the credential has a known expiry that is before now.
func (c Credential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// String implements [fmt.Stringer] without revealing token values.
func (c Credential) String() string {
	if !c.Valid() {
		return "Credential(empty)"
	}
	return "Credential(redacted)"
}

// GoString implements [fmt.GoStringer] so %#v is redacted too.
func (c Credential) GoString() string {
	return c.String()
}

// SongCandidate is an unresolved song mention extracted from free text.
type SongCandidate struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// Query builds the catalog search query "<title> <artist>", trimmed.
func (s SongCandidate) Query() string {
	return strings.TrimSpace(s.Title + " " + s.Artist)
}

// ExtractionResult is the output of the extractor. Songs is never nil.
type ExtractionResult struct {
	Songs         []SongCandidate `json:"songs"`
	PlaylistTitle string          `json:"playlist_title"`
}

// EmptyExtraction returns a result with an empty, non-nil song list.
func EmptyExtraction() ExtractionResult {
	return ExtractionResult{Songs: []SongCandidate{}}
}

// MatchedTrack is a [SongCandidate] resolved (or not) against the catalog.
//
// When Found is false, ID is empty and Title/Artist are the original candidate's.
type MatchedTrack struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	AlbumArt string `json:"albumArt,omitempty"`
	Found    bool   `json:"found"`
}

// NotFound builds the unresolved record for a candidate.
func NotFound(c SongCandidate) MatchedTrack {
	return MatchedTrack{Title: c.Title, Artist: c.Artist}
}

// PlaylistRequest is an instruction to materialize a playlist from selected catalog ids.
type PlaylistRequest struct {
	TrackIDs   []string
	Name       string
	Credential Credential
}

// PlaylistDescriptor describes a created playlist.
type PlaylistDescriptor struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Name        string `json:"name"`
	CoverImage  string `json:"coverImage,omitempty"`
	OwnerName   string `json:"ownerName"`
	OwnerURL    string `json:"ownerUrl,omitempty"`
	TracksAdded int    `json:"tracksAdded"`
}
