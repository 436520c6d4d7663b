// package tasks implements the playlist-assembly pipeline.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/snaptunes/internal/models"
	"github.com/desertthunder/snaptunes/internal/shared"
)

// RunOptions describes one end-to-end pipeline run.
type RunOptions struct {
	Text       string
	Name       string // Falls back to the suggested title, then the assembler default
	Credential models.Credential
	Dedupe     bool // Drop repeated catalog ids before creating the playlist
	DryRun     bool // Stop after selection
}

// RunResult contains every stage's output from a run. Later fields are zero when the run
// stopped early.
type RunResult struct {
	Extraction models.ExtractionResult
	Tracks     []models.MatchedTrack
	Summary    MatchSummary
	Selected   []string
	Name       string
	Playlist   *models.PlaylistDescriptor
	Partial    bool
}

// PlaylistEngine runs extract → match → select → create.
type PlaylistEngine struct {
	extractor *Extractor
	matcher   *Matcher
	assembler *Assembler
}

// NewPlaylistEngine creates a new PlaylistEngine with the provided stages.
func NewPlaylistEngine(extractor *Extractor, matcher *Matcher, assembler *Assembler) *PlaylistEngine {
	return &PlaylistEngine{extractor: extractor, matcher: matcher, assembler: assembler}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run executes the pipeline. The result holds what completed even when an error is returned;
// a partially populated playlist returns the result with Partial set and an error wrapping
// [shared.ErrPartialSuccess].
func (e *PlaylistEngine) Run(ctx context.Context, opts RunOptions, progress chan<- ProgressUpdate) (*RunResult, error) {
	if e.extractor == nil || e.matcher == nil || e.assembler == nil {
		return nil, fmt.Errorf("%w: pipeline stages not initialized", shared.ErrServiceUnavailable)
	}
	if !opts.Credential.Valid() {
		return nil, shared.ErrNotAuthenticated
	}

	result := &RunResult{}

	e.sendProgress(progress, extractingUpdate(len(opts.Text)))
	extraction, err := e.extractor.Extract(ctx, opts.Text)
	if err != nil {
		return result, fmt.Errorf("extract: %w", err)
	}
	result.Extraction = extraction
	e.sendProgress(progress, extractedUpdate(extraction))

	e.sendProgress(progress, matchingUpdate(len(extraction.Songs)))
	tracks, err := e.matcher.Match(ctx, extraction.Songs, opts.Credential)
	if err != nil {
		return result, fmt.Errorf("match: %w", err)
	}
	result.Tracks = tracks
	result.Summary = Summarize(tracks)
	e.sendProgress(progress, matchedUpdate(result.Summary))

	result.Selected = FoundIDs(tracks, opts.Dedupe)
	result.Name = pickName(opts.Name, extraction.PlaylistTitle)
	e.sendProgress(progress, selectedUpdate(result.Selected))

	if opts.DryRun {
		e.sendProgress(progress, doneUpdate(true))
		return result, nil
	}
	if len(result.Selected) == 0 {
		return result, fmt.Errorf("create: %w", shared.ErrEmptySelection)
	}

	e.sendProgress(progress, creatingUpdate(displayName(result.Name, e.assembler.defaultName), len(result.Selected)))
	desc, err := e.assembler.CreatePlaylist(ctx, models.PlaylistRequest{
		TrackIDs:   result.Selected,
		Name:       result.Name,
		Credential: opts.Credential,
	})
	result.Playlist = desc
	switch {
	case errors.Is(err, shared.ErrPartialSuccess):
		result.Partial = true
		e.sendProgress(progress, partialUpdate(desc, len(result.Selected)))
		return result, err
	case err != nil:
		return result, fmt.Errorf("create: %w", err)
	}

	e.sendProgress(progress, createdUpdate(desc))
	e.sendProgress(progress, doneUpdate(false))
	return result, nil
}

func pickName(requested, suggested string) string {
	if n := strings.TrimSpace(requested); n != "" {
		return n
	}
	return strings.TrimSpace(suggested)
}

func displayName(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
