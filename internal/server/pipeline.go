package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/snaptunes/internal/models"
	"github.com/desertthunder/snaptunes/internal/shared"
	"github.com/desertthunder/snaptunes/internal/tasks"
)

type extractRequest struct {
	Text string `json:"text"`
}

type searchRequest struct {
	Songs       []models.SongCandidate `json:"songs"`
	AccessToken string                 `json:"accessToken"`
}

type searchResponse struct {
	Results []models.MatchedTrack `json:"results"`
}

type createRequest struct {
	Tracks       []string `json:"tracks"`
	AccessToken  string   `json:"accessToken"`
	PlaylistName string   `json:"playlistName"`
}

type createResponse struct {
	PlaylistURL string                     `json:"playlistUrl"`
	Playlist    *models.PlaylistDescriptor `json:"playlist"`
	Partial     bool                       `json:"partial"`
	Warning     string                     `json:"warning,omitempty"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, msgExtractFailed)
		return
	}

	result, err := s.opts.Extractor.Extract(r.Context(), req.Text)
	if err != nil {
		s.logger.Error("extract failed", "error", err)
		writeError(w, err, msgExtractFailed)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, msgSearchFailed)
		return
	}
	if req.Songs == nil {
		writeError(w, fmt.Errorf("%w: songs array is required", shared.ErrMissingArgument), msgSearchFailed)
		return
	}

	cred, err := s.credentialFrom(r, req.AccessToken)
	if err != nil {
		writeError(w, err, msgSearchFailed)
		return
	}

	results, err := s.opts.Matcher.Match(r.Context(), req.Songs, cred)
	if err != nil {
		s.logger.Error("search failed", "error", err)
		writeError(w, err, msgSearchFailed)
		return
	}

	summary := tasks.Summarize(results)
	s.logger.Debug("search complete", "total", summary.Total, "found", summary.Found)
	writeJSON(w, http.StatusOK, searchResponse{Results: results})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, msgCreateFailed)
		return
	}
	if len(req.Tracks) == 0 {
		writeError(w, shared.ErrEmptySelection, msgCreateFailed)
		return
	}

	cred, err := s.credentialFrom(r, req.AccessToken)
	if err != nil {
		writeError(w, err, msgCreateFailed)
		return
	}

	desc, err := s.opts.Assembler.CreatePlaylist(r.Context(), models.PlaylistRequest{
		TrackIDs:   req.Tracks,
		Name:       req.PlaylistName,
		Credential: cred,
	})
	switch {
	case errors.Is(err, shared.ErrPartialSuccess):
		s.logger.Warn("playlist created without all tracks", "playlist", desc.ID, "error", err)
		writeJSON(w, http.StatusOK, createResponse{
			PlaylistURL: desc.URL,
			Playlist:    desc,
			Partial:     true,
			Warning:     shared.UserMessage(err, msgCreateFailed),
		})
		return
	case err != nil:
		s.logger.Error("create failed", "error", err)
		writeError(w, err, msgCreateFailed)
		return
	}

	s.logger.Info("playlist created", "playlist", desc.ID, "tracks", desc.TracksAdded)
	writeJSON(w, http.StatusOK, createResponse{PlaylistURL: desc.URL, Playlist: desc})
}
