package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/desertthunder/snaptunes/internal/shared"
)

const maxBodyBytes = 1 << 20

// Default messages per stage, used when an error carries no known condition.
const (
	msgAuthFailed    = "Spotify authentication failed."
	msgExtractFailed = "Failed to extract song titles."
	msgSearchFailed  = "Failed to search Spotify."
	msgCreateFailed  = "Failed to create the playlist."
)

type errorResponse struct {
	Error  string      `json:"error"`
	Kind   shared.Kind `json:"kind"`
	Detail string      `json:"detail,omitempty"`
}

func statusFor(kind shared.Kind) int {
	switch kind {
	case shared.KindValidation:
		return http.StatusBadRequest
	case shared.KindAuth:
		return http.StatusUnauthorized
	case shared.KindService, shared.KindParse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status and a stage-specific message.
// Exchange failures include the provider's body as detail.
func writeError(w http.ResponseWriter, err error, fallback string) int {
	kind := shared.KindOf(err)
	resp := errorResponse{Error: shared.UserMessage(err, fallback), Kind: kind}
	if errors.Is(err, shared.ErrExchangeFailed) {
		resp.Detail = err.Error()
	}

	status := statusFor(kind)
	writeJSON(w, status, resp)
	return status
}

// decodeJSON reads a single JSON object from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", shared.ErrInvalidInput)
		}
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	return nil
}
