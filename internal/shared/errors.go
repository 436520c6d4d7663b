package shared

import (
	"errors"
	"fmt"
)

// Error kinds. Every condition below wraps exactly one of these.
var (
	ErrValidation = fmt.Errorf("validation error")
	ErrAuth       = fmt.Errorf("authentication error")
	ErrService    = fmt.Errorf("service error")
	ErrParse      = fmt.Errorf("parse error")
)

var (
	// Configuration errors
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrMissingCode      = fmt.Errorf("%w: no authorization code provided", ErrAuth)
	ErrExchangeFailed   = fmt.Errorf("%w: failed to get access token", ErrAuth)
	ErrStateMismatch    = fmt.Errorf("%w: invalid state parameter", ErrAuth)
	ErrNotAuthenticated = fmt.Errorf("%w: not authenticated", ErrAuth)
	ErrTokenExpired     = fmt.Errorf("%w: access token expired", ErrAuth)
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest           = fmt.Errorf("%w: API request failed", ErrService)
	ErrMissingAPIKey        = fmt.Errorf("%w: missing API credentials", ErrService)
	ErrServiceUnavailable   = fmt.Errorf("%w: service unavailable", ErrService)
	ErrIdentityLookupFailed = fmt.Errorf("%w: user profile lookup failed", ErrService)
	ErrPlaylistCreateFailed = fmt.Errorf("%w: playlist creation failed", ErrService)
	ErrUnexpectedResponse   = fmt.Errorf("%w: unexpected response shape", ErrParse)

	// ErrPartialSuccess is returned alongside a descriptor when the playlist exists but
	// its tracks could not be added.
	ErrPartialSuccess = fmt.Errorf("playlist created but tracks could not be added")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("%w: invalid input", ErrValidation)
	ErrEmptyText       = fmt.Errorf("%w: text is required", ErrValidation)
	ErrTextTooLong     = fmt.Errorf("%w: text is too long", ErrValidation)
	ErrEmptySelection  = fmt.Errorf("%w: no tracks selected", ErrValidation)
	ErrMissingArgument = fmt.Errorf("%w: missing required argument", ErrValidation)
	ErrInvalidArgument = fmt.Errorf("%w: invalid argument", ErrValidation)
)

// Kind names an error category for the HTTP surface.
type Kind string

const (
	KindValidation Kind = "validation"
	KindAuth       Kind = "auth"
	KindService    Kind = "service"
	KindParse      Kind = "parse"
	KindPartial    Kind = "partial"
	KindUnknown    Kind = "unknown"
)

// KindOf classifies err into one of the error kinds.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPartialSuccess):
		return KindPartial
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrAuth):
		return KindAuth
	case errors.Is(err, ErrService):
		return KindService
	case errors.Is(err, ErrParse):
		return KindParse
	default:
		return KindUnknown
	}
}

var userMessages = []struct {
	err error
	msg string
}{
	{ErrEmptyText, "Please enter some text."},
	{ErrTextTooLong, "The text is too long."},
	{ErrEmptySelection, "There are no tracks to add."},
	{ErrMissingCode, "Spotify did not return an authorization code."},
	{ErrExchangeFailed, "Failed to get an access token from Spotify."},
	{ErrStateMismatch, "The Spotify authorization request could not be verified."},
	{ErrNotAuthenticated, "Spotify authentication is required."},
	{ErrTokenExpired, "Your Spotify session has expired. Please sign in again."},
	{ErrMissingAPIKey, "The server is not configured for song extraction."},
	{ErrIdentityLookupFailed, "Failed to look up your Spotify account."},
	{ErrPlaylistCreateFailed, "Failed to create the playlist."},
	{ErrPartialSuccess, "The playlist was created, but its tracks could not be added."},
}

// UserMessage returns a human-readable message for err, or fallback when err is
// none of the known conditions.
func UserMessage(err error, fallback string) string {
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return fallback
}
