package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/desertthunder/snaptunes/internal/models"
	"github.com/desertthunder/snaptunes/internal/shared"
	"github.com/desertthunder/snaptunes/internal/tasks"
)

// OAuthResult contains the result of an OAuth authorization flow.
type OAuthResult struct {
	Credential models.Credential
	err        error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler handles a single authorization callback for command-line sign-in.
// Implements the Handler interface for registration with a Router.
type OAuthHandler struct {
	broker      *tasks.Broker
	state       string
	path        string
	resultChan  chan OAuthResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewOAuthHandler creates a handler serving path that completes authorization through broker.
// The state token should be cryptographically random for CSRF protection.
func NewOAuthHandler(broker *tasks.Broker, state, path string) *OAuthHandler {
	if path == "" {
		path = "/callback"
	}
	return &OAuthHandler{
		broker:     broker,
		state:      state,
		path:       path,
		resultChan: make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{"GET " + h.path}
}

// ServeHTTP handles the OAuth callback request.
//
// Checks the code and state, exchanges the code for a credential, and sends the result through the result channel.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	q := r.URL.Query()
	if q.Get("code") == "" {
		err := shared.ErrMissingCode
		if reason := q.Get("error"); reason != "" {
			err = fmt.Errorf("%w: %s", shared.ErrMissingCode, reason)
		}
		h.Send(OAuthResult{err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	if q.Get("state") != h.state {
		h.Send(OAuthResult{err: shared.ErrStateMismatch})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	cred, err := h.broker.CompleteAuthorization(context.WithoutCancel(r.Context()), q.Get("code"))
	if err != nil {
		h.Send(OAuthResult{err: err})
		http.Error(w, "Token exchange failed", http.StatusBadGateway)
		return
	}

	h.Send(OAuthResult{Credential: cred})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, successPage)
}

// Send sends the OAuth result through the channel (only once).
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving OAuth flow completion.
//
// Channel will receive exactly one result and then be closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.resultChan
}

const successPage = `<!DOCTYPE html>
<html>
<head>
    <title>SnapTunes - Signed in</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #121212; }
        .card { text-align: center; background: #181818; padding: 2rem; border-radius: 8px; }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #b3b3b3; margin: 0; }
    </style>
</head>
<body>
    <div class="card">
        <h1>Signed in to Spotify</h1>
        <p>Return to your terminal to finish building the playlist.</p>
    </div>
</body>
</html>
`
