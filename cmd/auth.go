package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/snaptunes/internal/models"
	"github.com/desertthunder/snaptunes/internal/server"
	"github.com/desertthunder/snaptunes/internal/shared"
	"github.com/desertthunder/snaptunes/internal/tasks"
)

const authTimeout = 2 * time.Minute

// Auth signs in to Spotify and reports the credential's lifetime.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	cred, err := r.authorize(ctx)
	if err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	if !cred.ExpiresAt.IsZero() {
		r.writePlain("Access token expires at %s\n", cred.ExpiresAt.Local().Format(time.Kitchen))
	}
	if cmd.Bool("print-token") {
		r.writePlain("%s\n", cred.AccessToken)
	}
	return nil
}

// callbackAddr derives the listen address and callback path from the configured redirect URI.
func callbackAddr(redirectURI string) (string, string, error) {
	u, err := url.Parse(redirectURI)
	if err != nil || u.Host == "" {
		return "", "", fmt.Errorf("%w: redirect_uri %q is not a URL", shared.ErrInvalidConfig, redirectURI)
	}

	host, port := u.Hostname(), u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	return net.JoinHostPort(host, port), path, nil
}

// doOAuth runs a one-shot callback server on the redirect URI, opens the consent page in the
// browser, and waits for the credential.
func (r *Runner) doOAuth(ctx context.Context) (models.Credential, error) {
	if r.spotify == nil {
		return models.Credential{}, fmt.Errorf("%w: Spotify client_id and client_secret must be set", shared.ErrMissingCredentials)
	}

	addr, path, err := callbackAddr(r.config.Credentials.Spotify.RedirectURI)
	if err != nil {
		return models.Credential{}, err
	}

	state, err := shared.GenerateState()
	if err != nil {
		return models.Credential{}, fmt.Errorf("failed to generate state token: %w", err)
	}

	broker := tasks.NewBroker(r.spotify)
	authURL := broker.BeginAuthorization(state)
	oauthHandler := server.NewOAuthHandler(broker, state, path)
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return models.Credential{}, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	httpServer := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Info("starting OAuth callback server", "addr", addr, "path", path)
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser automatically", "error", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(authTimeout)
	defer timeout.Stop()

	var result server.OAuthResult
	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return models.Credential{}, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return models.Credential{}, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	case <-ctx.Done():
		return models.Credential{}, ctx.Err()
	}

	if err := result.Error(); err != nil {
		return models.Credential{}, fmt.Errorf("authorization failed: %w", err)
	}
	return result.Credential, nil
}
