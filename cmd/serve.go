package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/snaptunes/internal/server"
	"github.com/desertthunder/snaptunes/internal/shared"
)

// Serve runs the HTTP service until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		cfg.Port = port
	}
	if mode := cmd.String("handoff"); mode != "" {
		cfg.TokenHandoff = mode
	}

	switch cfg.TokenHandoff {
	case shared.HandoffQuery, shared.HandoffSession:
	default:
		return fmt.Errorf("%w: unknown token hand-off %q", shared.ErrInvalidArgument, cfg.TokenHandoff)
	}

	broker, extractor, matcher, assembler, err := r.stages(ctx)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Options{
		Addr:         cfg.Addr(),
		AppURL:       cfg.AppURL,
		TokenHandoff: cfg.TokenHandoff,
		SessionTTL:   cfg.SessionTTL.Duration,
		SecureCookie: strings.HasPrefix(cfg.AppURL, "https://"),
		Broker:       broker,
		Extractor:    extractor,
		Matcher:      matcher,
		Assembler:    assembler,
		Logger:       shared.WithLogger(r.logger, "component", "server"),
	})
	if err != nil {
		return err
	}

	r.writePlain("→ Listening on http://%s (Ctrl+C to stop)\n", cfg.Addr())
	return srv.ListenAndServe(ctx)
}
