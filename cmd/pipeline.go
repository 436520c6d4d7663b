package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/snaptunes/internal/formatter"
	"github.com/desertthunder/snaptunes/internal/models"
	"github.com/desertthunder/snaptunes/internal/shared"
	"github.com/desertthunder/snaptunes/internal/tasks"
)

// readText returns the input text from --file, the positional arguments, or stdin, in that order.
func (r *Runner) readText(cmd *cli.Command) (string, error) {
	switch path := cmd.String("file"); {
	case path == "-":
		return r.readAll(r.input)
	case path != "":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("%w: failed to read %s: %v", shared.ErrInvalidArgument, path, err)
		}
		return string(data), nil
	}

	if cmd.Args().Len() > 0 {
		return strings.Join(cmd.Args().Slice(), " "), nil
	}
	return r.readAll(r.input)
}

func (r *Runner) readAll(in io.Reader) (string, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), nil
}

// Extract prints the songs found in the input text.
func (r *Runner) Extract(ctx context.Context, cmd *cli.Command) error {
	text, err := r.readText(cmd)
	if err != nil {
		return err
	}

	extractor, err := r.extractor()
	if err != nil {
		return err
	}

	result, err := extractor.Extract(ctx, text)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	p := formatter.DefaultPalette
	if result.PlaylistTitle != "" {
		r.writePlain("%s\n", p.Title(result.PlaylistTitle))
	}
	if len(result.Songs) == 0 {
		return r.writePlain("%s\n", p.Warn("No songs found"))
	}
	for i, s := range result.Songs {
		artist := s.Artist
		if artist == "" {
			artist = p.Help("unknown artist")
		}
		r.writePlain("%2d. %s - %s\n", i+1, artist, s.Title)
	}
	return nil
}

// Run extracts, matches and creates a playlist, then prints a report in the chosen format.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	text, err := r.readText(cmd)
	if err != nil {
		return err
	}

	_, extractor, matcher, assembler, err := r.stages(ctx)
	if err != nil {
		return err
	}

	cred, err := r.credential(ctx, cmd.String("token"))
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 32)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range progress {
			r.logger.Info(u.Message, "phase", u.Phase)
		}
	}()

	engine := tasks.NewPlaylistEngine(extractor, matcher, assembler)
	result, err := engine.Run(ctx, tasks.RunOptions{
		Text:       text,
		Name:       cmd.String("name"),
		Credential: cred,
		Dedupe:     cmd.Bool("dedupe"),
		DryRun:     cmd.Bool("dry-run"),
	}, progress)
	close(progress)
	<-done

	partial := errors.Is(err, shared.ErrPartialSuccess)
	if err != nil && !partial {
		return err
	}

	report := formatter.NewReport(result.Name, result.Tracks, result.Playlist, result.Partial)
	if err := r.writeReport(ctx, report, format, cmd.String("output")); err != nil {
		return err
	}

	if partial {
		r.logger.Warn(shared.UserMessage(err, "Some tracks were not added"), "error", err)
	}
	return nil
}

func (r *Runner) writeReport(ctx context.Context, report formatter.Report, format, output string) error {
	palette := formatter.DefaultPalette
	if format != formatter.FormatPlain {
		palette = nil
	}

	data, err := formatter.Render(format, report, palette)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if output == "" {
		return nil
	}

	if format == formatter.FormatMarkdown {
		res, err := formatter.WriteMarkdownExport(ctx, r.httpClient, report, output)
		if err != nil {
			return err
		}
		r.logger.Info("report written", "dir", res.Directory, "files", len(res.Files))
		return nil
	}

	path, err := formatter.WriteReport(report, format, output)
	if err != nil {
		return err
	}
	r.logger.Info("report written", "path", path)
	return nil
}

// credential uses token when given, otherwise signs in through the browser.
func (r *Runner) credential(ctx context.Context, token string) (models.Credential, error) {
	if t := strings.TrimSpace(token); t != "" {
		return models.Credential{AccessToken: t}, nil
	}
	return r.authorize(ctx)
}
