package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/snaptunes/internal/models"
	"github.com/desertthunder/snaptunes/internal/repositories"
	"github.com/desertthunder/snaptunes/internal/services"
	"github.com/desertthunder/snaptunes/internal/shared"
	"github.com/desertthunder/snaptunes/internal/tasks"
)

// SpotifyClient is the catalog and the OAuth provider behind one Spotify app.
type SpotifyClient interface {
	services.CatalogService
	services.OAuthService
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	spotify    SpotifyClient
	completion services.CompletionService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      io.Reader

	db        *sql.DB
	authorize func(ctx context.Context) (models.Credential, error)
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Spotify    SpotifyClient
	Completion services.CompletionService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
	// DB is the search cache database. When nil it is opened on first use if the cache is enabled.
	DB *sql.DB
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		spotify:    opts.Spotify,
		completion: opts.Completion,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
		db:         opts.DB,
	}
	r.authorize = r.doOAuth
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, extractCommand, runCommand, authCommand, setupCommand, cacheCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Close releases the cache database and the extraction backend, when they hold resources.
func (r *Runner) Close() error {
	if c, ok := r.completion.(io.Closer); ok {
		c.Close()
	}
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func (r *Runner) extractor() (*tasks.Extractor, error) {
	if r.completion == nil {
		return nil, fmt.Errorf("%w: no extraction backend configured (set OPENAI_API_KEY or GEMINI_API_KEY)", shared.ErrMissingAPIKey)
	}
	return tasks.NewExtractor(r.completion, r.config.Extractor.MaxTextLength, shared.WithLogger(r.logger, "stage", "extract")), nil
}

// cache returns the search cache, or nil when it is disabled or cannot be opened.
func (r *Runner) cache(ctx context.Context) tasks.TrackCacher {
	if !r.config.Cache.Enabled {
		return nil
	}
	db, err := r.database(ctx)
	if err != nil {
		r.logger.Warn("search cache unavailable", "error", err)
		return nil
	}
	return repositories.NewTrackCacheAdapter(repositories.NewSearchCacheRepository(db), r.config.Cache.TTL.Duration)
}

func (r *Runner) database(ctx context.Context) (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}
	db, err := shared.OpenCacheDatabase(ctx, r.config.Database)
	if err != nil {
		return nil, err
	}
	r.db = db
	return db, nil
}

// stages builds the pipeline stages from the runner's services and config.
func (r *Runner) stages(ctx context.Context) (*tasks.Broker, *tasks.Extractor, *tasks.Matcher, *tasks.Assembler, error) {
	if r.spotify == nil {
		return nil, nil, nil, nil, fmt.Errorf("%w: Spotify client_id and client_secret must be set", shared.ErrMissingCredentials)
	}
	extractor, err := r.extractor()
	if err != nil {
		return nil, nil, nil, nil, err
	}

	matcher := tasks.NewMatcher(r.spotify, tasks.MatcherOptions{
		Cache:       r.cache(ctx),
		Limiter:     tasks.NewLimiter(r.config.Catalog.RequestsPerSecond),
		Concurrency: r.config.Catalog.Concurrency,
		Logger:      shared.WithLogger(r.logger, "stage", "match"),
	})
	assembler := tasks.NewAssembler(r.spotify, tasks.AssemblerOptions{
		DefaultName: r.config.Playlist.DefaultName,
		Description: r.config.Playlist.Description,
		Logger:      shared.WithLogger(r.logger, "stage", "create"),
	})

	return tasks.NewBroker(r.spotify), extractor, matcher, assembler, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
