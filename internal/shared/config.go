package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Token hand-off modes for the web authorization callback.
const (
	HandoffQuery   = "query"
	HandoffSession = "session"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Extractor   ExtractorConfig   `toml:"extractor"`
	Catalog     CatalogConfig     `toml:"catalog"`
	Playlist    PlaylistConfig    `toml:"playlist"`
	Database    DatabaseConfig    `toml:"database"`
	Cache       CacheConfig       `toml:"cache"`
	Server      ServerConfig      `toml:"server"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	OpenAI  OpenAIConfig  `toml:"openai"`
	Gemini  GeminiConfig  `toml:"gemini"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// OpenAIConfig contains chat completion credentials.
type OpenAIConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
}

// GeminiConfig contains Gemini credentials.
type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// ExtractorConfig selects and tunes the extraction backend.
type ExtractorConfig struct {
	Backend       string  `toml:"backend"` // openai or gemini
	Temperature   float64 `toml:"temperature"`
	MaxTextLength int     `toml:"max_text_length"`
}

// CatalogConfig contains Spotify endpoint and throughput settings.
type CatalogConfig struct {
	APIURL            string  `toml:"api_url"`
	AuthURL           string  `toml:"auth_url"`
	Concurrency       int     `toml:"concurrency"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// PlaylistConfig contains defaults for created playlists.
type PlaylistConfig struct {
	DefaultName string `toml:"default_name"`
	Description string `toml:"description"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// CacheConfig controls the catalog search cache.
type CacheConfig struct {
	Enabled bool     `toml:"enabled"`
	TTL     Duration `toml:"ttl"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host         string   `toml:"host"`
	Port         int      `toml:"port"`
	AppURL       string   `toml:"app_url"`
	TokenHandoff string   `toml:"token_handoff"`
	SessionTTL   Duration `toml:"session_ttl"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Duration is a [time.Duration] that decodes from TOML strings like "90s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Addr returns the host:port the server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadEnv loads variables from the given .env files (default ".env") when present.
//
// A missing file is not an error.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}

	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// ApplyEnv overrides secrets and endpoints from the environment.
func (c *Config) ApplyEnv() {
	for key, target := range map[string]*string{
		"SPOTIFY_CLIENT_ID":     &c.Credentials.Spotify.ClientID,
		"SPOTIFY_CLIENT_SECRET": &c.Credentials.Spotify.ClientSecret,
		"SPOTIFY_REDIRECT_URI":  &c.Credentials.Spotify.RedirectURI,
		"OPENAI_API_KEY":        &c.Credentials.OpenAI.APIKey,
		"GEMINI_API_KEY":        &c.Credentials.Gemini.APIKey,
		"SNAPTUNES_EXTRACTOR":   &c.Extractor.Backend,
	} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*target = v
		}
	}
}

// Validate checks the settings the pipeline cannot run without.
func (c *Config) Validate() error {
	spotify := c.Credentials.Spotify
	if spotify.ClientID == "" || spotify.ClientSecret == "" {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set", ErrMissingCredentials)
	}
	if spotify.RedirectURI == "" {
		return fmt.Errorf("%w: Spotify redirect_uri must be set", ErrInvalidConfig)
	}

	switch c.Extractor.Backend {
	case "openai", "gemini":
	default:
		return fmt.Errorf("%w: unknown extractor backend %q", ErrInvalidConfig, c.Extractor.Backend)
	}

	switch c.Server.TokenHandoff {
	case HandoffQuery, HandoffSession:
	default:
		return fmt.Errorf("%w: unknown token_handoff %q", ErrInvalidConfig, c.Server.TokenHandoff)
	}

	return nil
}
