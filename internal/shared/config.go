package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Vault       VaultConfig       `toml:"vault"`
	Frontmatter FrontmatterConfig `toml:"frontmatter"`
	Links       LinksConfig       `toml:"links"`
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
}

// VaultConfig locates the note vault and controls album note fan-out.
type VaultConfig struct {
	FolderPath             string `toml:"folder_path"`
	PerTrackNotesForAlbums bool   `toml:"per_track_notes_for_albums"`
}

// FrontmatterConfig toggles optional frontmatter fields on generated notes.
type FrontmatterConfig struct {
	ShowType        bool `toml:"show_type"`
	ShowDuration    bool `toml:"show_duration"`
	ShowReleaseDate bool `toml:"show_release_date"`
	ShowTags        bool `toml:"show_tags"`
}

// LinksConfig toggles artist names in wikilink display text and aliases.
type LinksConfig struct {
	WikilinkShowArtists bool `toml:"wikilink_show_artists"`
	AliasShowArtists    bool `toml:"alias_show_artists"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains the Spotify PKCE client settings.
//
// There is no client secret: the app is an OAuth2 public client.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	RedirectPort int    `toml:"redirect_port"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// RedirectURI returns the loopback redirect URI derived from the configured port.
func (c SpotifyConfig) RedirectURI() string {
	return fmt.Sprintf("http://127.0.0.1:%d/callback", c.RedirectPort)
}

// Validate checks structural validity of the configuration.
//
// Vault path existence is checked separately by [Config.ValidateVaultPath]
// because setup commands run before the vault exists.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(&c.Vault,
		validation.Field(&c.Vault.FolderPath, validation.Required),
	); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := validation.ValidateStruct(&c.Credentials.Spotify,
		validation.Field(&c.Credentials.Spotify.RedirectPort, validation.Required, validation.Min(1), validation.Max(65535)),
	); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := validation.ValidateStruct(&c.Database,
		validation.Field(&c.Database.Path, validation.Required),
		validation.Field(&c.Database.MaxOpenConns, validation.Min(0)),
		validation.Field(&c.Database.MaxIdleConns, validation.Min(0)),
	); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ValidateVaultPath verifies that the configured note folder exists and is a directory.
//
// A logging session must not open against a missing folder.
func (c *Config) ValidateVaultPath() error {
	info, err := os.Stat(c.Vault.FolderPath)
	if err != nil {
		return fmt.Errorf("%w: folder path %q does not exist", ErrInvalidConfig, c.Vault.FolderPath)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: folder path %q is not a directory", ErrInvalidConfig, c.Vault.FolderPath)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// A .env file in the working directory and the NOTEFM_SPOTIFY_CLIENT_ID
// variable override the client id from the file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingConfig, err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	applyEnvOverrides(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	applyEnvOverrides(&config)
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

func applyEnvOverrides(config *Config) {
	_ = godotenv.Load()
	if id := os.Getenv("NOTEFM_SPOTIFY_CLIENT_ID"); id != "" {
		config.Credentials.Spotify.ClientID = id
	}
}
