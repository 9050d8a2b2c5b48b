package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/notefm/internal/notes"
	"github.com/desertthunder/notefm/internal/repositories"
	"github.com/desertthunder/notefm/internal/services"
	"github.com/desertthunder/notefm/internal/shared"
	"github.com/desertthunder/notefm/internal/vault"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Database-backed dependencies are opened lazily so commands that never
// touch storage (setup config, connect --status with no database yet)
// don't require one.
type Runner struct {
	config     *shared.Config
	spotify    services.Service
	tokens     *services.TokenStore
	db         *sql.DB
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Spotify, Tokens, and DB are injectable for tests; nil means construct
// from config on first use.
type RunnerOpts struct {
	Config     *shared.Config
	Spotify    services.Service
	Tokens     *services.TokenStore
	DB         *sql.DB
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		spotify:    opts.Spotify,
		tokens:     opts.Tokens,
		db:         opts.DB,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger swaps the runner's logger, used to redirect logs to a file
// while the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Close releases the lazily opened database, if any.
func (r *Runner) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, connectCommand, logCommand, nowCommand, searchCommand, recentCommand, historyCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// database opens the configured SQLite database on first use.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.OpenStateDB(r.config.Database)
	if err != nil {
		return nil, err
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	r.db = db
	return db, nil
}

func (r *Runner) tokenStore() (*services.TokenStore, error) {
	if r.tokens != nil {
		return r.tokens, nil
	}

	db, err := r.database()
	if err != nil {
		return nil, err
	}

	tokens, err := services.NewTokenStore(services.TokenStoreOpts{
		State:       repositories.NewStateRepository(db),
		ClientID:    r.config.Credentials.Spotify.ClientID,
		RedirectURI: r.config.Credentials.Spotify.RedirectURI(),
		HTTPClient:  r.httpClient,
		Logger:      r.logger,
	})
	if err != nil {
		return nil, err
	}

	r.tokens = tokens
	return tokens, nil
}

func (r *Runner) service() (services.Service, error) {
	if r.spotify != nil {
		return r.spotify, nil
	}

	tokens, err := r.tokenStore()
	if err != nil {
		return nil, err
	}

	svc, err := services.NewSpotifyService(services.SpotifyServiceOpts{
		Tokens:     tokens,
		HTTPClient: r.httpClient,
		Logger:     r.logger,
	})
	if err != nil {
		return nil, err
	}

	r.spotify = svc
	return svc, nil
}

func (r *Runner) scrobbleRepo() (*repositories.ScrobbleRepository, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	return repositories.NewScrobbleRepository(db), nil
}

func (r *Runner) openVault(logger *log.Logger) (*vault.FS, error) {
	return vault.NewFS(vault.FSOpts{
		Root:   r.config.Vault.FolderPath,
		Logger: logger,
	})
}

func (r *Runner) noteRepo(v vault.Vault, logger *log.Logger) (*notes.Repository, error) {
	return notes.NewRepository(notes.RepositoryOpts{
		Vault:  v,
		Config: r.config,
		Logger: logger,
	})
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
