package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ymsync/internal/models"
	"github.com/desertthunder/ymsync/internal/services"
	"github.com/desertthunder/ymsync/internal/shared"
	"github.com/desertthunder/ymsync/internal/state"
	"github.com/urfave/cli/v3"
)

// spotifyClient is the part of services.SpotifyService the commands use.
type spotifyClient interface {
	services.LikedSource
	LikedTracks(ctx context.Context, limit int) ([]models.Track, error)
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Services left nil are built from the configuration on first use.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	spotify    spotifyClient
	yandex     services.LikeTarget
	db         *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Spotify    spotifyClient
	Yandex     services.LikeTarget
	DB         *sql.DB
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

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		spotify:    opts.Spotify,
		yandex:     opts.Yandex,
		db:         opts.DB,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		launchCommand, syncCommand, spotifyCommand, yandexCommand, stateCommand, historyCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// before loads the configuration named by --config plus the .env file beside it.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	r.configPath = cmd.String("config")
	envPath := filepath.Join(filepath.Dir(r.configPath), ".env")

	config, err := shared.ResolveConfig(r.configPath, envPath)
	if err != nil {
		return ctx, err
	}
	r.config = config
	r.logger.Debug("configuration loaded", "config", r.configPath, "env", envPath)
	return ctx, nil
}

// SetLogger swaps the logger, e.g. to a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// spotifyService returns the injected client or builds one from the credentials and token cache.
func (r *Runner) spotifyService(ctx context.Context) (spotifyClient, error) {
	if r.spotify != nil {
		return r.spotify, nil
	}

	creds := r.config.Credentials.Spotify
	if !creds.Configured() {
		return nil, fmt.Errorf("%w: set credentials.spotify.client_id and client_secret (or SPOTIFY_CLIENT_ID / SPOTIFY_CLIENT_SECRET)", shared.ErrMissingCredentials)
	}

	svc, err := services.NewSpotifyService(creds.Map())
	if err != nil {
		return nil, err
	}
	if err := svc.LoadCachedToken(ctx, creds.TokenCache); err != nil {
		return nil, fmt.Errorf("%w (run 'ymsync spotify auth' first)", err)
	}

	r.spotify = svc
	return svc, nil
}

// yandexService returns the injected client or builds one from the Yandex Music token.
func (r *Runner) yandexService() (services.LikeTarget, error) {
	if r.yandex != nil {
		return r.yandex, nil
	}

	svc, err := services.NewYandexService(r.config.Credentials.Yandex, r.logger)
	if err != nil {
		return nil, fmt.Errorf("%w (set credentials.yandex.token or YANDEX_MUSIC_TOKEN)", err)
	}

	r.yandex = svc
	return svc, nil
}

// database opens the history database on first use.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, err
	}
	r.db = db
	return db, nil
}

func (r *Runner) stateStore() *state.Store {
	return state.NewStore(r.config.Sync.StateFile, r.logger)
}

// configHint decorates configuration errors with where the settings live.
func (r *Runner) configHint(err error) error {
	if err == nil || !shared.IsConfigError(err) {
		return err
	}
	path := r.configPath
	if path == "" {
		path = "config.toml"
	}
	return fmt.Errorf("%w\nCheck %s and the .env file next to it", err, path)
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

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
