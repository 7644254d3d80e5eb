package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotify-tools/internal/services"
	"github.com/desertthunder/spotify-tools/internal/shared"
	"github.com/desertthunder/spotify-tools/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const (
	defaultTokenCache = ".spotify_tools.cache"
	authTimeout       = 2 * time.Minute
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	configPath  string
	session     services.Session
	logger      *log.Logger
	output      io.Writer
	engineOpts  []tasks.EngineOption
	openBrowser func(string) error
	authTimeout time.Duration
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A nil Config is loaded from --config before any command runs. A nil Session is
// built from the configured credentials and the token cache on first use.
type RunnerOpts struct {
	Config        *shared.Config
	ConfigPath    string
	Session       services.Session
	Logger        *log.Logger
	Output        io.Writer
	EngineOptions []tasks.EngineOption
	OpenBrowser   func(string) error
	AuthTimeout   time.Duration
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}
	if opts.AuthTimeout <= 0 {
		opts.AuthTimeout = authTimeout
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		session:     opts.Session,
		logger:      opts.Logger,
		output:      opts.Output,
		engineOpts:  opts.EngineOptions,
		openBrowser: opts.OpenBrowser,
		authTimeout: opts.AuthTimeout,
	}
}

// SetLogger replaces the logger used by subsequent operations.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// configure loads the layered configuration and applies the log level.
//
// The --log-level flag (or its environment variable) wins over [log] level in the config file.
func (r *Runner) configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if r.config == nil {
		config, err := shared.LoadConfigWithEnv(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	}

	level := r.config.Log.Level
	if flag := cmd.String("log-level"); cmd.IsSet("log-level") && flag != "" {
		level = flag
	}

	ll, err := shared.ParseLogLevel(level)
	if err != nil {
		return ctx, err
	}
	shared.SetLogLevel(r.logger, ll)

	r.logger.Debug("configuration loaded", "path", r.configPath, "level", ll)
	return ctx, nil
}

func (r *Runner) tokenCache() *shared.TokenCache {
	path := r.config.Spotify.TokenCache
	if path == "" {
		path = defaultTokenCache
	}
	return shared.NewTokenCache(path)
}

// spotifyService builds an unauthenticated client from the configured credentials and tuning.
func (r *Runner) spotifyService() (*services.SpotifyService, error) {
	creds := r.config.Credentials.Spotify
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	return services.NewSpotifyService(creds.Map(),
		services.WithTimeout(r.config.Spotify.Timeout()),
		services.WithRateLimit(r.config.Spotify.RequestsPerSecond),
		services.WithAutoRetry(r.config.Spotify.AutoRetry),
	)
}

// connect returns an authenticated session, running the browser authorization when no token is cached.
func (r *Runner) connect(ctx context.Context) (services.Session, error) {
	if r.session != nil {
		return r.session, nil
	}

	svc, err := r.spotifyService()
	if err != nil {
		return nil, err
	}

	cache := r.tokenCache()
	token, err := cache.Load()
	if err != nil {
		return nil, err
	}

	if token == nil {
		r.logger.Info("no cached token, starting authorization", "cache", cache.Path())
		if token, err = r.doOAuth(ctx, svc, "authorization"); err != nil {
			return nil, err
		}
		r.saveToken(cache, token)
	}

	if err := r.authenticate(ctx, svc, cache, token); err != nil {
		return nil, err
	}

	r.session = svc
	return svc, nil
}

// authenticate installs token on svc and keeps the cache current as it refreshes.
func (r *Runner) authenticate(ctx context.Context, svc *services.SpotifyService, cache *shared.TokenCache, token *oauth2.Token) error {
	svc.SetTokenRefreshCallback(func(t *oauth2.Token) {
		r.logger.Debug("access token refreshed", "expiry", t.Expiry)
		r.saveToken(cache, t)
	})
	return svc.OAuthenticate(ctx, token)
}

func (r *Runner) saveToken(cache *shared.TokenCache, token *oauth2.Token) {
	if err := cache.Save(token); err != nil {
		r.logger.Warn("failed to cache token", "path", cache.Path(), "error", err)
	}
}

// engine builds a [tasks.ShuffleEngine] around session with the runner's engine options.
func (r *Runner) engine(session services.Session, rollback bool) *tasks.ShuffleEngine {
	opts := append([]tasks.EngineOption{tasks.WithRollback(rollback)}, r.engineOpts...)
	return tasks.NewShuffleEngine(session, r.logger, opts...)
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
