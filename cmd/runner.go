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
	"github.com/desertthunder/dreamsprout/internal/auth"
	"github.com/desertthunder/dreamsprout/internal/journal"
	"github.com/desertthunder/dreamsprout/internal/models"
	"github.com/desertthunder/dreamsprout/internal/persistence"
	"github.com/desertthunder/dreamsprout/internal/repositories"
	"github.com/desertthunder/dreamsprout/internal/services"
	"github.com/desertthunder/dreamsprout/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database and everything built on it are opened on first use so that commands like
// setup and --help work without a database.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	envToken   string

	kv      repositories.KeyValueStore
	db      *sql.DB
	client  *services.Client
	session *auth.Session
	local   *repositories.LocalDreams
	prefs   *repositories.PreferencesRepository
	router  *persistence.Router
	store   *journal.Store
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer

	// Store replaces the SQLite database, for tests.
	Store repositories.KeyValueStore

	// EnvToken signs every request in as this bearer token without touching the saved session.
	EnvToken string
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
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		envToken:   opts.EnvToken,
		kv:         opts.Store,
	}
}

// SetLogger replaces the logger used by the runner and everything it builds afterwards.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// open wires storage, the API client, the session and the journal. It is idempotent.
func (r *Runner) open() error {
	if r.store != nil {
		return nil
	}

	if r.kv == nil {
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		r.db = db
		r.kv = repositories.NewSQLiteStore(db)
	}

	r.client = services.NewClient(services.ClientOpts{
		BaseURL:    r.config.API.BaseURL,
		HTTPClient: r.httpClient,
		Timeout:    r.config.API.Timeout(),
		Breaker:    r.config.API.Breaker,
		Logger:     shared.WithLogger(r.logger, "component", "api"),
	})
	r.session = auth.NewSession(r.kv, r.config.Auth, shared.WithLogger(r.logger, "component", "auth"))
	r.local = repositories.NewLocalDreams(r.kv, r.logger)
	r.prefs = repositories.NewPreferencesRepository(r.kv, r.logger)
	r.router = persistence.NewRouter(persistence.RouterOpts{
		Local:     r.local,
		Remote:    r.client,
		Logger:    shared.WithLogger(r.logger, "component", "router"),
		Sequenced: true,
	})

	var identity journal.IdentityProvider = r.session
	if r.envToken != "" {
		identity = envIdentity(r.envToken)
	}
	r.store = journal.NewStore(r.router, identity, r.logger)
	return nil
}

// Close releases the database, if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// envIdentity is a signed-in identity from DREAMSPROUT_TOKEN.
type envIdentity string

func (t envIdentity) Identity(context.Context) (models.Identity, error) {
	return models.Identity{IsAuthenticated: true, Token: string(t)}, nil
}

// token returns the bearer token for the current identity, or "" for guests.
func (r *Runner) token(ctx context.Context) (string, error) {
	id, err := r.store.Identity(ctx)
	if err != nil {
		return "", err
	}
	if !id.Remote() {
		return "", nil
	}
	return id.Token, nil
}

func (r *Runner) preferences(ctx context.Context) models.Preferences {
	prefs, err := r.prefs.Load(ctx)
	if err != nil {
		r.logger.Warn("failed to load preferences, using defaults", "error", err)
		return models.DefaultPreferences()
	}
	return prefs
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, dreamCommand, speakCommand, settingsCommand, statsCommand, clearCommand, exportCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// before loads configuration for the root command's flags and applies the log level.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
		if _, err := os.Stat(path); err == nil {
			config, err := shared.LoadConfig(path)
			if err != nil {
				return ctx, err
			}
			r.config = config
		}
	}
	if err := shared.ApplyEnv(r.config); err != nil {
		return ctx, err
	}

	level := r.config.Log.Level
	if cmd.Bool("debug") {
		level = "debug"
	}
	if level != "" {
		ll, err := log.ParseLevel(level)
		if err != nil {
			return ctx, fmt.Errorf("%w: log level %q", shared.ErrInvalidConfig, level)
		}
		shared.SetLogLevel(r.logger, ll)
	}
	return ctx, nil
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
