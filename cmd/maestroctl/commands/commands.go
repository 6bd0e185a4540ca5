package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/google/uuid"
	"k8s.io/client-go/util/homedir"

	"github.com/maestrohq/maestroctl/internal/conventions"
	"github.com/maestrohq/maestroctl/internal/log"
	"github.com/maestrohq/maestroctl/internal/model"
	"github.com/maestrohq/maestroctl/internal/orchestrator"
	"github.com/maestrohq/maestroctl/internal/orchestrator/fake"
	"github.com/maestrohq/maestroctl/internal/orchestrator/rest"
	"github.com/maestrohq/maestroctl/internal/printer"
	storageio "github.com/maestrohq/maestroctl/internal/storage/io"
	"github.com/maestrohq/maestroctl/internal/storage/sqlite"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"

	formatTable = "table"
	formatJSON  = "json"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug       bool
	NoLog       bool
	NoColor     bool
	LoggerType  string
	DBPath      string
	ProfilePath string
	APIURL      string
	UserID      string
	HTTPTimeout time.Duration
	Fake        bool

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)

	dataDir := filepath.Join(homedir.HomeDir(), conventions.DefaultDataDir)
	app.Flag("db-path", "Path to the SQLite history database file.").Envar("MAESTRO_DB_PATH").Default(conventions.DBPath(dataDir)).StringVar(&c.DBPath)
	app.Flag("profile", "Path to the YAML profile file (ignored if missing).").Envar("MAESTRO_PROFILE").Default(conventions.ProfilePath(dataDir)).StringVar(&c.ProfilePath)

	// No defaults on flags that a profile can set, unset flags fall back to the profile.
	app.Flag("api-url", fmt.Sprintf("Orchestrator base URL (default %s).", conventions.DefaultAPIURL)).Envar("MAESTRO_API_URL").StringVar(&c.APIURL)
	app.Flag("user-id", "User ID used for sessions and tasks (default derived from the host).").Envar("MAESTRO_USER_ID").StringVar(&c.UserID)
	app.Flag("http-timeout", fmt.Sprintf("Orchestrator request timeout (default %s).", conventions.DefaultRequestTimeout)).Envar("MAESTRO_HTTP_TIMEOUT").DurationVar(&c.HTTPTimeout)
	app.Flag("fake", "Use an in-memory fake orchestrator instead of the API.").Envar("MAESTRO_FAKE").BoolVar(&c.Fake)

	return c
}

// Settings are the resolved client settings: flags, then profile, then defaults.
type Settings struct {
	APIURL       string
	UserID       string
	PollInterval time.Duration
	PollTimeout  time.Duration
	HTTPTimeout  time.Duration
}

// LoadProfile loads the user profile, a missing profile is an empty one.
func (c *RootCommand) LoadProfile(ctx context.Context) (model.Profile, error) {
	if c.ProfilePath == "" {
		return model.Profile{}, nil
	}

	path, err := fsPath(c.ProfilePath)
	if err != nil {
		return model.Profile{}, err
	}

	p, err := storageio.NewProfileYAMLRepository(os.DirFS("/")).GetProfile(ctx, path)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			c.Logger.Debugf("Profile %s not found, using defaults", c.ProfilePath)
			return model.Profile{}, nil
		}
		return model.Profile{}, fmt.Errorf("could not load profile: %w", err)
	}

	return p, nil
}

// Settings resolves the client settings.
func (c *RootCommand) Settings(ctx context.Context) (Settings, error) {
	p, err := c.LoadProfile(ctx)
	if err != nil {
		return Settings{}, err
	}

	return Settings{
		APIURL:       first(c.APIURL, p.APIURL, conventions.DefaultAPIURL),
		UserID:       first(c.UserID, p.UserID, defaultUserID()),
		PollInterval: first(0, p.PollInterval, conventions.DefaultPollInterval),
		PollTimeout:  first(0, p.PollTimeout, conventions.DefaultPollTimeout),
		HTTPTimeout:  first(c.HTTPTimeout, p.HTTPTimeout, conventions.DefaultRequestTimeout),
	}, nil
}

// NewOrchestrator returns the orchestrator client for the settings.
func (c *RootCommand) NewOrchestrator(s Settings) (orchestrator.Client, error) {
	if c.Fake {
		c.Logger.Warningf("Using fake orchestrator")
		return fake.NewOrchestrator(fake.OrchestratorConfig{Logger: c.Logger})
	}

	return rest.NewClient(rest.ClientConfig{
		BaseURL: s.APIURL,
		Timeout: s.HTTPTimeout,
		Logger:  c.Logger,
	})
}

// NewRepository opens the local history database.
func (c *RootCommand) NewRepository(ctx context.Context) (*sqlite.Repository, error) {
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.DBPath,
		Logger: c.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create repository: %w", err)
	}

	return repo, nil
}

// NewPrinter returns the printer for an output format.
func (c *RootCommand) NewPrinter(format string) printer.Printer {
	if format == formatJSON {
		return printer.NewJSONPrinter(c.Stdout)
	}
	return printer.NewTablePrinter(c.Stdout)
}

func formatFlag(cmd *kingpin.CmdClause, format *string) {
	cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(format, formatTable, formatJSON)
}

// defaultUserID is stable for the same user on the same host so the stored
// sessions are found on every invocation.
func defaultUserID() string {
	host, _ := os.Hostname()
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(host+":"+homedir.HomeDir()))
	return "cli-user-" + id.String()[:8]
}

// fsPath converts a path into an os.DirFS("/") path.
func fsPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("could not resolve path %s: %w", path, err)
	}
	return abs[1:], nil
}

func first[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// newOrchestrator resolves the settings and returns the orchestrator client.
func (c *RootCommand) newOrchestrator(ctx context.Context) (orchestrator.Client, Settings, error) {
	settings, err := c.Settings(ctx)
	if err != nil {
		return nil, Settings{}, err
	}

	orch, err := c.NewOrchestrator(settings)
	if err != nil {
		return nil, Settings{}, fmt.Errorf("could not create orchestrator client: %w", err)
	}

	return orch, settings, nil
}
