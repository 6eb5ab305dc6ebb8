package main

import (
	"bufio"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moviemate/internal/models"
	"github.com/desertthunder/moviemate/internal/repositories"
	"github.com/desertthunder/moviemate/internal/services"
	"github.com/desertthunder/moviemate/internal/shared"
	"github.com/desertthunder/moviemate/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database, API client and engine are wired on first use so that setup commands work
// before a config file or database exists.
type Runner struct {
	config     *shared.Config
	configPath string
	db         *sql.DB
	api        *services.APIService
	engine     *tasks.Engine
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      *bufio.Reader
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	API        *services.APIService
	Engine     *tasks.Engine
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
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

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		api:        opts.API,
		engine:     opts.Engine,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      bufio.NewReader(opts.Input),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, catalogCommand, collectionCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig resolves the configuration once. A missing file falls back to the embedded defaults.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	if r.config != nil {
		return r.config, nil
	}

	path := r.configPath
	if path == "" {
		path = cmd.String("config")
	}

	config, err := shared.LoadConfig(path)
	if errors.Is(err, shared.ErrMissingConfig) {
		r.logger.Debug("config file not found, using defaults", "path", path)
		r.config = shared.DefaultConfig()
		return r.config, nil
	}
	if err != nil {
		return nil, err
	}
	r.config = config
	return config, nil
}

// bootstrap wires config, database, session storage, API client and engine.
func (r *Runner) bootstrap(cmd *cli.Command) (*tasks.Engine, error) {
	if r.engine != nil {
		return r.engine, nil
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	r.db = db

	tokens := repositories.NewTokenStore(repositories.NewSessionRepository(db))
	if r.api == nil {
		r.api = services.NewAPIService(config.API.BaseURL, r.httpClient,
			services.WithTokenSource(tokens),
			services.WithRateLimit(config.API.RequestsPerSecond),
			services.WithLogger(shared.WithLogger(r.logger, "component", "api")),
		)
	}

	r.engine = tasks.NewEngine(tasks.Deps{
		API:       r.api,
		Tokens:    tokens,
		Events:    repositories.NewEventRepository(db),
		Validator: models.NewFormValidator(models.RatingBounds{Min: config.Ratings.Min, Max: config.Ratings.Max}),
		Logger:    shared.WithLogger(r.logger, "component", "tasks"),
		PageSize:  config.Browse.PageSize,
		Ordering:  config.Browse.Ordering,
	})

	r.logger.Debug("runner ready", "api", config.API.BaseURL, "database", config.Database.Path)
	return r.engine, nil
}

// SetLogger replaces the logger. It must be called before the engine is wired to take effect there.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Close releases the database handle.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
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

// prompt writes label and reads one trimmed line of input.
func (r *Runner) prompt(label string) (string, error) {
	r.writePlain("%s", label)
	line, err := r.input.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("%w: no input", shared.ErrMissingArgument)
	}
	return strings.TrimSpace(line), nil
}

// idArg parses the positional "id" argument.
func idArg(cmd *cli.Command) (int64, error) {
	raw := cmd.StringArg("id")
	if raw == "" {
		return 0, fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id must be a positive integer, got %q", shared.ErrInvalidArgument, raw)
	}
	return id, nil
}

// listOptions reads the shared listing filter flags.
func listOptions(cmd *cli.Command) models.ListOptions {
	return models.ListOptions{
		Search:    cmd.String("search"),
		Genre:     cmd.String("genre"),
		Platform:  cmd.String("platform"),
		Status:    cmd.String("status"),
		MediaType: cmd.String("type"),
		Ordering:  cmd.String("ordering"),
		Page:      cmd.Int("page"),
		PageSize:  cmd.Int("page-size"),
	}
}
