package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtape/internal/catalog"
	"github.com/desertthunder/mixtape/internal/controller"
	"github.com/desertthunder/mixtape/internal/playback"
	"github.com/desertthunder/mixtape/internal/repositories"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/session"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
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
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger replaces the runner's logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, searchCommand, popularCommand, resolveCommand,
		libraryCommand, playCommand, tuiCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// openDatabase opens the configured database with migrations applied.
func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", r.config.Database.Path, err)
	}
	return db, nil
}

func (r *Runner) sessions(db *sql.DB) (*session.Manager, error) {
	return session.NewManager(repositories.NewUserRepository(db), r.config.Session)
}

// currentSession verifies the credential saved by "auth login".
func (r *Runner) currentSession(db *sql.DB) (*session.Session, error) {
	manager, err := r.sessions(db)
	if err != nil {
		return nil, err
	}
	sess, err := manager.Restore(r.config.Session)
	if err != nil {
		return nil, fmt.Errorf("%w (run 'mixtape auth login')", err)
	}
	return sess, nil
}

// searchers builds the search-capable provider adapters, sharing the configured rate limit.
func (r *Runner) searchers() []services.Searcher {
	rps := r.config.Providers.RequestsPerSecond

	catalogAPI := services.NewAPIService(r.config.Providers.Catalog.Endpoint, r.httpClient).WithRateLimit(rps)
	yandex := services.NewYandexService(r.config.Providers.Yandex, r.httpClient)
	yandex.API().WithRateLimit(rps)

	return []services.Searcher{
		services.NewCatalogService(catalogAPI, r.config.Providers.Catalog),
		yandex,
	}
}

// searcher returns the adapter of the named provider.
func (r *Runner) searcher(name string) (services.Searcher, error) {
	kind, err := parseProvider(name)
	if err != nil {
		return nil, err
	}
	for _, s := range r.searchers() {
		if s.Kind() == kind {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %s does not support search", shared.ErrInvalidFlag, kind.Label())
}

// mechanisms wires mpv for previews and the system browser for embeds and hand-offs.
//
// A headless host passes openEmbeds=false so embeds stay render-only.
func (r *Runner) mechanisms(openEmbeds bool) playback.Mechanisms {
	var open func(string) error
	if openEmbeds {
		open = shared.OpenBrowser
	}
	return playback.Mechanisms{
		Audio:   playback.NewMPV(r.config.Playback),
		Embed:   playback.NewEmbed(open),
		Handoff: playback.NewHandoff(nil),
	}
}

// newMusic builds the music controller for sess with its library loaded from db.
func (r *Runner) newMusic(sess session.Authenticator, db *sql.DB, openEmbeds bool) (*controller.Music, error) {
	acquire, err := shared.ParseDuration(r.config.Playback.AcquireTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: playback.acquire_timeout: %v", shared.ErrInvalidConfig, err)
	}
	search, err := shared.ParseDuration(r.config.Providers.SearchTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: providers.search_timeout: %v", shared.ErrInvalidConfig, err)
	}

	music, err := controller.New(sess, controller.Options{
		Links:     services.NewYouTubeLinkService(),
		Searchers: r.searchers(),
		Catalog:   catalog.Options{Timeout: search},
		Player:    playback.New(r.mechanisms(openEmbeds), playback.WithAcquireTimeout(acquire)),
		Persister: repositories.NewLibraryRepository(db),
	})
	if err != nil {
		return nil, err
	}

	n, err := music.Load()
	if err != nil {
		music.Close()
		return nil, fmt.Errorf("failed to load library: %w", err)
	}
	r.logger.Debug("library loaded", "user", music.User().ID(), "tracks", n)
	return music, nil
}

// saveConfig persists the in-memory config to the runner's config path.
func (r *Runner) saveConfig() error {
	if r.configPath == "" {
		return nil
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
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
