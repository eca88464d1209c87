package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/readerprint/internal/shared"
	"github.com/desertthunder/readerprint/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// PickFunc asks the user to choose a print queue.
type PickFunc func(ctx context.Context, lister ui.PrinterLister) (string, error)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	preloaded  bool
	logger     *log.Logger
	output     io.Writer
	commander  shared.Commander
	transport  http.RoundTripper
	getenv     func(string) string
	isTerminal func() bool
	pick       PickFunc
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A non-nil Config is used as-is; otherwise the file named by --config is loaded before each command.
type RunnerOpts struct {
	Config     *shared.Config
	Logger     *log.Logger
	Output     io.Writer
	Commander  shared.Commander
	Transport  http.RoundTripper
	Getenv     func(string) string
	IsTerminal func() bool
	Pick       PickFunc
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	preloaded := opts.Config != nil
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Commander == nil {
		opts.Commander = shared.ExecCommander{}
	}
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}
	if opts.IsTerminal == nil {
		opts.IsTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
	}
	if opts.Pick == nil {
		opts.Pick = func(ctx context.Context, lister ui.PrinterLister) (string, error) {
			return ui.PickPrinter(ctx, lister, os.Stdin, os.Stdout)
		}
	}

	return &Runner{
		config:     opts.Config,
		preloaded:  preloaded,
		logger:     opts.Logger,
		output:     opts.Output,
		commander:  opts.Commander,
		transport:  opts.Transport,
		getenv:     opts.Getenv,
		isTerminal: opts.IsTerminal,
		pick:       opts.Pick,
	}
}

// App builds the root command.
func (r *Runner) App() *cli.Command {
	return &cli.Command{
		Name:    "readerprint",
		Usage:   "Print new Readwise Reader articles to a CUPS printer",
		Version: "0.3.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before:   r.before,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		syncCommand, printersCommand, stateCommand, historyCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// before loads the configuration and applies environment overrides.
//
// A missing default config file is not an error; a missing file named explicitly is.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	r.configPath = cmd.String("config")
	if !r.preloaded {
		config, err := r.loadConfig(r.configPath, cmd.IsSet("config"))
		if err != nil {
			return ctx, err
		}
		r.config = config
	}
	r.config.ApplyEnv(r.getenv)
	return ctx, nil
}

func (r *Runner) loadConfig(path string, explicit bool) (*shared.Config, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			r.logger.Debug("config file not found, using defaults", "path", path)
			return shared.DefaultConfig(), nil
		}
		return nil, fmt.Errorf("%w: %s", shared.ErrMissingConfig, path)
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}
	r.logger.Debug("config loaded", "path", path)
	return config, nil
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

func (r *Runner) writeBytes(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
