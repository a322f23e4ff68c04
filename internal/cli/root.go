// Package cli implements the survey command line.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	service "github.com/okian/balance/internal/app"
	"github.com/okian/balance/internal/config"
	"github.com/okian/balance/pkg/logger"
)

var version = "dev"

// ServiceFactory builds an unstarted service from configuration.
type ServiceFactory func(ctx context.Context, cfg *config.Config) (*service.Service, error)

// Option customizes the root command.
type Option func(*runtime)

// WithServiceFactory replaces service.FromConfig.
func WithServiceFactory(f ServiceFactory) Option {
	return func(r *runtime) {
		if f != nil {
			r.newService = f
		}
	}
}

// WithPrompter replaces the terminal prompter used by take.
func WithPrompter(p Prompter) Option {
	return func(r *runtime) {
		if p != nil {
			r.prompter = p
		}
	}
}

// runtime is the state shared by every subcommand.
type runtime struct {
	configPath string
	verbose    bool

	cfg        *config.Config
	newService ServiceFactory
	prompter   Prompter
}

// NewRootCommand builds the survey command tree.
func NewRootCommand(opts ...Option) *cobra.Command {
	rt := &runtime{newService: service.FromConfig}
	for _, opt := range opts {
		opt(rt)
	}

	cmd := &cobra.Command{
		Use:   "survey",
		Short: "Life balance survey",
		Long: `survey runs the life balance questionnaire in the terminal, shows the
score history of a respondent and scores CSV files in bulk.

Configuration is read from BALANCE_CONFIG (or --config) and BALANCE_* variables,
the same way the HTTP server reads it.`,
		Version:      version,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&rt.configPath, "config", os.Getenv(config.EnvConfigFile), "YAML configuration file")
	cmd.PersistentFlags().BoolVarP(&rt.verbose, "verbose", "v", false, "Log at debug level")
	cmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return rt.init(cmd.ErrOrStderr())
	}

	cmd.AddCommand(newTakeCommand(rt))
	cmd.AddCommand(newHistoryCommand(rt))
	cmd.AddCommand(newBatchCommand(rt))
	return cmd
}

// Execute runs the root command against os.Args until it finishes or the
// process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}

func (rt *runtime) init(stderr io.Writer) error {
	cfg, err := config.LoadFile(rt.configPath)
	if err != nil {
		return err
	}
	rt.cfg = cfg

	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithOutput(stderr)); err != nil {
		return err
	}
	level := "warn"
	if rt.verbose {
		level = "debug"
	}
	return logger.SetLevelString(level)
}

// start builds and starts the service; the returned stop must be called.
func (rt *runtime) start(ctx context.Context) (*service.Service, func(), error) {
	svc, err := rt.newService(ctx, rt.cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := svc.Start(ctx); err != nil {
		return nil, nil, err
	}
	return svc, svc.Stop, nil
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
