package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/nodeflow/pkg/nodeflow"
	"github.com/randalmurphal/nodeflow/pkg/nodeflow/config"
	"github.com/randalmurphal/nodeflow/pkg/nodeflow/runlog"
)

// rootOptions holds the persistent flags and what PersistentPreRunE builds
// from them.
type rootOptions struct {
	configPath string
	envFile    string
	logLevel   string
	logFormat  string

	cfg    config.Engine
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "nodeflow",
		Short:         "Run node-based dataflow graphs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd.ErrOrStderr())
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "engine config file (.yaml, .yml or .json)")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file read before NODEFLOW_* variables")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	flags.StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")

	cmd.AddCommand(newRunCmd(opts), newServeCmd(opts))
	return cmd
}

func (o *rootOptions) load(logOut io.Writer) error {
	logger, err := newLogger(logOut, o.logLevel, o.logFormat)
	if err != nil {
		return err
	}
	cfg, err := config.LoadEngine(o.configPath, o.envFile)
	if err != nil {
		return err
	}
	o.logger = logger
	o.cfg = cfg
	return nil
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	hopts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "text":
		return slog.New(slog.NewTextHandler(w, hopts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, hopts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
}

// engine builds the flow engine from the loaded settings.
func (o *rootOptions) engine(extra ...nodeflow.EngineOption) *nodeflow.Engine {
	return nodeflow.NewEngineFromConfig(o.cfg, o.logger, extra...)
}

// openStore opens the configured run log: SQLite when a path is set,
// otherwise memory.
func (o *rootOptions) openStore() (runlog.Store, error) {
	if o.cfg.RunStore == "" {
		return runlog.NewMemoryStore(), nil
	}
	return runlog.NewSQLiteStore(o.cfg.RunStore)
}
