package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fyrsmithlabs/dsproj/internal/config"
	"github.com/fyrsmithlabs/dsproj/internal/logging"
	"github.com/fyrsmithlabs/dsproj/internal/project"
	"github.com/fyrsmithlabs/dsproj/internal/registry"
	"github.com/fyrsmithlabs/dsproj/internal/schema"
	"github.com/fyrsmithlabs/dsproj/internal/vcs"
	"github.com/fyrsmithlabs/dsproj/internal/verify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app holds global flags and the state built from them before a command runs.
type app struct {
	projectDir string
	configPath string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger *logging.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "dsproj",
		Short: "Manage the data sources of a dataset project",
		Long: `dsproj manages the data sources of a dataset project.

Sources are named references to datasets that are copied into the project,
linked in place, or tracked in a remote git repository. A source is only
recorded in the project configuration once its data is in place and matches
its declared format.`,
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&a.projectDir, "project", "p", "", "project directory (default: search upward from the current directory)")
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default: ~/.config/dsproj/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format (console|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("log-level", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"trace", "debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("log-format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"console", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newInitCmd(a))
	rootCmd.AddCommand(newSourceCmd(a))
	rootCmd.AddCommand(newStatusCmd(a))
	rootCmd.AddCommand(newCheckUpdatesCmd(a))
	rootCmd.AddCommand(newTrackCmd(a))

	return rootCmd
}

// setup loads user configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	lc := logging.NewDefaultConfig()
	lc.Format = cfg.Logging.Format
	lc.Caller.Enabled = cfg.Logging.Caller
	level := cfg.Logging.Level
	if a.logLevel != "" {
		level = a.logLevel
	}
	if a.logFormat != "" {
		lc.Format = a.logFormat
	}
	if lc.Level, err = logging.LevelFromString(level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if err := lc.Validate(); err != nil {
		return err
	}

	logger, err := logging.NewLogger(lc, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	a.logger = logger
	cmd.SetContext(logging.WithLogger(cmd.Context(), logger))
	return nil
}

func (a *app) store() *project.FileStore {
	return project.NewFileStore(a.cfg.Project.EnvDir, a.logger)
}

// loadProject loads the project named by --project, or the nearest one
// above the current directory.
func (a *app) loadProject() (*project.FileStore, *schema.Project, error) {
	store := a.store()
	dir := a.projectDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, nil, err
		}
		if dir, err = store.FindRoot(wd); err != nil {
			return nil, nil, err
		}
	}
	p, err := store.Load(dir)
	if err != nil {
		return nil, nil, err
	}
	return store, p, nil
}

// openRegistry loads the project and wires its registry with the git
// adapter and the format catalog, plugins included.
func (a *app) openRegistry(ctx context.Context) (*registry.Registry, error) {
	store, p, err := a.loadProject()
	if err != nil {
		return nil, err
	}

	adapter, err := vcs.NewGitAdapter(
		filepath.Join(p.EnvPath(), vcs.IndexFilename),
		p.SourceDir(""),
		vcs.GitOptions{
			Remote:   a.cfg.Git.Remote,
			Depth:    a.cfg.Git.Depth,
			Timeout:  a.cfg.Git.Timeout.Duration(),
			Username: a.cfg.Git.Username,
			Password: a.cfg.Git.Password,
		},
		a.logger,
	)
	if err != nil {
		return nil, err
	}

	catalog := verify.NewCatalog(a.logger)
	loaded, err := catalog.LoadPlugins(ctx, p.PluginsPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load format plugins: %w", err)
	}
	if len(loaded) > 0 {
		a.logger.Debug(ctx, "format plugins loaded", zap.Strings("formats", loaded))
	}

	return registry.New(p, store, adapter, catalog, a.logger), nil
}
