package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kobzarvs/formulaedit/internal/app"
	"github.com/kobzarvs/formulaedit/internal/config"
	"github.com/kobzarvs/formulaedit/internal/logger"
	"github.com/kobzarvs/formulaedit/internal/session"
)

var version = "dev"

type options struct {
	configPath string
	debug      bool
	readOnly   bool
	noWatch    bool
	noSession  bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "formulaedit:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "formulaedit",
		Short:         "Edit formulas with atomic [variable] tokens in the terminal",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "",
		"config file (default: ~/.config/formulaedit/config.toml)")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "write debug logs")
	cmd.Flags().BoolVar(&opts.readOnly, "read-only", false, "open the formulas read-only")
	cmd.Flags().BoolVar(&opts.noWatch, "no-watch", false, "do not reload the config file when it changes")
	cmd.Flags().BoolVar(&opts.noSession, "no-session", false, "do not restore or save formulas between runs")
	return cmd
}

func loadConfig(opts options) (config.Config, string, error) {
	path := opts.configPath
	if path == "" {
		var err error
		path, err = config.ConfigPath()
		if err != nil {
			return config.Default(), "", fmt.Errorf("locating config: %w", err)
		}
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return cfg, path, fmt.Errorf("loading config: %w", err)
	}
	if opts.readOnly {
		cfg.Editor.ReadOnly = true
	}
	if err := cfg.Validate(); err != nil {
		return cfg, path, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, path, nil
}

func run(opts options) error {
	if err := logger.Init(opts.debug); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	cfg, path, err := loadConfig(opts)
	if err != nil {
		return err
	}

	a := app.New(cfg)
	a.SetForceReadOnly(opts.readOnly)
	if !opts.noWatch {
		a.SetConfigPath(path)
	}
	if !opts.noSession {
		sess, err := session.NewManager()
		if err != nil {
			logger.Warn("session disabled", "error", err)
		} else {
			a.SetSession(sess)
			defer func() {
				if err := sess.Stop(); err != nil {
					logger.Warn("session save failed", "error", err)
				}
			}()
		}
	}
	return a.Run()
}
