package main

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"coderd/internal/config"
	"coderd/internal/logging"
)

// app carries state shared by all subcommands.
type app struct {
	cfgPath string
	cfg     config.Config
	log     zerolog.Logger
	closer  io.Closer

	logLevel  string
	logFormat string
	modelsDir string
}

func newRootCmd() *cobra.Command {
	a := &app{log: zerolog.Nop()}
	root := &cobra.Command{
		Use:           "coderd",
		Short:         "Local HTML/UI code generation on a llama.cpp model",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.closer != nil {
				return a.closer.Close()
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgPath, "config", "c", os.Getenv("CODERD_CONFIG"), "Config file (.yaml, .json or .toml); defaults to CODERD_CONFIG")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level: trace|debug|info|warn|error|off")
	pf.StringVar(&a.logFormat, "log-format", "", "Log format: console|json")
	pf.StringVar(&a.modelsDir, "models-dir", "", "Directory to scan for *.gguf model files (default "+config.DefaultModelsDir+")")

	root.AddCommand(
		newServeCmd(a),
		newGenerateCmd(a),
		newUICmd(a),
		newModelsCmd(a),
		newThreadsCmd(),
	)
	return root
}

// setup loads the config file, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	if a.cfgPath != "" {
		cfg, err := config.Load(a.cfgPath)
		if err != nil {
			return err
		}
		a.cfg = cfg
	}
	a.cfg = a.overrides(a.cfg)

	l, c, err := logging.New(logging.Options{
		Level:      a.cfg.Log.Level,
		Format:     a.cfg.Log.Format,
		File:       a.cfg.Log.File,
		MaxSizeMB:  a.cfg.Log.MaxSizeMB,
		MaxBackups: a.cfg.Log.MaxBackups,
		MaxAgeDays: a.cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return err
	}
	a.log, a.closer = l, c
	return nil
}

// overrides applies persistent flags on top of cfg and fills defaults.
func (a *app) overrides(cfg config.Config) config.Config {
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if a.modelsDir != "" {
		cfg.ModelsDir = a.modelsDir
	}
	return cfg.WithDefaults()
}
