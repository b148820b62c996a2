package main

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/germanamz/koinonia/pkg/bibledb"
	"github.com/germanamz/koinonia/pkg/engine"
	"github.com/germanamz/koinonia/pkg/logging"
	"github.com/germanamz/koinonia/pkg/passage"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type rootOptions struct {
	configPath string
	envFile    string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "koinonia",
		Short:         "Bible study assistant server",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return loadDotEnv(opts.envFile)
		},
	}

	f := cmd.PersistentFlags()
	f.StringVarP(&opts.configPath, "config", "c", "koinonia.yaml", "path to configuration file")
	f.StringVar(&opts.envFile, "env", ".env", "path to .env file (ignored if missing)")

	cmd.AddCommand(
		newServeCommand(opts),
		newAskCommand(),
		newMCPCommand(opts),
		newTranslationsCommand(opts),
		newTierCommand(opts),
	)
	return cmd
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// loadConfig reads the configuration and builds the logger it describes.
func loadConfig(path string, logOut io.Writer) (engine.Config, *slog.Logger, error) {
	cfg, err := engine.LoadConfig(path)
	if err != nil {
		return engine.Config{}, nil, err
	}
	log, err := logging.New(logOut, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return engine.Config{}, nil, err
	}
	return cfg, log, nil
}

// openResolver opens the verse store read-only.
func openResolver(cfg engine.Config) (*passage.Resolver, func() error, error) {
	if cfg.BibleDB == "" {
		return nil, nil, errors.New("bible_db is not configured")
	}
	db, err := bibledb.Open(cfg.BibleDB, true)
	if err != nil {
		return nil, nil, err
	}
	return passage.NewResolver(db), db.Close, nil
}
