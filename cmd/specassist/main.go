package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dgallion1/specassist/internal/app"
	"github.com/dgallion1/specassist/internal/config"
)

var (
	configPath string
	verbose    bool

	cfg config.Config
	log *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "specassist",
	Short: "Question answering over a regulatory specification",
	Long: `specassist extracts pages from a specification document, splits them into
numbered sections and overlapping chunks, builds a vector index and answers
questions with citations to section ids and page ranges.

Typical flow:
  specassist pages spec.pdf
  specassist sections
  specassist build
  specassist ask "What is the compaction requirement for HMA?"`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		_ = godotenv.Load()
		path := configPath
		if path == "" {
			path = os.Getenv("SPECASSIST_CONFIG")
		}
		var err error
		cfg, err = config.LoadFile(path)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (env SPECASSIST_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
}

// newApp wires collaborators from the loaded configuration.
func newApp() (*app.App, error) {
	return app.New(cfg, log)
}

func dataPath(name string) string {
	return filepath.Join(cfg.DataDir, name)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
