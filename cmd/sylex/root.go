package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/sylex/internal/config"
)

var (
	outputFormat string
	verbose      bool
	save         bool
)

var rootCmd = &cobra.Command{
	Use:   "sylex",
	Short: "Extract structured course data from syllabus documents",
	Long: `Sylex reads a syllabus (PDF, DOCX, HTML, Markdown, text, CSV or XLSX)
and extracts the course name, instructor, weekly meetings, assignments,
exams and grading breakdown.

Configuration comes from the same environment variables as the server.
Without OPENAI_API_KEY only the pattern extractors run.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "json", "output format: json, yaml or ics",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "log progress to stderr",
	)
	rootCmd.PersistentFlags().BoolVar(
		&save, "save", false, "store results in DATABASE_PATH",
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		_, err := parseFormat(outputFormat)
		return err
	}

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(watchCmd)
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadConfig() (config.Config, error) {
	cfg := config.Load()
	return cfg, cfg.Validate()
}
