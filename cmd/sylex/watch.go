package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/sylex/internal/app"
	"github.com/dgallion1/sylex/internal/watch"
)

var (
	watchInitial  bool
	watchDebounce time.Duration
	watchUpload   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Parse syllabi as they are added to a directory",
	Long: `Watch parses every supported file created or modified under dir and
prints each result as it completes. Stop it with Ctrl+C.

With --upload each file is first copied to UPLOAD_BASE_URL and parsed from
there, so saved results reference the stored copy.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, _ := parseFormat(outputFormat)
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger()
		c := app.Build(cfg, log)
		r, err := newRunner(cfg.DatabasePath, c, log)
		if err != nil {
			return err
		}
		defer r.Close()

		ctx := cmd.Context()
		events, err := watch.Start(ctx, watch.Config{
			Root:        args[0],
			InitialScan: watchInitial,
			Debounce:    watchDebounce,
		}, log)
		if err != nil {
			return fmt.Errorf("watch %s: %w", args[0], err)
		}
		log.Info("watching", "dir", args[0])

		for path := range events {
			ref, err := toReference(path)
			if err != nil {
				log.Error("resolve path", "path", path, "error", err)
				continue
			}
			if watchUpload {
				data, err := os.ReadFile(path)
				if err != nil {
					log.Error("read file", "path", path, "error", err)
					continue
				}
				stored, err := c.Storage.Put(ctx, path, data)
				if err != nil {
					log.Error("upload failed", "path", path, "error", err)
					continue
				}
				ref = stored.String()
			}
			if _, err := r.run(ctx, ref, cmd.OutOrStdout(), f); err != nil {
				log.Error("parse failed", "path", path, "error", err)
			}
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchInitial, "initial", false, "also parse files already in dir")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "wait for writes to settle")
	watchCmd.Flags().BoolVar(&watchUpload, "upload", false, "copy files to UPLOAD_BASE_URL before parsing")
}
