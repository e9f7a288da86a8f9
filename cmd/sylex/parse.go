package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dgallion1/sylex/internal/app"
	"github.com/dgallion1/sylex/internal/pipeline"
	"github.com/dgallion1/sylex/internal/store"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file-or-reference>...",
	Short: "Extract one or more syllabi and print the results",
	Long: `Parse runs the extraction pipeline on each argument in turn.

Arguments are local paths or storage references:
  sylex parse syllabus.pdf
  sylex parse gs://course-files/chem2090/syllabus.pdf -o yaml
  sylex parse s3://bucket/syllabus.docx -o ics > chem.ics`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, _ := parseFormat(outputFormat)
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger()
		r, err := newRunner(cfg.DatabasePath, app.Build(cfg, log), log)
		if err != nil {
			return err
		}
		defer r.Close()

		failed := 0
		for _, arg := range args {
			ref, err := toReference(arg)
			if err != nil {
				return err
			}
			res, err := r.run(cmd.Context(), ref, cmd.OutOrStdout(), f)
			if err != nil {
				return err
			}
			if !res.Success {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d documents failed", failed, len(args))
		}
		return nil
	},
}

// toReference turns a local path into a file reference and passes storage
// references through.
func toReference(arg string) (string, error) {
	if strings.Contains(arg, "://") {
		return arg, nil
	}
	abs, err := filepath.Abs(arg)
	if err != nil {
		return "", err
	}
	return "file://" + filepath.ToSlash(abs), nil
}

// runner parses documents and optionally stores the results.
type runner struct {
	engine *pipeline.Engine
	db     *store.SQLite
	log    *slog.Logger
}

func newRunner(dbPath string, c *app.Components, log *slog.Logger) (*runner, error) {
	r := &runner{engine: c.Engine, log: log}
	if save {
		if dbPath == "" {
			return nil, fmt.Errorf("--save needs DATABASE_PATH")
		}
		db, err := store.Open(dbPath)
		if err != nil {
			return nil, err
		}
		r.db = db
	}
	return r, nil
}

func (r *runner) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

func (r *runner) run(ctx context.Context, ref string, out io.Writer, f format) (pipeline.Result, error) {
	id := uuid.NewString()
	res := r.engine.Parse(ctx, ref)
	if r.db != nil && res.Success {
		err := r.db.Save(ctx, store.Record{
			Document: store.Document{
				ID:        id,
				Reference: ref,
				Filename:  res.Filename,
				CreatedAt: time.Now(),
			},
			Term:      res.Term,
			TermStart: res.Bounds.Start,
			TermEnd:   res.Bounds.End,
			Degraded:  res.Degraded,
			Warnings:  res.Warnings,
			Data:      res.Parsed,
		})
		if err != nil {
			return res, fmt.Errorf("save %s: %w", ref, err)
		}
		r.log.Info("saved result", "doc_id", id, "reference", ref)
	}
	return res, writeResult(out, f, id, res)
}
