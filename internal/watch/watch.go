// Package watch reports syllabus files that appear or change under a
// directory tree.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dgallion1/sylex/internal/parser"
)

type Config struct {
	Root        string
	InitialScan bool          // emit files already present
	Debounce    time.Duration // coalesce bursts of writes to one event
	Allowed     func(path string) bool
}

// Start watches cfg.Root recursively and emits the paths of supported files
// once their writes settle. The channel closes when ctx is done.
func Start(ctx context.Context, cfg Config, log *slog.Logger) (<-chan string, error) {
	if cfg.Root == "" {
		return nil, errors.New("watch: no root directory")
	}
	if cfg.Allowed == nil {
		cfg.Allowed = supported
	}
	if log == nil {
		log = slog.Default()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	var initial []string
	err = filepath.WalkDir(cfg.Root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return w.Add(path)
		}
		if cfg.InitialScan && cfg.Allowed(path) {
			initial = append(initial, path)
		}
		return nil
	})
	if err != nil {
		_ = w.Close()
		return nil, err
	}

	out := make(chan string, 64)
	go func() {
		defer close(out)
		defer w.Close()

		emit := func(p string) bool {
			select {
			case out <- p:
				return true
			case <-ctx.Done():
				return false
			}
		}
		for _, p := range initial {
			if !emit(p) {
				return
			}
		}

		pending := map[string]struct{}{}
		var timer *time.Timer
		var fire <-chan time.Time
		flush := func() bool {
			for p := range pending {
				delete(pending, p)
				if !emit(p) {
					return false
				}
			}
			return true
		}

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Has(fsnotify.Create) {
					if fi, err := os.Stat(e.Name); err == nil && fi.IsDir() {
						if err := w.Add(e.Name); err != nil {
							log.Warn("watch new directory failed", "path", e.Name, "error", err)
						}
						continue
					}
				}
				if !cfg.Allowed(e.Name) || !(e.Has(fsnotify.Create) || e.Has(fsnotify.Write)) {
					continue
				}
				pending[e.Name] = struct{}{}
				if cfg.Debounce <= 0 {
					if !flush() {
						return
					}
					continue
				}
				if timer == nil {
					timer = time.NewTimer(cfg.Debounce)
				} else {
					timer.Reset(cfg.Debounce)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				if !flush() {
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Error("watcher error", "error", err)
			}
		}
	}()
	return out, nil
}

func supported(path string) bool {
	base := filepath.Base(path)
	// Editors and office suites write lock and temp files next to the real one.
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~$") {
		return false
	}
	return parser.IsSupportedExtension(base)
}
