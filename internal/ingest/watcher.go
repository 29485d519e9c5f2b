package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/entity"
)

// Enqueuer accepts upload events. *Queue satisfies it.
type Enqueuer interface {
	Enqueue(ctx context.Context, ev entity.UploadEvent) error
}

type WatchConfig struct {
	Root        string        // upload directory, laid out like the bucket (users/<uid>/laborers/...)
	InitialScan bool          // emit files already present at start
	Debounce    time.Duration // coalesce rapid create/write bursts per file
}

// WatchSource turns files appearing under a local directory into upload events.
type WatchSource struct {
	cfg    WatchConfig
	logger *slog.Logger
}

func NewWatchSource(cfg WatchConfig, logger *slog.Logger) (*WatchSource, error) {
	if cfg.Root == "" {
		return nil, errors.New("no watch root provided")
	}
	abs, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, err
	}
	cfg.Root = abs
	if logger == nil {
		logger = slog.Default()
	}
	return &WatchSource{cfg: cfg, logger: logger}, nil
}

// Run watches the root recursively and enqueues events until ctx is done.
func (s *WatchSource) Run(ctx context.Context, sink Enqueuer) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		s.logger.Error("failed to create fsnotify watcher", "error", err)
		return err
	}
	defer w.Close()

	var initial []string
	err = filepath.WalkDir(s.cfg.Root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return w.Add(p)
		}
		if s.cfg.InitialScan {
			initial = append(initial, p)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to add watch root", "root", s.cfg.Root, "error", err)
		return err
	}
	s.logger.Info("watching upload directory", "root", s.cfg.Root, "initial_files", len(initial))
	for _, p := range initial {
		s.emit(ctx, sink, p)
	}

	pending := map[string]struct{}{}
	var timer *time.Timer
	var fire <-chan time.Time
	flush := func() {
		for p := range pending {
			s.emit(ctx, sink, p)
			delete(pending, p)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case e, ok := <-w.Events:
			if !ok {
				return nil
			}
			if e.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(e.Name); err == nil && info.IsDir() {
					if err := w.Add(e.Name); err != nil {
						s.logger.Warn("failed to watch new directory", "path", e.Name, "error", err)
					}
					continue
				}
			}
			if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			pending[e.Name] = struct{}{}
			if s.cfg.Debounce <= 0 {
				flush()
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(s.cfg.Debounce)
			fire = timer.C
		case <-fire:
			fire = nil
			flush()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}

func (s *WatchSource) emit(ctx context.Context, sink Enqueuer, abs string) {
	ev, ok := s.event(abs)
	if !ok {
		return
	}
	if err := sink.Enqueue(ctx, ev); err != nil {
		s.logger.Warn("failed to enqueue upload", "path", ev.Path, "error", err)
	}
}

// event maps an absolute file path to an upload event keyed like a bucket object.
func (s *WatchSource) event(abs string) (entity.UploadEvent, bool) {
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		return entity.UploadEvent{}, false
	}
	rel, err := filepath.Rel(s.cfg.Root, abs)
	if err != nil || IsHidden(rel) {
		return entity.UploadEvent{}, false
	}
	return entity.UploadEvent{
		Path:        filepath.ToSlash(rel),
		ContentType: constants.MimeForExt(filepath.Ext(abs)),
		Size:        info.Size(),
	}, true
}
