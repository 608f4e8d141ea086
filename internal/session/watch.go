package session

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the session token whenever the token file changes, until
// ctx is cancelled. It returns immediately when no token file is
// configured.
//
// The watch is placed on the parent directory rather than the file itself:
// credential helpers typically replace the file via rename, which would
// silently drop a direct file watch.
func (s *Session) Watch(ctx context.Context, logger *slog.Logger) error {
	if s.tokenFile == "" {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(s.tokenFile)
	if err := w.Add(dir); err != nil {
		return err
	}
	base := filepath.Base(s.tokenFile)

	logger.Info("session: watching token file", slog.String("path", s.tokenFile))

	for {
		select {
		case <-ctx.Done():
			logger.Info("session: token watch stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if err := s.Reload(); err != nil {
				logger.Warn("session: token reload failed",
					slog.String("path", s.tokenFile),
					slog.String("error", err.Error()))
				continue
			}
			logger.Debug("session: token reloaded", slog.String("op", ev.Op.String()))

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("session: watch error", slog.String("error", watchErr.Error()))
		}
	}
}
