package config

import (
	"context"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/treefix50/playhead/internal/log"
)

// Provider exposes the current resume thresholds. Callers must read the
// thresholds on every decision; a snapshot taken earlier may be stale after
// a config reload.
type Provider interface {
	ResumeThresholds() ResumeThresholds
}

// Static is a Provider with fixed thresholds, for tests and embedders that
// manage configuration themselves.
type Static ResumeThresholds

func (s Static) ResumeThresholds() ResumeThresholds { return ResumeThresholds(s) }

// FileProvider serves thresholds from a config file and refreshes them when
// the file changes on disk.
type FileProvider struct {
	path    string
	current atomic.Pointer[ResumeThresholds]
	logger  zerolog.Logger
}

// NewFileProvider loads the file once and returns a provider primed with its
// thresholds.
func NewFileProvider(path string) (*FileProvider, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	p := &FileProvider{
		path:   path,
		logger: log.WithComponent("config"),
	}
	thresholds := cfg.Resume
	p.current.Store(&thresholds)
	return p, nil
}

// ResumeThresholds returns the most recently loaded thresholds.
func (p *FileProvider) ResumeThresholds() ResumeThresholds {
	return *p.current.Load()
}

// Watch reloads the config file on write/create events until ctx is
// cancelled. Reload failures keep the previous thresholds.
func (p *FileProvider) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(p.path); err != nil {
		// No config file on disk; thresholds stay at their defaults until
		// the process restarts.
		p.logger.Warn().Err(err).Str("path", p.path).Msg("config file not watchable")
		<-ctx.Done()
		return ctx.Err()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			p.reload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.logger.Warn().Err(err).Msg("config watcher error")
		}
	}
}

func (p *FileProvider) reload() {
	cfg, err := Load(p.path)
	if err != nil {
		p.logger.Warn().Err(err).Str("path", p.path).Msg("config reload failed, keeping previous thresholds")
		return
	}
	thresholds := cfg.Resume
	p.current.Store(&thresholds)
	p.logger.Info().
		Float64("min_resume_pct", thresholds.MinResumePct).
		Float64("max_resume_pct", thresholds.MaxResumePct).
		Int64("min_resume_duration_s", thresholds.MinResumeDurationSeconds).
		Msg("resume thresholds reloaded")
}
