// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package config

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/soothill/tariff-engine/pkg/logger"
)

// Watcher reloads the configuration file on SIGHUP and hands the result
// to an apply callback. The callback decides which settings take effect
// live; a reload that fails to parse or validate is discarded and the
// running configuration kept.
type Watcher struct {
	path       string
	apply      func(*Config)
	reloadChan chan os.Signal
	cancelFunc context.CancelFunc
}

// NewWatcher creates a watcher for the configuration file at path.
func NewWatcher(path string, apply func(*Config)) *Watcher {
	return &Watcher{
		path:       path,
		apply:      apply,
		reloadChan: make(chan os.Signal, 1),
	}
}

// Start begins listening for SIGHUP.
func (w *Watcher) Start(ctx context.Context) {
	ctx, w.cancelFunc = context.WithCancel(ctx)
	signal.Notify(w.reloadChan, syscall.SIGHUP)

	go w.watch(ctx)
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	signal.Stop(w.reloadChan)
}

func (w *Watcher) watch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.reloadChan:
			logger.Info().Str("config", w.path).Msg("SIGHUP received, reloading configuration")
			cfg, err := Load(w.path)
			if err != nil {
				logger.Error().Err(err).Msg("Reload failed, keeping running configuration")
				continue
			}
			w.apply(cfg)
		}
	}
}
