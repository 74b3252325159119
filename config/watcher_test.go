// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

//go:build !windows

package config

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherAppliesReloadOnSIGHUP(t *testing.T) {
	path := writeConfig(t, validConfig)

	applied := make(chan *Config, 1)
	w := NewWatcher(path, func(cfg *Config) { applied <- cfg })
	w.Start(context.Background())
	defer w.Stop()

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGHUP))

	select {
	case cfg := <-applied:
		assert.Equal(t, 15, cfg.Billing.Day)
		assert.Equal(t, "debug", cfg.Logging.Level)
	case <-time.After(3 * time.Second):
		t.Fatal("reload was not applied")
	}
}

func TestWatcherDiscardsInvalidReload(t *testing.T) {
	path := writeConfig(t, validConfig)

	applied := make(chan *Config, 1)
	w := NewWatcher(path, func(cfg *Config) { applied <- cfg })
	w.Start(context.Background())
	defer w.Stop()

	// Break the file, then reload; the apply callback must not fire.
	require.NoError(t, os.WriteFile(path, []byte("octopus: [broken"), 0o644))
	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGHUP))

	select {
	case <-applied:
		t.Fatal("invalid configuration must not be applied")
	case <-time.After(500 * time.Millisecond):
	}
}
