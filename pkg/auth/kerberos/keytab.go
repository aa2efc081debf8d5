package kerberos

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/certgate/certgate/internal/logger"
)

// keytabPollInterval is the interval at which the keytab file is polled for
// changes.
const keytabPollInterval = 60 * time.Second

// KeytabManager watches a keytab file for changes and triggers hot-reload.
//
// It polls the file modification time rather than using inotify because
// keytabs are typically replaced atomically (via rename) by key management
// tools like kadmin or k5srvutil, and polling behaves the same for both
// in-place writes and renames.
//
// Thread safety: all methods are safe for concurrent use.
type KeytabManager struct {
	path     string
	provider *Provider
	stopCh   chan struct{}
	mu       sync.Mutex
	lastMod  time.Time
}

// NewKeytabManager creates a new keytab file manager (not yet started).
func NewKeytabManager(path string, provider *Provider) *KeytabManager {
	return &KeytabManager{
		path:     path,
		provider: provider,
		stopCh:   make(chan struct{}),
	}
}

// Start validates the file exists, records its modification time and starts
// the polling goroutine.
func (km *KeytabManager) Start() error {
	km.mu.Lock()
	defer km.mu.Unlock()

	info, err := os.Stat(km.path)
	if err != nil {
		return fmt.Errorf("keytab file not accessible: %w", err)
	}
	km.lastMod = info.ModTime()

	go km.pollLoop()
	return nil
}

// Stop stops the polling goroutine. Safe to call multiple times.
func (km *KeytabManager) Stop() {
	select {
	case <-km.stopCh:
	default:
		close(km.stopCh)
	}
}

func (km *KeytabManager) pollLoop() {
	ticker := time.NewTicker(keytabPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-km.stopCh:
			return
		case <-ticker.C:
			km.checkAndReload()
		}
	}
}

func (km *KeytabManager) checkAndReload() {
	km.mu.Lock()
	defer km.mu.Unlock()

	info, err := os.Stat(km.path)
	if err != nil {
		logger.Warn("keytab file not accessible during poll", "path", km.path, "error", err)
		return
	}

	if !info.ModTime().After(km.lastMod) {
		return
	}
	km.lastMod = info.ModTime()

	if err := km.provider.ReloadKeytab(); err != nil {
		logger.Error("keytab reload failed, keeping previous keytab", "path", km.path, "error", err)
	}
}
