// Package menus loads the role based navigation menus from YAML. The
// built-in definition is embedded; an optional file overrides it and is
// reloaded when it changes.
package menus

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"wmsadmin/domain/core/entities"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed menus.yaml
var defaultMenus []byte

const debounceDelay = 200 * time.Millisecond

// Parse decodes a menu definition. Unknown keys are rejected.
func Parse(data []byte) (*entities.MenuConfig, error) {
	var cfg entities.MenuConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse menus: %w", err)
	}
	if len(cfg.MainMenus) == 0 {
		return nil, fmt.Errorf("parse menus: no main menus")
	}
	return &cfg, nil
}

// Default returns the embedded definition.
func Default() *entities.MenuConfig {
	cfg, err := Parse(defaultMenus)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Source serves the current menus and implements ports.MenuSource.
type Source struct {
	mu      sync.RWMutex
	current *entities.MenuConfig
	path    string
	logger  *zap.Logger

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewSource loads path, or the embedded menus when path is empty.
func NewSource(path string, logger *zap.Logger) (*Source, error) {
	s := &Source{path: path, logger: logger}
	if path == "" {
		s.current = Default()
		return s, nil
	}
	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	s.current = cfg
	return s, nil
}

func loadFile(path string) (*entities.MenuConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read menus %s: %w", path, err)
	}
	return Parse(data)
}

// Menus returns the current definition.
func (s *Source) Menus() *entities.MenuConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Watch reloads the file on change until Close. A file that fails to
// parse is logged and the previous menus stay in effect. Watch is a no-op
// for the embedded source.
func (s *Source) Watch() error {
	if s.path == "" {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	// Editors replace files by rename, so watch the directory.
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		w.Close()
		return fmt.Errorf("failed to watch %s: %w", s.path, err)
	}
	s.watcher = w
	s.done = make(chan struct{})
	s.wg.Add(1)
	go s.watchLoop()
	s.logger.Info("Menu hot reloading enabled", zap.String("path", s.path))
	return nil
}

func (s *Source) watchLoop() {
	defer s.wg.Done()

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()
	target := filepath.Clean(s.path)

	for {
		select {
		case <-s.done:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, s.reload)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("Menu watcher error", zap.Error(err))
		}
	}
}

func (s *Source) reload() {
	cfg, err := loadFile(s.path)
	if err != nil {
		s.logger.Warn("Menu reload failed, keeping previous menus", zap.Error(err))
		return
	}
	s.mu.Lock()
	s.current = cfg
	s.mu.Unlock()
	s.logger.Info("Menus reloaded", zap.Int("mainMenus", len(cfg.MainMenus)))
}

// Close stops watching.
func (s *Source) Close() error {
	if s.watcher == nil {
		return nil
	}
	close(s.done)
	err := s.watcher.Close()
	s.wg.Wait()
	s.watcher = nil
	return err
}
