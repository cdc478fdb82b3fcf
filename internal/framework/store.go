package framework

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/notelens-ai/notelens/internal/logging"
)

// Store holds the frameworks available to a running service: the built-ins
// plus any definitions loaded from a configurable directory. Directory
// frameworks shadow built-ins with the same id.
type Store struct {
	dir    string
	logger *slog.Logger

	mu     sync.RWMutex
	custom map[string]*Definition
}

// NewStore loads dir (optional) and returns a store. An empty dir yields a
// store serving only built-ins.
func NewStore(dir string) (*Store, error) {
	s := &Store{
		dir:    dir,
		logger: logging.New("frameworks"),
		custom: map[string]*Definition{},
	}
	if dir != "" {
		defs, err := LoadDir(dir)
		if err != nil {
			return nil, err
		}
		s.custom = defs
	}
	return s, nil
}

// Get resolves a framework id against the directory set first, then the
// built-ins.
func (s *Store) Get(id string) (*Definition, error) {
	s.mu.RLock()
	def, ok := s.custom[id]
	s.mu.RUnlock()
	if ok {
		return def, nil
	}
	return Load(id)
}

// Summary identifies one available framework.
type Summary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Version   string `json:"version"`
	Regulator string `json:"regulator"`
	Elements  int    `json:"elements"`
	Source    string `json:"source"` // builtin | directory
}

// List returns all available frameworks, directory definitions first in id
// order, then built-ins not shadowed by the directory.
func (s *Store) List() []Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Summary
	for _, def := range s.custom {
		out = append(out, Summary{
			ID: def.ID, Name: def.Name, Version: def.Version,
			Regulator: def.Regulator, Elements: len(def.Elements), Source: "directory",
		})
	}
	for _, id := range Builtins() {
		if _, shadowed := s.custom[id]; shadowed {
			continue
		}
		def, err := Load(id)
		if err != nil {
			continue
		}
		out = append(out, Summary{
			ID: def.ID, Name: def.Name, Version: def.Version,
			Regulator: def.Regulator, Elements: len(def.Elements), Source: "builtin",
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Watch reloads the framework directory when files change, debouncing rapid
// saves. It blocks until ctx is cancelled. A reload that fails validation
// keeps the previous definitions and logs the error.
func (s *Store) Watch(ctx context.Context) error {
	if s.dir == "" {
		<-ctx.Done()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create framework watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}
	s.logger.Info("watching frameworks directory", "dir", s.dir)

	const debounce = 500 * time.Millisecond
	var timer *time.Timer
	reload := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if !IsFilePath(ev.Name) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("framework watcher error", "err", err)
		case <-reload:
			s.reload()
		}
	}
}

func (s *Store) reload() {
	defs, err := LoadDir(s.dir)
	if err != nil {
		s.logger.Warn("framework reload failed, keeping previous set", "dir", s.dir, "err", err)
		return
	}
	s.mu.Lock()
	s.custom = defs
	s.mu.Unlock()
	s.logger.Info("frameworks reloaded", "dir", s.dir, "count", len(defs))
}
