package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	domainai "github.com/bryanwahyu/chat-insight/internal/domain/ai"
	"github.com/bryanwahyu/chat-insight/internal/domain/analysis"
	"github.com/bryanwahyu/chat-insight/internal/domain/schedule"
)

const (
	profilesFile = "profiles.json"
	scheduleFile = "schedule.json"
	providerFile = "provider.json"
)

// Store holds the operator-editable documents: the analysis profiles, the
// schedule config and the provider config. Each document is one JSON file
// replaced wholesale on update. The settings UI writes them; this process
// watches the directory and hot-reloads, so no restart is needed.
type Store struct {
	dir string

	mu       sync.RWMutex
	profiles []analysis.Profile
	schedule schedule.Config
	provider domainai.Config

	onSchedule []func(schedule.Config)
	onProvider []func(domainai.Config)

	watcher *fsnotify.Watcher
}

// Open loads the documents from dir, creating the directory if needed.
// Missing documents are not an error; they read as empty/disabled.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create settings dir: %w", err)
	}
	s := &Store{dir: dir}
	if err := s.reload(profilesFile); err != nil {
		return nil, err
	}
	if err := s.reload(scheduleFile); err != nil {
		return nil, err
	}
	if err := s.reload(providerFile); err != nil {
		return nil, err
	}
	return s, nil
}

// Profiles implements analysis.ProfileSource; always the live set.
func (s *Store) Profiles() []analysis.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]analysis.Profile, len(s.profiles))
	copy(out, s.profiles)
	return out
}

func (s *Store) Schedule() schedule.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.schedule
}

func (s *Store) Provider() domainai.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.provider
}

// SetSchedule validates, persists and applies a new schedule document.
func (s *Store) SetSchedule(cfg schedule.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", analysis.ErrValidation, err)
	}
	if err := s.writeDoc(scheduleFile, cfg); err != nil {
		return err
	}
	s.mu.Lock()
	s.schedule = cfg
	subs := append([]func(schedule.Config){}, s.onSchedule...)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(cfg)
	}
	return nil
}

// OnScheduleChange registers a callback fired whenever the schedule document
// changes, via SetSchedule or an external write.
func (s *Store) OnScheduleChange(fn func(schedule.Config)) {
	s.mu.Lock()
	s.onSchedule = append(s.onSchedule, fn)
	s.mu.Unlock()
}

// OnProviderChange registers a callback fired whenever the provider document
// changes on disk.
func (s *Store) OnProviderChange(fn func(domainai.Config)) {
	s.mu.Lock()
	s.onProvider = append(s.onProvider, fn)
	s.mu.Unlock()
}

// Watch starts the fsnotify loop. Callers should register callbacks first.
func (s *Store) Watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(s.dir); err != nil {
		w.Close()
		return err
	}
	s.watcher = w

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				name := filepath.Base(ev.Name)
				switch name {
				case profilesFile, scheduleFile, providerFile:
					if err := s.reload(name); err != nil {
						log.Printf("settings reload %s: %v", name, err)
						continue
					}
					s.notify(name)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Printf("settings watcher error: %v", err)
			}
		}
	}()
	return nil
}

func (s *Store) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

func (s *Store) notify(name string) {
	s.mu.RLock()
	schedCfg := s.schedule
	provCfg := s.provider
	schedSubs := append([]func(schedule.Config){}, s.onSchedule...)
	provSubs := append([]func(domainai.Config){}, s.onProvider...)
	s.mu.RUnlock()

	switch name {
	case scheduleFile:
		for _, fn := range schedSubs {
			fn(schedCfg)
		}
	case providerFile:
		for _, fn := range provSubs {
			fn(provCfg)
		}
	}
}

func (s *Store) reload(name string) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch name {
	case profilesFile:
		var profiles []analysis.Profile
		if err := json.Unmarshal(data, &profiles); err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		s.profiles = profiles
	case scheduleFile:
		var cfg schedule.Config
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		s.schedule = cfg
	case providerFile:
		var cfg domainai.Config
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		s.provider = cfg
	}
	return nil
}

// writeDoc replaces a document atomically (temp file + rename) so watchers
// never observe a half-written file.
func (s *Store) writeDoc(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(s.dir, name))
}
