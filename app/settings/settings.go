// Package settings keeps the single-value tool configuration (local backup root) in a json file
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	log "github.com/go-pkgz/lgr"
)

// ErrConfigIO wraps any failure to read or write the settings file
var ErrConfigIO = errors.New("settings i/o error")

// Settings is the persisted configuration
type Settings struct {
	BackupRoot string `json:"backup_root"`
}

// Store loads and saves Settings in a json file. Safe for concurrent use.
type Store struct {
	path        string
	defaultRoot string
	mu          sync.Mutex
}

// New makes Store for the given file. defaultRoot is used when nothing stored yet.
func New(path, defaultRoot string) *Store {
	return &Store{path: path, defaultRoot: defaultRoot}
}

// Load returns stored settings. If the file is missing, broken or has no backup root,
// the default is set and persisted right away. A failure to persist the default is logged only.
func (s *Store) Load() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.read()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("[WARN] can't load settings, %v", err)
		}
		res = Settings{}
	}
	if strings.TrimSpace(res.BackupRoot) != "" {
		return res
	}

	res.BackupRoot = s.defaultRoot
	log.Printf("[INFO] setting default backup path to %s", s.defaultRoot)
	if err := s.write(res); err != nil {
		log.Printf("[WARN] can't save default settings, %v", err)
	}
	return res
}

// Save validates and overwrites stored settings
func (s *Store) Save(st Settings) error {
	root := strings.TrimSpace(st.BackupRoot)
	if root == "" {
		return fmt.Errorf("%w: empty backup path", ErrConfigIO)
	}
	fi, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: backup path %s: %w", ErrConfigIO, root, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("%w: backup path %s is not a directory", ErrConfigIO, root)
	}
	st.BackupRoot = root

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.write(st); err != nil {
		return err
	}
	log.Printf("[INFO] backup path updated to %s", root)
	return nil
}

// Path returns settings file location
func (s *Store) Path() string { return s.path }

func (s *Store) read() (Settings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Settings{}, fmt.Errorf("%w: read %s: %w", ErrConfigIO, s.path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return Settings{}, nil
	}
	var res Settings
	if err := json.Unmarshal(data, &res); err != nil {
		return Settings{}, fmt.Errorf("%w: parse %s: %w", ErrConfigIO, s.path, err)
	}
	return res, nil
}

// write stores settings via temp file and rename, so a failed write never leaves a truncated file
func (s *Store) write(st Settings) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal: %w", ErrConfigIO, err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("%w: make %s: %w", ErrConfigIO, dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file in %s: %w", ErrConfigIO, dir, err)
	}
	defer os.Remove(tmp.Name()) // nolint

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: write %s: %w", ErrConfigIO, tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrConfigIO, tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("%w: rename to %s: %w", ErrConfigIO, s.path, err)
	}
	return nil
}
