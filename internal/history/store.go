package history

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// fileMode is the permission of a newly created history file.
const fileMode fs.FileMode = 0644

// Store reads and writes the history CSV file at Path.
type Store struct {
	Path string
}

// NewStore creates a store for path.
func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Save writes records to a temporary file next to Path and renames it into
// place, so a failed save never leaves a truncated history file. An
// existing file keeps its permissions.
func (s *Store) Save(records []Record) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &PersistenceError{Op: "save", Path: s.Path, Err: err}
	}

	tmpFile, err := os.CreateTemp(dir, ".history-*")
	if err != nil {
		return &PersistenceError{Op: "save", Path: s.Path, Err: fmt.Errorf("create temp file: %w", err)}
	}
	tmpPath := tmpFile.Name()

	mode := fileMode
	if info, err := os.Stat(s.Path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := tmpFile.Chmod(mode); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return &PersistenceError{Op: "save", Path: s.Path, Err: fmt.Errorf("chmod temp file: %w", err)}
	}

	w := bufio.NewWriter(tmpFile)
	if err := WriteCSV(w, records); err == nil {
		err = w.Flush()
	}
	if err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return &PersistenceError{Op: "save", Path: s.Path, Err: fmt.Errorf("write temp file: %w", err)}
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return &PersistenceError{Op: "save", Path: s.Path, Err: fmt.Errorf("close temp file: %w", err)}
	}

	if err := os.Rename(tmpPath, s.Path); err != nil {
		os.Remove(tmpPath)
		return &PersistenceError{Op: "save", Path: s.Path, Err: fmt.Errorf("rename: %w", err)}
	}
	return nil
}

// Load reads every record from Path. A missing file is an empty history,
// not an error.
func (s *Store) Load() ([]Record, error) {
	f, err := os.Open(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &PersistenceError{Op: "load", Path: s.Path, Err: err}
	}
	defer f.Close()

	records, err := ReadCSV(bufio.NewReader(f))
	if err != nil {
		return nil, &PersistenceError{Op: "load", Path: s.Path, Err: err}
	}
	return records, nil
}

// Export saves the ledger's visible records.
func (s *Store) Export(l *Ledger) (int, error) {
	records := l.Visible()
	if err := s.Save(records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// Import loads the file and replaces the ledger contents. The ledger is
// left untouched when loading fails.
func (s *Store) Import(l *Ledger) (int, error) {
	records, err := s.Load()
	if err != nil {
		return 0, err
	}
	l.Replace(records)
	return l.Len(), nil
}
