package capture

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Sink receives records as they are captured.
type Sink interface {
	Append(rec *Record) error
}

type SinkFunc func(rec *Record) error

func (f SinkFunc) Append(rec *Record) error {
	return f(rec)
}

// Store is a JSON file log of captured records, newest first.
type Store struct {
	path       string
	maxEntries int
	records    []*Record
	mu         sync.RWMutex
	loaded     bool
}

func NewStore(path string, maxEntries int) *Store {
	if maxEntries <= 0 {
		maxEntries = 200
	}
	return &Store{path: path, maxEntries: maxEntries}
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLoadedLocked()
}

func (s *Store) Append(rec *Record) error {
	if rec == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(); err != nil {
		return err
	}

	s.records = append([]*Record{rec.Clone()}, s.records...)
	s.sortLocked()
	if len(s.records) > s.maxEntries {
		s.records = s.records[:s.maxEntries]
	}
	return s.persist()
}

func (s *Store) Entries() []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Record, len(s.records))
	for i, rec := range s.records {
		out[i] = rec.Clone()
	}
	return out
}

func (s *Store) Get(id string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(); err != nil {
		return nil, err
	}
	for _, rec := range s.records {
		if rec.ID == id {
			return rec.Clone(), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (s *Store) Latest() (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(); err != nil {
		return nil, err
	}
	if len(s.records) == 0 {
		return nil, ErrNotFound
	}
	return s.records[0].Clone(), nil
}

func (s *Store) persist() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create capture dir: %w", err)
	}

	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode captures: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write captures tmp: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace capture file: %w", err)
	}
	return nil
}

func (s *Store) sortLocked() {
	if len(s.records) < 2 {
		return
	}
	sort.SliceStable(s.records, func(i, j int) bool {
		return newerFirst(s.records[i], s.records[j])
	})
}

func (s *Store) ensureLoadedLocked() error {
	if s.loaded {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.records = []*Record{}
			s.loaded = true
			return nil
		}
		return fmt.Errorf("read captures: %w", err)
	}

	if len(data) == 0 {
		s.records = []*Record{}
		s.loaded = true
		return nil
	}

	if err := json.Unmarshal(data, &s.records); err != nil {
		return fmt.Errorf("parse captures: %w", err)
	}

	s.sortLocked()
	s.loaded = true
	return nil
}

func newerFirst(a, b *Record) bool {
	ai := a.StartTime
	bi := b.StartTime
	switch {
	case ai.IsZero() && bi.IsZero():
		return a.ID > b.ID
	case ai.IsZero():
		return false
	case bi.IsZero():
		return true
	case ai.Equal(bi):
		return a.ID > b.ID
	default:
		return ai.After(bi)
	}
}
