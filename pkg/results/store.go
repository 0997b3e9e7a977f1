// Package results is the authoritative results feed: lap durations,
// sector splits and top speeds recorded by race control, keyed by lap
// number. Positive feed durations override locally timed laps for
// statistics. The store can also record locally completed laps back for
// later sessions.
package results

import (
	"database/sql"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"grstrategy/pkg/model"
)

type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if needed) the results database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening results db %s", path)
	}
	if _, err := db.Exec(createLapResultsTable); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "init results db")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Load reads the whole feed, keyed by lap number.
func (s *Store) Load() (map[int]model.LapResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(selectLapResults)
	if err != nil {
		return nil, errors.Wrap(err, "loading results feed")
	}
	return readLapResults(rows)
}

// RecordLap upserts a completed lap.
func (s *Store) RecordLap(lr model.LapResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(upsertLapResult,
		lr.Lap, lr.Duration, lr.Sector1, lr.Sector2, lr.Sector3, lr.TopSpeed)
	return errors.Wrapf(err, "recording lap %d", lr.Lap)
}
