// Package cache keeps provider responses in a local sqlite database so a session
// is only fetched from the network once.
package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const DbName = "cache.db"

type entry struct {
	key     string
	kind    string
	payload string
	created time.Time
}

// Stats summarises the content of the store.
type Stats struct {
	Entries int            `json:"entries"`
	Bytes   uint64         `json:"bytes"`
	Oldest  time.Time      `json:"oldest"`
	Kinds   map[string]int `json:"kinds"`
}

func (s Stats) String() string {
	if s.Entries == 0 {
		return "empty"
	}
	kinds := make([]string, 0, len(s.Kinds))
	for k, n := range s.Kinds {
		kinds = append(kinds, fmt.Sprintf("%s=%s", k, humanize.Comma(int64(n))))
	}
	sort.Strings(kinds)
	return fmt.Sprintf("%s entries (%s), %s, oldest %s",
		humanize.Comma(int64(s.Entries)), strings.Join(kinds, " "), humanize.Bytes(s.Bytes), humanize.Time(s.Oldest))
}

type Store struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (creating if needed) the cache database inside dir.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "cache: creating %s", dir)
	}
	path := filepath.Join(dir, DbName)
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "cache: opening %s", path)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(buildCreateResponsesTable()); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "cache: initialising database")
	}
	logrus.WithField("path", path).Info("Response cache ready")

	return &Store{
		db:   db,
		path: path,
	}, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Close()
}

// Get returns the payload stored for key unless it was written before notBefore.
func (s *Store) Get(key string, notBefore time.Time) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query, args, read := buildSelectResponseCommand(key)
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return "", false, errors.Wrapf(err, "cache: reading %s", key)
	}
	e, ok, err := read(rows)
	if err != nil {
		return "", false, errors.Wrapf(err, "cache: reading %s", key)
	}
	if !ok || e.created.Before(notBefore) {
		return "", false, nil
	}
	return e.payload, true, nil
}

func (s *Store) Put(key, kind, payload string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query, args := buildUpsertResponseCommand(entry{key: key, kind: kind, payload: payload, created: time.Now()})
	if _, err := s.db.Exec(query, args...); err != nil {
		return errors.Wrapf(err, "cache: writing %s", key)
	}
	return nil
}

// Purge deletes the entries written before t and returns how many were removed.
func (s *Store) Purge(t time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query, args := buildDeleteOlderThanCommand(t)
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return 0, errors.Wrap(err, "cache: purging")
	}
	return res.RowsAffected()
}

func (s *Store) Stats() (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query, read := buildStatsCommand()
	rows, err := s.db.Query(query)
	if err != nil {
		return Stats{}, errors.Wrap(err, "cache: reading stats")
	}
	return read(rows)
}
