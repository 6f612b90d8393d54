// Package store persists trace analysis reports in BadgerDB.
//
// Reports are stored as JSON under report/<id>, where id is a version 7
// UUID, so key order is creation order. A secondary key
// input/<name>\x00<id> indexes the reports of one input.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/sandrolain/gosmt/pkg/analysis"
)

var (
	// ErrNotFound is returned for an unknown report ID.
	ErrNotFound = errors.New("store: report not found")
	// ErrNoPath is returned when a persistent store has no path.
	ErrNoPath = errors.New("store: path is required for a persistent store")
)

const (
	reportPrefix = "report/"
	inputPrefix  = "input/"
)

// Config configures Open.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string
	// InMemory keeps everything in memory.
	InMemory bool
	// SyncWrites makes every commit durable before returning.
	SyncWrites bool
	// Logger receives Badger's own log output. Nil silences it.
	Logger *slog.Logger
}

// Report is one stored analysis.
type Report struct {
	ID        string           `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	Result    *analysis.Result `json:"result"`
}

// Store is a report database. It is safe for concurrent use.
type Store struct {
	db  *badger.DB
	now func() time.Time
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Open opens or creates a store.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, ErrNoPath
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("store: create directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores a result under a new ID.
func (s *Store) Save(res *analysis.Result) (Report, error) {
	if res == nil {
		return Report{}, errors.New("store: nil result")
	}
	id, err := uuid.NewV7()
	if err != nil {
		return Report{}, fmt.Errorf("store: new id: %w", err)
	}
	rep := Report{ID: id.String(), CreatedAt: s.now().UTC(), Result: res}
	data, err := json.Marshal(rep)
	if err != nil {
		return Report{}, fmt.Errorf("store: encode report: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(reportKey(rep.ID), data); err != nil {
			return err
		}
		return txn.Set(inputKey(res.Name, rep.ID), nil)
	})
	if err != nil {
		return Report{}, fmt.Errorf("store: save %s: %w", rep.ID, err)
	}
	return rep, nil
}

// Get returns the report with the given ID.
func (s *Store) Get(id string) (Report, error) {
	var rep Report
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		rep, err = getReport(txn, id)
		return err
	})
	return rep, err
}

// List returns up to limit reports, newest first. A non-positive limit
// returns all of them.
func (s *Store) List(limit int) ([]Report, error) {
	var out []Report
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(reportPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration seeks from the first key past the prefix.
		for it.Seek([]byte(reportPrefix + "\xff")); it.ValidForPrefix(opts.Prefix); it.Next() {
			if limit > 0 && len(out) == limit {
				break
			}
			var rep Report
			if err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &rep)
			}); err != nil {
				return fmt.Errorf("store: decode %s: %w", it.Item().Key(), err)
			}
			out = append(out, rep)
		}
		return nil
	})
	return out, err
}

// History returns the reports of one input, oldest first.
func (s *Store) History(input string) ([]Report, error) {
	var out []Report
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := inputKey(input, "")
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			id := string(it.Item().Key()[len(prefix):])
			rep, err := getReport(txn, id)
			if err != nil {
				return err
			}
			out = append(out, rep)
		}
		return nil
	})
	return out, err
}

// Delete removes a report.
func (s *Store) Delete(id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		rep, err := getReport(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(reportKey(id)); err != nil {
			return err
		}
		if rep.Result == nil {
			return nil
		}
		return txn.Delete(inputKey(rep.Result.Name, id))
	})
}

func getReport(txn *badger.Txn, id string) (Report, error) {
	item, err := txn.Get(reportKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Report{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Report{}, fmt.Errorf("store: get %s: %w", id, err)
	}
	var rep Report
	err = item.Value(func(v []byte) error {
		return json.Unmarshal(v, &rep)
	})
	if err != nil {
		return Report{}, fmt.Errorf("store: decode %s: %w", id, err)
	}
	return rep, nil
}

func reportKey(id string) []byte {
	return []byte(reportPrefix + id)
}

func inputKey(input, id string) []byte {
	return []byte(inputPrefix + input + "\x00" + id)
}
