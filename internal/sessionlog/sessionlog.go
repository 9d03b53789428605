// Package sessionlog persists completed reading sessions in an embedded
// badger database under the app data directory.
package sessionlog

import (
	"context"
	"encoding/json"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/dgnsrekt/versecast/reading"
)

// Keys start with this prefix followed by the RFC3339Nano completion time,
// so a forward iteration walks sessions in chronological order.
const keyPrefix = "session:"

// Store records completed sessions.
type Store struct {
	db *badger.DB
}

// Open opens or creates the session database at dir.
func Open(dir string) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("sessionlog: open %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// OpenInMemory opens a store backed by memory only, for tests.
func OpenInMemory() (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("sessionlog: open in-memory: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record writes one completed session.
func (s *Store) Record(ctx context.Context, session reading.CompletedSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	value, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("sessionlog: encode session: %w", err)
	}

	key := []byte(keyPrefix + session.CompletedAt.UTC().Format("2006-01-02T15:04:05.000000000Z07:00"))
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
	if err != nil {
		return fmt.Errorf("sessionlog: write session: %w", err)
	}
	return nil
}

// Recent returns up to n sessions, newest first.
func (s *Store) Recent(n int) ([]reading.CompletedSession, error) {
	if n <= 0 {
		return nil, nil
	}

	var sessions []reading.CompletedSession
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(keyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration needs a seek past the end of the prefix range.
		seek := append([]byte(keyPrefix), 0xff)
		for it.Seek(seek); it.Valid() && len(sessions) < n; it.Next() {
			var session reading.CompletedSession
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &session)
			})
			if err != nil {
				return err
			}
			sessions = append(sessions, session)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sessionlog: read sessions: %w", err)
	}
	return sessions, nil
}

// Count returns the total number of recorded sessions.
func (s *Store) Count() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("sessionlog: count sessions: %w", err)
	}
	return count, nil
}

var _ reading.SessionLogger = (*Store)(nil)
