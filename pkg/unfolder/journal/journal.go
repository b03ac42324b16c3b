package journal

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/jamesainslie/unfolder/pkg/unfolder/logging"
)

// ErrNotFound is returned when a record doesn't exist.
var ErrNotFound = errors.New("journal record not found")

var logger = logging.Get("journal")

// Journal wraps badger for run history.
type Journal struct {
	db *badger.DB
}

// Open opens or creates the journal at path.
func Open(path string) (*Journal, error) {
	return open(path, badger.DefaultOptions(path))
}

func open(path string, opts badger.Options) (*Journal, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the journal.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Append stores r, assigning an ID and timestamp when they are unset.
func (j *Journal) Append(r *Record) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Time.IsZero() {
		r.Time = time.Now()
	}

	value, err := r.encode()
	if err != nil {
		return err
	}
	key := recordKey(r.Time, r.ID)

	err = j.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, value); err != nil {
			return err
		}
		return txn.Set(indexKey(r.ID), key)
	})
	if err != nil {
		return fmt.Errorf("appending record: %w", err)
	}

	logger.Debug("record appended", "id", r.ID, "operation", r.Operation, "root", r.Root)
	return nil
}

// Get retrieves a record by ID.
func (j *Journal) Get(id string) (*Record, error) {
	var r Record

	err := j.db.View(func(txn *badger.Txn) error {
		idx, err := txn.Get(indexKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		key, err := idx.ValueCopy(nil)
		if err != nil {
			return err
		}

		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(r.decode)
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Filter selects records in List. A nil Filter matches everything.
type Filter func(*Record) bool

// List returns up to limit records matching filter, newest first. A limit
// of zero or less returns all of them.
func (j *Journal) List(limit int, filter Filter) ([]*Record, error) {
	var records []*Record

	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(recordPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration starts at the last key not after the seek key.
		seek := append([]byte(recordPrefix), 0xff)
		for it.Seek(seek); it.ValidForPrefix(opts.Prefix); it.Next() {
			r := &Record{}
			if err := it.Item().Value(r.decode); err != nil {
				return fmt.Errorf("decoding %s: %w", it.Item().Key(), err)
			}
			if filter != nil && !filter(r) {
				continue
			}
			records = append(records, r)
			if limit > 0 && len(records) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Prune deletes records older than cutoff and returns how many it removed.
// Deletes go through a write batch, which splits them across as many
// transactions as badger needs.
func (j *Journal) Prune(cutoff time.Time) (int, error) {
	keys, err := j.keysBefore(cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning journal: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	wb := j.db.NewWriteBatch()
	defer wb.Cancel()

	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			return 0, fmt.Errorf("pruning journal: %w", err)
		}
		if err := wb.Delete(indexKey(recordID(key))); err != nil {
			return 0, fmt.Errorf("pruning journal: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("pruning journal: %w", err)
	}

	logger.Info("journal pruned", "removed", len(keys), "cutoff", cutoff.Format(time.RFC3339))
	return len(keys), nil
}

// keysBefore returns the keys of records older than cutoff, oldest first.
func (j *Journal) keysBefore(cutoff time.Time) ([][]byte, error) {
	var keys [][]byte
	end := string(recordKey(cutoff, ""))

	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(recordPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			if string(key) >= end {
				break
			}
			keys = append(keys, key)
		}
		return nil
	})
	return keys, err
}
