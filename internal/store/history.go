package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ALEYI17/InfraSight_bench/pkg/logutil"
	"github.com/ALEYI17/InfraSight_bench/pkg/types"
	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

const (
	runPrefix = "run/"
	idPrefix  = "id/"
)

var ErrNotFound = errors.New("run not found")

// badgerLogger routes badger's internal logging through zap.
type badgerLogger struct {
	s *zap.SugaredLogger
}

func (l badgerLogger) Errorf(f string, a ...any)   { l.s.Errorf(f, a...) }
func (l badgerLogger) Warningf(f string, a ...any) { l.s.Warnf(f, a...) }
func (l badgerLogger) Infof(f string, a ...any)    { l.s.Debugf(f, a...) }
func (l badgerLogger) Debugf(f string, a ...any)   { l.s.Debugf(f, a...) }

// History keeps every report keyed by start time so listings come back
// newest first.
type History struct {
	db *badger.DB
}

// Open opens the history at path. An empty path gives an in-memory store.
func Open(path string) (*History, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
	}
	opts = opts.WithLogger(badgerLogger{s: logutil.GetLogger().Named("badger").Sugar()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open history %q: %w", path, err)
	}
	return &History{db: db}, nil
}

func (h *History) Close() error {
	return h.db.Close()
}

func runKey(rep *types.Report) []byte {
	return fmt.Appendf(nil, "%s%020d/%s", runPrefix, rep.StartedAt.UnixNano(), rep.RunID)
}

func (h *History) Put(rep *types.Report) error {
	if rep.RunID == "" {
		return errors.New("report has no run id")
	}
	data, err := json.Marshal(rep)
	if err != nil {
		return err
	}
	key := runKey(rep)
	return h.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set([]byte(idPrefix+rep.RunID), key)
	})
}

func (h *History) Get(id string) (*types.Report, error) {
	var rep types.Report
	err := h.db.View(func(txn *badger.Txn) error {
		idx, err := txn.Get([]byte(idPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if err != nil {
			return err
		}
		key, err := idx.ValueCopy(nil)
		if err != nil {
			return err
		}
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rep)
		})
	})
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

// List returns up to limit reports, newest first. limit <= 0 means all.
func (h *History) List(limit int) ([]*types.Report, error) {
	var out []*types.Report
	err := h.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(runPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append([]byte(runPrefix), 0xff)
		for it.Seek(seek); it.ValidForPrefix(opts.Prefix); it.Next() {
			var rep types.Report
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rep)
			}); err != nil {
				return err
			}
			out = append(out, &rep)
			if limit > 0 && len(out) >= limit {
				return nil
			}
		}
		return nil
	})
	return out, err
}
