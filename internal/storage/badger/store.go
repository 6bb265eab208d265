package badger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"
)

const maxConflictRetries = 5

var (
	errKeyNotFound    = errors.New("key not found")
	errIndexCollision = errors.New("unique index hash collision")
)

// store wraps a badger database with table-scoped transactions.
type store struct {
	db *badgerdb.DB
}

func openStore(path string) (*store, error) {
	opts := badgerdb.DefaultOptions(path)
	opts.Logger = nil // Disable default logger

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	return &store{db: db}, nil
}

func (s *store) Close() error {
	return s.db.Close()
}

// view runs fn in a read-only transaction.
func (s *store) view(ctx context.Context, fn func(*txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := &txn{txn: s.db.NewTransaction(false)}
	defer t.txn.Discard()
	return fn(t)
}

// update runs fn in a read-write transaction and commits it, retrying when
// badger reports a conflict with a concurrent writer.
func (s *store) update(ctx context.Context, fn func(*txn) error) error {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		t := &txn{txn: s.db.NewTransaction(true), writable: true}
		err := fn(t)
		if err == nil {
			err = t.txn.Commit()
		}
		t.txn.Discard()
		if errors.Is(err, badgerdb.ErrConflict) && attempt < maxConflictRetries {
			continue
		}
		return err
	}
}

type txn struct {
	txn      *badgerdb.Txn
	writable bool
}

// get retrieves a value by key
func (t *txn) get(tbl table, key []byte) ([]byte, error) {
	item, err := t.txn.Get(prefixKey(tbl, key))
	if err != nil {
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return nil, errKeyNotFound
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (t *txn) set(tbl table, key, value []byte) error {
	if !t.writable {
		return badgerdb.ErrReadOnlyTxn
	}
	return t.txn.Set(prefixKey(tbl, key), value)
}

func (t *txn) delete(tbl table, key []byte) error {
	if !t.writable {
		return badgerdb.ErrReadOnlyTxn
	}
	return t.txn.Delete(prefixKey(tbl, key))
}

// scan calls fn for every key in tbl that starts with prefix, in key order.
// The key passed to fn has the table byte and prefix stripped.
func (t *txn) scan(tbl table, prefix []byte, withValues bool, fn func(key, value []byte) error) error {
	opts := badgerdb.DefaultIteratorOptions
	opts.PrefetchValues = withValues
	scanPrefix := prefixKey(tbl, prefix)
	opts.Prefix = scanPrefix

	it := t.txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(scanPrefix); it.ValidForPrefix(scanPrefix); it.Next() {
		item := it.Item()
		key := bytes.Clone(item.Key()[len(scanPrefix):])
		var value []byte
		if withValues {
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			value = v
		}
		if err := fn(key, value); err != nil {
			return err
		}
	}
	return nil
}

// nextID issues the next id for a record table.
func (t *txn) nextID(tbl table) (uint, error) {
	var last uint
	b, err := t.get(tableSequence, []byte{byte(tbl)})
	switch {
	case err == nil:
		last = decodeID(b)
	case !errors.Is(err, errKeyNotFound):
		return 0, err
	}
	next := last + 1
	if err := t.set(tableSequence, []byte{byte(tbl)}, idKey(next)); err != nil {
		return 0, err
	}
	return next, nil
}

func (t *txn) getJSON(tbl table, id uint, v any) error {
	b, err := t.get(tbl, idKey(id))
	if err != nil {
		return err
	}
	if err := jsonDecode(b, v); err != nil {
		return fmt.Errorf("%s record %d: %w", tbl, id, err)
	}
	return nil
}

func jsonDecode(b []byte, v any) error {
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("corrupt record: %w", err)
	}
	return nil
}

func (t *txn) setJSON(tbl table, id uint, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return t.set(tbl, idKey(id), b)
}

// lookup resolves a unique index entry to the id it points at.
func (t *txn) lookup(tbl table, key []byte) (uint, bool, error) {
	b, err := t.get(tbl, key)
	if errors.Is(err, errKeyNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return decodeID(b), true, nil
}
