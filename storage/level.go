package storage

import (
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	leveldbstorage "github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/r3e-network/neo-zkvm/log"
)

// LevelStore is a LevelDB-backed Backend for hosts that persist contract
// state between executions. An empty path opens an in-memory database.
type LevelStore struct {
	db *leveldb.DB
}

// NewLevelStore opens or creates a LevelDB database at the given path.
func NewLevelStore(path string) (*LevelStore, error) {
	var db *leveldb.DB
	var err error
	if path == "" {
		db, err = leveldb.Open(leveldbstorage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(path, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}
	log.Debug(log.StoreMonitoring, "leveldb store opened", "path", path)
	return &LevelStore{db: db}, nil
}

// Close releases the underlying database.
func (s *LevelStore) Close() error { return s.db.Close() }

func (s *LevelStore) Get(ctx Context, key []byte) ([]byte, bool, error) {
	v, err := s.db.Get(makeKey(ctx, key), nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %x: %w", key, err)
	}
	return v, true, nil
}

func (s *LevelStore) Put(ctx Context, key, value []byte) error {
	if ctx.ReadOnly {
		return ErrReadOnly
	}
	return s.db.Put(makeKey(ctx, key), value, nil)
}

func (s *LevelStore) Delete(ctx Context, key []byte) error {
	if ctx.ReadOnly {
		return ErrReadOnly
	}
	return s.db.Delete(makeKey(ctx, key), nil)
}

func (s *LevelStore) Contains(ctx Context, key []byte) (bool, error) {
	return s.db.Has(makeKey(ctx, key), nil)
}

func (s *LevelStore) Find(ctx Context, prefix []byte) ([]KV, error) {
	iter := s.db.NewIterator(util.BytesPrefix(makeKey(ctx, prefix)), nil)
	defer iter.Release()
	var out []KV
	for iter.Next() {
		key := append([]byte(nil), iter.Key()[len(ctx.ScriptHash):]...)
		value := append([]byte(nil), iter.Value()...)
		out = append(out, KV{Key: key, Value: value})
	}
	return out, iter.Error()
}
