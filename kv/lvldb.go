// Copyright (c) 2025 The Meridian developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var (
	writeOpt = &opt.WriteOptions{}
	readOpt  = &opt.ReadOptions{}
)

// lvldb implements the Store interface over goleveldb.
type lvldb struct {
	db *leveldb.DB
}

// OpenLevelDB opens or creates a persistent store at path.
func OpenLevelDB(path string, cacheSizeMB int) (Store, error) {
	stg, err := storage.OpenFile(path, false)
	if err != nil {
		return nil, errors.Wrap(err, "open level db")
	}
	return openLevelDB(stg, cacheSizeMB)
}

// NewMem creates an in-memory store, mainly for tests.
func NewMem() Store {
	db, err := openLevelDB(storage.NewMemStorage(), 0)
	if err != nil {
		panic(errors.Wrap(err, "open in-memory level db"))
	}
	return db
}

func openLevelDB(stg storage.Storage, cacheSizeMB int) (*lvldb, error) {
	if cacheSizeMB < 16 {
		cacheSizeMB = 16
	}
	db, err := leveldb.Open(stg, &opt.Options{
		BlockCacheCapacity: cacheSizeMB / 2 * opt.MiB,
		WriteBuffer:        cacheSizeMB / 4 * opt.MiB,
		Filter:             filter.NewBloomFilter(10),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open level db")
	}
	return &lvldb{db: db}, nil
}

func (ldb *lvldb) Get(key []byte) ([]byte, error) {
	return ldb.db.Get(key, readOpt)
}

func (ldb *lvldb) Has(key []byte) (bool, error) {
	return ldb.db.Has(key, readOpt)
}

func (ldb *lvldb) IsNotFound(err error) bool {
	return errors.Is(err, leveldb.ErrNotFound)
}

func (ldb *lvldb) Put(key, val []byte) error {
	return ldb.db.Put(key, val, writeOpt)
}

func (ldb *lvldb) Delete(key []byte) error {
	return ldb.db.Delete(key, writeOpt)
}

func (ldb *lvldb) NewBatch() Batch {
	return &lvldbBatch{ldb.db, &leveldb.Batch{}}
}

func (ldb *lvldb) Iterate(r Range) Iterator {
	var urange *util.Range
	if len(r.Start) > 0 || len(r.Limit) > 0 {
		urange = &util.Range{Start: r.Start, Limit: r.Limit}
	}
	return ldb.db.NewIterator(urange, readOpt)
}

func (ldb *lvldb) Close() error {
	return ldb.db.Close()
}

// lvldbBatch implements the Batch interface.
type lvldbBatch struct {
	db    *leveldb.DB
	batch *leveldb.Batch
}

func (b *lvldbBatch) Put(key, val []byte) error {
	b.batch.Put(key, val)
	return nil
}

func (b *lvldbBatch) Delete(key []byte) error {
	b.batch.Delete(key)
	return nil
}

func (b *lvldbBatch) Len() int {
	return b.batch.Len()
}

func (b *lvldbBatch) Write() error {
	return b.db.Write(b.batch, writeOpt)
}
