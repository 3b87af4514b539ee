// Copyright (c) 2025 The Meridian developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import "github.com/syndtr/goleveldb/leveldb/util"

// Bucket provides a logical namespace within a store by key prefixing.
type Bucket string

type bucketStore struct {
	b   Bucket
	src Store
}

// NewStore creates a bucketed view over the source store.
func (b Bucket) NewStore(src Store) Store {
	return &bucketStore{b, src}
}

func (s *bucketStore) key(key []byte) []byte {
	return append([]byte(s.b), key...)
}

func (s *bucketStore) Get(key []byte) ([]byte, error) {
	return s.src.Get(s.key(key))
}

func (s *bucketStore) Has(key []byte) (bool, error) {
	return s.src.Has(s.key(key))
}

func (s *bucketStore) IsNotFound(err error) bool {
	return s.src.IsNotFound(err)
}

func (s *bucketStore) Put(key, val []byte) error {
	return s.src.Put(s.key(key), val)
}

func (s *bucketStore) Delete(key []byte) error {
	return s.src.Delete(s.key(key))
}

func (s *bucketStore) NewBatch() Batch {
	return &bucketBatch{s.b, s.src.NewBatch()}
}

func (s *bucketStore) Iterate(r Range) Iterator {
	start := append([]byte(s.b), r.Start...)
	var limit []byte
	if len(r.Limit) == 0 {
		limit = util.BytesPrefix([]byte(s.b)).Limit
	} else {
		limit = append([]byte(s.b), r.Limit...)
	}
	return &bucketIterator{len(s.b), s.src.Iterate(Range{Start: start, Limit: limit})}
}

func (s *bucketStore) Close() error {
	return s.src.Close()
}

type bucketBatch struct {
	b     Bucket
	batch Batch
}

func (b *bucketBatch) Put(key, val []byte) error {
	return b.batch.Put(append([]byte(b.b), key...), val)
}

func (b *bucketBatch) Delete(key []byte) error {
	return b.batch.Delete(append([]byte(b.b), key...))
}

func (b *bucketBatch) Len() int { return b.batch.Len() }

func (b *bucketBatch) Write() error { return b.batch.Write() }

type bucketIterator struct {
	prefixLen int
	Iterator
}

// Key strips the bucket prefix.
func (it *bucketIterator) Key() []byte {
	return it.Iterator.Key()[it.prefixLen:]
}
