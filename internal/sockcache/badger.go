/**
* Copyright 2020 MonetDB Solutions B.V.
* Licensed under the Apache License, Version 2.0 (the "License");
* you may not use this file except in compliance with the License.
* You may obtain a copy of the License at
* http://www.apache.org/licenses/LICENSE-2.0
* Unless required by applicable law or agreed to in writing, software
* distributed under the License is distributed on an "AS IS" BASIS,
* WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
* See the License for the specific language governing permissions and
* limitations under the License.
 */

package sockcache

import (
	"github.com/dgraph-io/badger"
)

// badgerCache is the LSM-backed embedded backend, for deployments that
// churn through many distinct (sockdir, database) keys.
type badgerCache struct {
	db *badger.DB
}

func newBadgerCache(cfg Config) (*badgerCache, error) {
	db, err := badger.Open(badger.DefaultOptions(cfg.BadgerDir))
	if err != nil {
		return nil, err
	}
	return &badgerCache{db: db}, nil
}

func (b *badgerCache) get(key string) ([]byte, bool, error) {
	var v []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			v = make([]byte, len(val))
			copy(v, val)
			return nil
		})
	})
	if err != nil {
		return nil, false, err
	}
	return v, v != nil, nil
}

func (b *badgerCache) set(key string, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

func (b *badgerCache) del(key string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func (b *badgerCache) close() error {
	return b.db.Close()
}
