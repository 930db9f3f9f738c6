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
	"github.com/coreos/bbolt"
)

// bboltCache is the single-file embedded backend: candidates survive
// process restarts but are local to one host.
type bboltCache struct {
	db     *bbolt.DB
	bucket []byte
}

func newBBoltCache(cfg Config) (*bboltCache, error) {
	db, err := bbolt.Open(cfg.BBoltFile, 0600, nil)
	if err != nil {
		return nil, err
	}
	bucket := []byte(cfg.BBoltBucket)
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &bboltCache{db: db, bucket: bucket}, nil
}

func (b *bboltCache) get(key string) ([]byte, bool, error) {
	var v []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(b.bucket).Get([]byte(key))
		if raw != nil {
			v = make([]byte, len(raw))
			copy(v, raw)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return v, v != nil, nil
}

func (b *bboltCache) set(key string, value []byte) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(b.bucket).Put([]byte(key), value)
	})
}

func (b *bboltCache) del(key string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(b.bucket).Delete([]byte(key))
	})
}

func (b *bboltCache) close() error {
	return b.db.Close()
}
