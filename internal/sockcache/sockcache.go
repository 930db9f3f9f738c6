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

import "github.com/golang/snappy"

// Cache remembers the last connection candidate that worked for a logical
// endpoint key, so a future connect attempt can try it first instead of
// rescanning the Unix-socket directory or the DNS/port space cold. It
// mirrors the narrow Lookup/Remember/Forget shape mapi.EndpointCache
// expects.
type Cache interface {
	Lookup(key string) (Record, bool)
	Remember(key string, rec Record) error
	Forget(key string) error
	Close() error
}

// Config selects and parameterizes a backend. It is populated from
// internal/config's SockCacheConfig and passed straight through to New.
type Config struct {
	CacheType CacheType

	// BBolt
	BBoltFile   string
	BBoltBucket string

	// Badger
	BadgerDir string

	// Redis
	RedisClientType     string // "standard", "sentinel" or "cluster"
	RedisEndpoint       string
	RedisEndpoints      []string
	RedisSentinelMaster string
	RedisPassword       string
	RedisDB             int

	// Compress gates snappy compression of the encoded Record before it is
	// handed to the backend, following internal/proxy/engines/cache.go's
	// compress-before-store idiom.
	Compress bool
}

// New constructs the backend selected by cfg.CacheType.
func New(cfg Config) (Cache, error) {
	var backend rawCache
	var err error
	switch cfg.CacheType {
	case CacheTypeMemory:
		backend = newMemoryCache()
	case CacheTypeBBolt:
		backend, err = newBBoltCache(cfg)
	case CacheTypeBadger:
		backend, err = newBadgerCache(cfg)
	case CacheTypeRedis:
		backend, err = newRedisCache(cfg)
	default:
		backend = newMemoryCache()
	}
	if err != nil {
		return nil, err
	}
	return &codec{backend: backend, compress: cfg.Compress}, nil
}

// rawCache is the byte-oriented interface each backend implements; codec
// layers Record encoding and optional compression on top of it.
type rawCache interface {
	get(key string) ([]byte, bool, error)
	set(key string, value []byte) error
	del(key string) error
	close() error
}

// codec adapts a rawCache into the public Cache interface, encoding Records
// with msgp-style Marshal/Unmarshal and optionally snappy-compressing the
// result, the same shape internal/proxy/engines/cache.go uses for its
// byte-cache backends.
type codec struct {
	backend  rawCache
	compress bool
}

func (c *codec) Lookup(key string) (Record, bool) {
	raw, ok, err := c.backend.get(key)
	if err != nil || !ok {
		return Record{}, false
	}
	if c.compress {
		decoded, derr := snappy.Decode(nil, raw)
		if derr != nil {
			return Record{}, false
		}
		raw = decoded
	}
	var rec Record
	if _, err := rec.UnmarshalMsg(raw); err != nil {
		return Record{}, false
	}
	return rec, true
}

func (c *codec) Remember(key string, rec Record) error {
	raw, err := rec.MarshalMsg(nil)
	if err != nil {
		return err
	}
	if c.compress {
		raw = snappy.Encode(nil, raw)
	}
	return c.backend.set(key, raw)
}

func (c *codec) Forget(key string) error {
	return c.backend.del(key)
}

func (c *codec) Close() error {
	return c.backend.close()
}
