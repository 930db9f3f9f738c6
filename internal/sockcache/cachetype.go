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

// Package sockcache implements the optional endpoint-memory cache: a
// small durable record of which transport candidate last worked for a
// logical (sockdir, database) or (host, database) connection target,
// consulted before a fresh Unix-socket scan.
package sockcache

import "fmt"

// CacheType identifies a storage backend.
type CacheType int

const (
	CacheTypeMemory CacheType = iota
	CacheTypeBBolt
	CacheTypeBadger
	CacheTypeRedis
)

// CacheTypeNames maps the lowercase TOML `cache_type` string to its
// CacheType constant.
var CacheTypeNames = map[string]CacheType{
	"memory": CacheTypeMemory,
	"bbolt":  CacheTypeBBolt,
	"badger": CacheTypeBadger,
	"redis":  CacheTypeRedis,
}

func (t CacheType) String() string {
	switch t {
	case CacheTypeMemory:
		return "memory"
	case CacheTypeBBolt:
		return "bbolt"
	case CacheTypeBadger:
		return "badger"
	case CacheTypeRedis:
		return "redis"
	default:
		return fmt.Sprintf("CacheType(%d)", int(t))
	}
}
