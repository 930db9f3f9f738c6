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

package mapi

import (
	"time"

	"github.com/MonetDB/mapi-go/internal/sockcache"
)

// SockCacheAdapter adapts an internal/sockcache.Cache onto the narrow
// EndpointCache shape Connect expects, so any of sockcache's
// pluggable backends (memory/bbolt/badger/redis) can sit behind dialTransport
// without mapi importing sockcache's Record/Config types directly into its
// exported surface.
type SockCacheAdapter struct {
	Cache sockcache.Cache
}

// Lookup returns the last-known-good Unix socket candidate for key, if any.
func (a *SockCacheAdapter) Lookup(key string) (string, bool) {
	rec, ok := a.Cache.Lookup(key)
	if !ok || rec.CandidateSock == "" {
		return "", false
	}
	return rec.CandidateSock, true
}

// Remember records candidate as the last-known-good Unix socket path for key.
func (a *SockCacheAdapter) Remember(key, candidate string) {
	if candidate == "" {
		return
	}
	a.Cache.Remember(key, sockcache.Record{
		CandidateSock: candidate,
		RecordedAt:    time.Now().Unix(),
	})
}

// Forget invalidates any cached candidate for key, called on connect failure.
func (a *SockCacheAdapter) Forget(key string) {
	a.Cache.Forget(key)
}
