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

package config

import "github.com/MonetDB/mapi-go/internal/sockcache"

const (
	defaultLogFile       = ""
	defaultLogLevel      = "info"
	defaultLogMaxSizeMB  = 100
	defaultLogMaxBackups = 5
	defaultLogMaxAgeDays = 28

	defaultDiagListenPort    = 8088
	defaultDiagListenAddress = ""

	defaultMetricsListenPort    = 8089
	defaultMetricsListenAddress = ""

	defaultTracerImplementation = "stdout"

	defaultTLSVerify = "system"

	defaultCacheType        = "memory"
	defaultCacheTypeID      = sockcache.CacheTypeMemory
	defaultCacheCompression = true

	defaultRedisClientType = "standard"
	defaultRedisEndpoint   = "localhost:6379"

	defaultBBoltFile   = "mapi-sockcache.db"
	defaultBBoltBucket = "sockcache"

	defaultBadgerDir = "/tmp/mapi-sockcache"
)
