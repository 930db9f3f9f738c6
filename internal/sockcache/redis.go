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
	"time"

	"github.com/go-redis/redis"
)

// redisCache is the shared backend: multiple client processes on the same
// host or fleet converge on the same endpoint memory. client is
// redis.Cmdable so the standard/sentinel/cluster variants are
// interchangeable after construction.
type redisCache struct {
	client redis.Cmdable
}

func newRedisCache(cfg Config) (*redisCache, error) {
	switch cfg.RedisClientType {
	case "sentinel":
		return &redisCache{client: redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:    cfg.RedisSentinelMaster,
			SentinelAddrs: cfg.RedisEndpoints,
			Password:      cfg.RedisPassword,
			DB:            cfg.RedisDB,
		})}, nil
	case "cluster":
		return &redisCache{client: redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:    cfg.RedisEndpoints,
			Password: cfg.RedisPassword,
		})}, nil
	default:
		return &redisCache{client: redis.NewClient(&redis.Options{
			Addr:     cfg.RedisEndpoint,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})}, nil
	}
}

func (r *redisCache) get(key string) ([]byte, bool, error) {
	v, err := r.client.Get(key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (r *redisCache) set(key string, value []byte) error {
	return r.client.Set(key, value, 0*time.Second).Err()
}

func (r *redisCache) del(key string) error {
	return r.client.Del(key).Err()
}

func (r *redisCache) close() error {
	if c, ok := r.client.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
