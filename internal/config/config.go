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

// Package config implements the configuration layer: named connection
// profiles loaded from TOML, layered with environment variables and
// in-code overrides, resolved into validated msettings.Settings. One struct per concern, a NewXConfig constructor,
// a Copy deep-copy, toml:"-" synthesized fields, and a package-level
// LoaderWarnings accumulator.
package config

import (
	"fmt"
	"strings"

	"github.com/MonetDB/mapi-go/internal/sockcache"
	"github.com/MonetDB/mapi-go/msettings"
)

// AppConfig is the top-level configuration object.
type AppConfig struct {
	Main      *MainConfig         `toml:"main"`
	Profiles  map[string]*Profile `toml:"profiles"`
	Logging   *LoggingConfig      `toml:"logging"`
	Metrics   *MetricsConfig      `toml:"metrics"`
	Tracing   *TracingConfig      `toml:"tracing"`
	SockCache *SockCacheConfig    `toml:"sockcache"`
}

// MainConfig carries process-wide, non-connection settings.
type MainConfig struct {
	InstanceID     int    `toml:"instance_id"`
	DiagListenAddr string `toml:"diag_listen_address"`
	DiagListenPort int    `toml:"diag_listen_port"`
}

// Profile is one named, TOML-declared connection target: a resolvable
// description of one upstream MonetDB server.
type Profile struct {
	Name string `toml:"-"`

	URL string `toml:"url"`

	// Overrides layered on top of URL.
	TLSVerify     string `toml:"tls_verify"`
	CertHash      string `toml:"cert_hash"`
	WireLogPath   string `toml:"wire_log_path"`
	ConnectMillis int64  `toml:"connect_timeout_ms"`
	ReplyMillis   int64  `toml:"reply_timeout_ms"`

	resolved *msettings.Settings
}

// LoggingConfig configures internal/log: level plus an optional file,
// rotated by lumberjack.
type LoggingConfig struct {
	LogFile    string `toml:"log_file"`
	LogLevel   string `toml:"log_level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// MetricsConfig holds a listen address and port for a metrics endpoint.
// No code in this repository reads these fields; the Prometheus handler
// is served on the diagnostics server's /metrics route.
type MetricsConfig struct {
	ListenAddress string `toml:"listen_address"`
	ListenPort    int    `toml:"listen_port"`
}

// TracingConfig configures internal/tracing (implementation name +
// collector endpoint).
type TracingConfig struct {
	Implementation string  `toml:"implementation"`
	CollectorURL   string  `toml:"collector_url"`
	SampleRate     float64 `toml:"sample_rate"`
}

// SockCacheConfig configures the optional endpoint-memory backend.
type SockCacheConfig struct {
	CacheType string `toml:"cache_type"`
	Compress  bool   `toml:"compress"`

	BBoltFile   string `toml:"bbolt_file"`
	BBoltBucket string `toml:"bbolt_bucket"`

	BadgerDir string `toml:"badger_dir"`

	RedisClientType     string   `toml:"redis_client_type"`
	RedisEndpoint       string   `toml:"redis_endpoint"`
	RedisEndpoints      []string `toml:"redis_endpoints"`
	RedisSentinelMaster string   `toml:"redis_sentinel_master"`
	RedisPassword       string   `toml:"redis_password"`
	RedisDB             int      `toml:"redis_db"`

	// CacheTypeID is the resolved enum, synthesized during Load.
	CacheTypeID sockcache.CacheType `toml:"-"`
}

// LoaderWarnings collects one entry per unrecognized key or recoverable
// inconsistency found while loading: never a hard failure, logged once
// logging is up.
var LoaderWarnings = make([]string, 0)

// NewConfig returns an AppConfig populated with compiled-in defaults.
func NewConfig() *AppConfig {
	return &AppConfig{
		Main:      NewMainConfig(),
		Profiles:  map[string]*Profile{"default": NewProfile("default")},
		Logging:   NewLoggingConfig(),
		Metrics:   NewMetricsConfig(),
		Tracing:   NewTracingConfig(),
		SockCache: NewSockCacheConfig(),
	}
}

// NewMainConfig returns a MainConfig with compiled-in defaults.
func NewMainConfig() *MainConfig {
	return &MainConfig{
		DiagListenAddr: defaultDiagListenAddress,
		DiagListenPort: defaultDiagListenPort,
	}
}

// NewProfile returns a Profile with compiled-in defaults: an empty
// URL resolves to the defaults of msettings.New (sockdir=/tmp,
// binary=on, replysize=100, autocommit=true, port=-1, language=sql).
func NewProfile(name string) *Profile {
	return &Profile{
		Name:      name,
		TLSVerify: defaultTLSVerify,
	}
}

// NewLoggingConfig returns a LoggingConfig with compiled-in defaults.
func NewLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		LogFile:    defaultLogFile,
		LogLevel:   defaultLogLevel,
		MaxSizeMB:  defaultLogMaxSizeMB,
		MaxBackups: defaultLogMaxBackups,
		MaxAgeDays: defaultLogMaxAgeDays,
	}
}

// NewMetricsConfig returns a MetricsConfig with compiled-in defaults.
func NewMetricsConfig() *MetricsConfig {
	return &MetricsConfig{
		ListenAddress: defaultMetricsListenAddress,
		ListenPort:    defaultMetricsListenPort,
	}
}

// NewTracingConfig returns a TracingConfig with compiled-in defaults.
func NewTracingConfig() *TracingConfig {
	return &TracingConfig{
		Implementation: defaultTracerImplementation,
		SampleRate:     1.0,
	}
}

// NewSockCacheConfig returns a SockCacheConfig with compiled-in defaults.
func NewSockCacheConfig() *SockCacheConfig {
	return &SockCacheConfig{
		CacheType:       defaultCacheType,
		CacheTypeID:     defaultCacheTypeID,
		Compress:        defaultCacheCompression,
		BBoltFile:       defaultBBoltFile,
		BBoltBucket:     defaultBBoltBucket,
		BadgerDir:       defaultBadgerDir,
		RedisClientType: defaultRedisClientType,
		RedisEndpoint:   defaultRedisEndpoint,
	}
}

// Copy returns a deep copy of p; the running config and a caller's clone
// never share mutable state.
func (p *Profile) Copy() *Profile {
	cp := *p
	cp.resolved = nil
	if p.resolved != nil {
		cp.resolved = p.resolved.Clone()
	}
	return &cp
}

// AsSockCacheConfig adapts the TOML-facing SockCacheConfig into the
// sockcache.Config the backend constructor expects.
func (c *SockCacheConfig) AsSockCacheConfig() sockcache.Config {
	return sockcache.Config{
		CacheType:           c.CacheTypeID,
		BBoltFile:           c.BBoltFile,
		BBoltBucket:         c.BBoltBucket,
		BadgerDir:           c.BadgerDir,
		RedisClientType:     c.RedisClientType,
		RedisEndpoint:       c.RedisEndpoint,
		RedisEndpoints:      c.RedisEndpoints,
		RedisSentinelMaster: c.RedisSentinelMaster,
		RedisPassword:       c.RedisPassword,
		RedisDB:             c.RedisDB,
		Compress:            c.Compress,
	}
}

// URLString renders the profile through msettings.WriteURL for
// display/debugging, resolving it first if it hasn't been resolved yet.
func (p *Profile) URLString() (string, error) {
	s, err := p.Resolve()
	if err != nil {
		return "", err
	}
	return msettings.WriteURL(s), nil
}

// Resolve produces a validated *msettings.Settings from the profile,
// applying the URL first and then the scalar overrides: compiled-in
// defaults -> TOML file -> MAPI_* env vars -> explicit in-code overrides.
// The result is cached: repeated calls return the same settings object,
// and later changes to the profile's fields do not invalidate it (only
// the MAPI_DEFAULT_URL override in Load clears the cache).
func (p *Profile) Resolve() (*msettings.Settings, error) {
	if p.resolved != nil {
		return p.resolved, nil
	}
	s := msettings.New()
	if p.URL != "" {
		if err := msettings.ParseURL(s, p.URL); err != nil {
			return nil, err
		}
	}
	if p.TLSVerify != "" {
		switch strings.ToLower(p.TLSVerify) {
		case "system", "none":
		case "cert", "hash":
			s.SetBool(msettings.TLS, true)
		default:
			return nil, fmt.Errorf("config: profile %q: unknown tls_verify %q", p.Name, p.TLSVerify)
		}
	}
	if p.CertHash != "" {
		s.SetString(msettings.CertHash, p.CertHash)
	}
	if p.ConnectMillis > 0 {
		s.SetLong(msettings.ConnectTimeout, p.ConnectMillis)
	}
	if p.ReplyMillis > 0 {
		s.SetLong(msettings.ReplyTimeout, p.ReplyMillis)
	}
	if p.WireLogPath != "" {
		s.SetString(msettings.LogFile, p.WireLogPath)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	p.resolved = s
	return s, nil
}
