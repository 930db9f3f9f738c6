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

// Package log is the structured-logging layer:
// a thin wrapper over github.com/go-kit/kit/log with a Pairs helper
// (log.Error("msg", log.Pairs{...}), log.WarnOnce(...)) and a level gate.
// gopkg.in/natefinch/lumberjack.v2 backs file rotation when a log file
// path is configured.
package log

import (
	"os"
	"sync"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Pairs is a convenience map for structured key/value fields, passed as the
// second argument to every logging call.
type Pairs map[string]interface{}

var (
	mu      sync.RWMutex
	logger  kitlog.Logger = defaultLogger()
	warnedM sync.Map
)

func defaultLogger() kitlog.Logger {
	l := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stderr))
	return level.NewFilter(l, level.AllowAll())
}

// Config carries the subset of internal/config.LoggingConfig this package
// needs, kept separate to avoid an import cycle between log and config.
type Config struct {
	LogFile    string
	LogLevel   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Init configures the package logger per cfg: a plain stderr logfmt writer
// by default, or a lumberjack-rotated file writer when cfg.LogFile is set.
// The configured LogLevel gates which of Debug/Info/Warn/Error actually
// reach the writer.
func Init(cfg Config) error {
	var w = kitlog.NewSyncWriter(os.Stderr)
	if cfg.LogFile != "" {
		w = kitlog.NewSyncWriter(&lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    orDefault(cfg.MaxSizeMB, 100),
			MaxBackups: orDefault(cfg.MaxBackups, 5),
			MaxAge:     orDefault(cfg.MaxAgeDays, 28),
		})
	}
	l := kitlog.NewLogfmtLogger(w)
	l = kitlog.With(l, "ts", kitlog.DefaultTimestampUTC)
	filtered := level.NewFilter(l, allowOption(cfg.LogLevel))

	mu.Lock()
	logger = filtered
	mu.Unlock()
	return nil
}

func orDefault(v, d int) int {
	if v <= 0 {
		return d
	}
	return v
}

func allowOption(lvl string) level.Option {
	switch lvl {
	case "debug":
		return level.AllowDebug()
	case "warn":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	default:
		return level.AllowInfo()
	}
}

func current() kitlog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func keyvals(msg string, p Pairs) []interface{} {
	kv := make([]interface{}, 0, 2+2*len(p))
	kv = append(kv, "msg", msg)
	for k, v := range p {
		kv = append(kv, k, v)
	}
	return kv
}

// Debug logs msg at debug level with the given structured fields.
func Debug(msg string, p Pairs) {
	level.Debug(current()).Log(keyvals(msg, p)...)
}

// Info logs msg at info level with the given structured fields.
func Info(msg string, p Pairs) {
	level.Info(current()).Log(keyvals(msg, p)...)
}

// Warn logs msg at warn level with the given structured fields.
func Warn(msg string, p Pairs) {
	level.Warn(current()).Log(keyvals(msg, p)...)
}

// Error logs msg at error level with the given structured fields.
func Error(msg string, p Pairs) {
	level.Error(current()).Log(keyvals(msg, p)...)
}

// accessWriter adapts the package logger to io.Writer, for handlers that
// expect to write pre-formatted access log lines (gorilla/handlers'
// CombinedLoggingHandler) rather than call Debug/Info directly.
type accessWriter struct{}

func (accessWriter) Write(p []byte) (int, error) {
	Debug("http access", Pairs{"line": string(p)})
	return len(p), nil
}

// Writer returns an io.Writer that forwards whole writes to Debug, for
// wiring into third-party handlers that log via an io.Writer rather than
// this package's Pairs-based calls.
func Writer() accessWriter { return accessWriter{} }

// WarnOnce logs msg at warn level the first time it is called for a given
// dedup key in this process's lifetime, and is a no-op on subsequent calls
// with the same key. Used for conditions that are worth a human's attention
// once but would otherwise flood the log on every reconnect attempt.
func WarnOnce(key, msg string, p Pairs) {
	if _, loaded := warnedM.LoadOrStore(key, struct{}{}); loaded {
		return
	}
	Warn(msg, p)
}
