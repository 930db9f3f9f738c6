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
	"io"
	"sync"

	"github.com/golang/snappy"
)

// WireLogWriter receives compressed chunks of raw wire traffic, one Write
// call per flush. A bufio.Writer wrapping an *os.File, or a
// lumberjack.Logger for rotation, are typical implementations.
type WireLogWriter = io.Writer

// wireLog buffers raw send/receive bytes and snappy-compresses each
// flush before it leaves the hot path, keeping an offline protocol
// debugging log cheap enough to leave enabled.
type wireLog struct {
	mu  sync.Mutex
	w   WireLogWriter
	buf []byte
}

func newWireLog(w WireLogWriter) *wireLog {
	return &wireLog{w: w}
}

func (l *wireLog) logSend(s string) { l.append("> ", s) }
func (l *wireLog) logRecv(s string) { l.append("< ", s) }

func (l *wireLog) append(prefix, s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf = append(l.buf, prefix...)
	l.buf = append(l.buf, s...)
	if len(s) == 0 || s[len(s)-1] != '\n' {
		l.buf = append(l.buf, '\n')
	}
	if len(l.buf) >= 64*1024 {
		l.flushLocked()
	}
}

func (l *wireLog) flushLocked() {
	if len(l.buf) == 0 {
		return
	}
	compressed := snappy.Encode(nil, l.buf)
	l.buf = l.buf[:0]
	l.w.Write(compressed)
}

// Flush forces any buffered wire-log bytes out, compressed, without
// waiting for the size threshold.
func (l *wireLog) Flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.flushLocked()
}
