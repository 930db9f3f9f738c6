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

// Package mapi implements the MAPI session runtime: framed
// request/response handling, the result-set state machine, the row cache
// with paged server fetches, and multi-result handling. It sits on top of
// protocol (block framing), handshake (login), transport (socket
// selection), and msettings (the parameter model).
package mapi

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/MonetDB/mapi-go/internal/diag"
	"github.com/MonetDB/mapi-go/internal/log"
	"github.com/MonetDB/mapi-go/internal/metrics"
	"github.com/MonetDB/mapi-go/internal/tracing"
	"github.com/MonetDB/mapi-go/msettings"
	"github.com/MonetDB/mapi-go/protocol"
)

// sessionSeq assigns each Session a process-unique diagnostic id.
var sessionSeq int64

// Session is one established MAPI connection. It owns its
// settings, stream, and the head of its handle list; redirect targets are
// collected by the handshake layer during login and are not kept on the
// session. Only one handle may
// be active (have undrained output) at a time.
type Session struct {
	id       string
	settings *msettings.Settings
	stream   protocol.Stream

	motd             []string
	handshakeOptions int
	oobIntr          bool
	connected        bool
	sizeHeader       bool
	columnarProtocol bool

	handleHead *Handle // all handles ever opened on this session, newest first
	active     *Handle // the handle whose output has not been drained, if any
	wire       *wireLog

	lastErr error
}

// nextSessionID returns a process-unique id for a newly established session,
// used only by the diagnostics surface to distinguish concurrent
// connections; it carries no wire protocol meaning.
func nextSessionID() string {
	return strconv.FormatInt(atomic.AddInt64(&sessionSeq, 1), 10)
}

// DiagSnapshot implements diag.SessionSnapshot: a point-in-time view of the
// session's MOTD, handshake options level, and row-cache occupancy, for
// /debug/connections. It never includes wire protocol contents.
func (s *Session) DiagSnapshot() diag.SessionInfo {
	rows := 0
	if s.active != nil && s.active.active != nil {
		rows = int(s.active.active.TupleCount())
	}
	return diag.SessionInfo{
		ID:               s.id,
		MOTD:             strings.Join(s.motd, "\n"),
		HandshakeOptions: s.handshakeOptions,
		RowCacheRows:     rows,
		Connected:        s.connected,
	}
}

// MOTD returns the server's message-of-the-day lines collected from the
// welcome result during handshake.
func (s *Session) MOTD() []string { return s.motd }

// HandshakeOptions returns the handshake_options level the server
// advertised, used only for diagnostics; the session itself already
// applied it when building the login reply.
func (s *Session) HandshakeOptions() int { return s.handshakeOptions }

// Connected reports whether the session is still usable.
func (s *Session) Connected() bool { return s.connected }

// LastError returns the most recent error recorded on the connection;
// an error on a handle propagates to its owning connection.
func (s *Session) LastError() error { return s.lastErr }

// EnableWireLog turns on raw wire logging to w, compressed with snappy as
// the buffer is flushed.
func (s *Session) EnableWireLog(w WireLogWriter) {
	s.wire = newWireLog(w)
}

// clearError clears any prior error, as every externally callable function
// must do on entry.
func (s *Session) clearError() { s.lastErr = nil }

func (s *Session) fail(err error) error {
	s.lastErr = err
	return err
}

// failIO records err like fail but first translates a stream deadline
// expiry into the Timeout error kind, tagged with the action that was in
// flight.
func (s *Session) failIO(action string, err error) error {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return s.fail(&Timeout{Action: action})
	}
	return s.fail(err)
}

// armReplyTimeout applies the reply_timeout parameter, if set, as the
// stream deadline for the reads that follow a send.
func (s *Session) armReplyTimeout() {
	if ms := s.settings.GetLong(msettings.ReplyTimeout); ms > 0 {
		s.stream.SetTimeout(time.Duration(ms) * time.Millisecond)
	}
}

// Close drains and discards any outstanding output, closes every handle,
// and closes the underlying stream.
func (s *Session) Close() error {
	if !s.connected {
		return nil
	}
	_ = s.drainActive()
	for h := s.handleHead; h != nil; {
		next := h.next
		h.Close()
		h = next
	}
	s.connected = false
	return s.stream.Close()
}

// drainActive enforces the client-side invariant: sending a new command
// implicitly drains the previous active handle's undrained output before a
// new one may become active.
func (s *Session) drainActive() error {
	if s.active == nil {
		return nil
	}
	prev := s.active
	s.active = nil
	return prev.readIntoCache()
}

// newHandle allocates a handle bound to this session and links it into the
// session's handle list.
func (s *Session) newHandle() *Handle {
	h := &Handle{session: s}
	h.next = s.handleHead
	s.handleHead = h
	return h
}

// Query sends cmd as a single statement, in the given language ("sql",
// "mal", or "profiler"), and reads the first page of its reply into a new
// handle. SQL statements are sent with the one-byte
// prefix "s", a forced trailing ";\n"; other languages are sent verbatim.
func (s *Session) Query(language, cmd string) (*Handle, error) {
	_, span := tracing.StartSpan(context.Background(), tracing.SpanQuery)
	defer span.End()

	s.clearError()
	if !s.connected {
		return nil, s.fail(&Closed{})
	}
	if err := s.drainActive(); err != nil {
		return nil, s.fail(err)
	}

	h := s.newHandle()
	s.active = h

	payload := cmd
	if language == "sql" {
		if !strings.HasSuffix(strings.TrimRight(cmd, "\n"), ";") {
			payload = cmd + "\n;"
		}
		payload = "s" + payload + "\n"
	}
	if s.wire != nil {
		s.wire.logSend(payload)
	}
	if _, err := s.stream.Write([]byte(payload)); err != nil {
		return nil, s.failIO("query", err)
	}
	if err := s.stream.Flush(); err != nil {
		return nil, s.failIO("query", err)
	}

	s.armReplyTimeout()
	if err := h.readIntoCache(); err != nil {
		log.Error("query failed", log.Pairs{"language": language, "error": err.Error()})
		return nil, s.failIO("query", err)
	}
	querytype := "none"
	if h.result != nil {
		querytype = h.result.QueryType.String()
	}
	metrics.QueriesTotal.WithLabelValues(language, querytype).Inc()
	return h, nil
}

// QueryPart accumulates statement text for a partial send without
// flushing; call Done to flush and read the reply. Used when a statement
// is assembled incrementally.
type QueryPart struct {
	handle *Handle
	buf    strings.Builder
}

// Part starts a partial SQL send against a fresh handle.
func (s *Session) Part() *QueryPart {
	h := s.newHandle()
	return &QueryPart{handle: h}
}

// Write appends text to the accumulated statement.
func (p *QueryPart) Write(text string) { p.buf.WriteString(text) }

// Done flushes the accumulated statement (forcing the SQL "s" prefix and
// trailing ";\n") and reads the first page of the reply. If the server
// responds with the "need more input" prompt, the returned handle's
// NeedMore reports true and the caller may Part again to continue the
// same logical statement.
func (p *QueryPart) Done() (*Handle, error) {
	h := p.handle
	s := h.session
	s.clearError()
	if err := s.drainActive(); err != nil {
		return nil, s.fail(err)
	}
	s.active = h

	text := p.buf.String()
	if !strings.HasSuffix(strings.TrimRight(text, "\n"), ";") {
		text += "\n;"
	}
	payload := "s" + text + "\n"
	if s.wire != nil {
		s.wire.logSend(payload)
	}
	if _, err := s.stream.Write([]byte(payload)); err != nil {
		return nil, s.failIO("query", err)
	}
	if err := s.stream.Flush(); err != nil {
		return nil, s.failIO("query", err)
	}
	s.armReplyTimeout()
	if err := h.readIntoCache(); err != nil {
		return nil, s.failIO("query", err)
	}
	return h, nil
}
