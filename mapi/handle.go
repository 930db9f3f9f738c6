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
	"strings"

	"github.com/MonetDB/mapi-go/msettings"
)

// Handle is one outstanding query. It owns the chain of result
// sets produced by its statement and, for TABLE/PREPARE results, the
// server-side table ids that must be released with Xclose when the handle
// closes.
type Handle struct {
	session *Session
	next    *Handle // session.handleHead intrusive list

	result *ResultSet // head of the chain
	active *ResultSet // result currently being parsed/read

	needMore bool // server sent the "need more input" prompt
	closed   bool

	pendingClose []int64 // deferred Xclose table ids, flushed on next send
}

// NeedMore reports whether the server's last reply asked for more input
// before it will execute the statement (the \x01\x02 prompt).
func (h *Handle) NeedMore() bool { return h.needMore }

// Result returns the first result set in this handle's chain, or nil if
// the statement produced none (e.g. a schema/transaction statement with no
// rows).
func (h *Handle) Result() *ResultSet { return h.result }

// Error returns the error attached to this handle's connection, if any,
// and otherwise the error of the handle's first result set.
func (h *Handle) Error() error {
	if h.session.lastErr != nil {
		return h.session.lastErr
	}
	if h.result != nil {
		return h.result.Error()
	}
	return nil
}

// Close closes the handle: any result whose tableid is still open on the
// server is released with Xclose, or queued on the active handle's
// pending-close list if another handle still has undrained output.
func (h *Handle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	if h.session.active == h {
		h.session.active = nil
	}
	for r := h.result; r != nil; r = r.next {
		if !r.closed && r.TableID > 0 && (r.QueryType == QTable || r.QueryType == QPrepare) {
			r.closed = true
			h.session.closeTable(r.TableID)
		}
	}
	return nil
}

// NextResult discards the handle's current result and advances to the
// next one in the chain.
func (h *Handle) NextResult() *ResultSet {
	if h.active == nil {
		h.active = h.result
	} else {
		h.active = h.active.next
	}
	return h.active
}

// readIntoCache fills the handle's result chain by reading lines from the
// session's stream up to the end-of-reply or need-more-input prompt.
func (h *Handle) readIntoCache() error {
	s := h.session
	result := h.active
	if result == nil {
		result = h.result
	}

	rowLimit := s.settings.GetLong(msettings.ReplySize)
	cacheAll := rowLimit <= 0

	for {
		raw, err := s.stream.ReadLine()
		if err != nil {
			return err
		}
		if s.wire != nil {
			s.wire.logRecv(string(raw))
		}
		line := string(raw)
		trimmed := strings.TrimRight(line, "\n")

		switch {
		case strings.HasPrefix(line, "\x01"):
			if len(trimmed) >= 2 && trimmed[1] == '\x02' {
				h.needMore = true
				s.active = h
				return nil
			}
			h.needMore = false
			s.active = nil
			h.flushPendingClose()
			return nil

		case strings.HasPrefix(line, "!"):
			state, msg := sqlStatePrefix(trimmed[1:])
			if result == nil || result.closed || result.QueryType != 0 || result.cache.tupleCount() > 0 {
				result = newResultSet(rowLimit, cacheAll)
				h.appendResult(result)
			}
			result.sqlState = state
			result.errorstr = msg

		case strings.HasPrefix(line, "&"):
			newResult, perr := parseHeaderLine(trimmed, result, rowLimit, cacheAll)
			if perr != nil {
				return perr
			}
			if newResult != result {
				h.appendResult(newResult)
			}
			result = newResult

		case strings.HasPrefix(line, "%"):
			if result == nil {
				result = newResultSet(rowLimit, cacheAll)
				h.appendResult(result)
			}
			parseColumnLine(result, trimmed)

		case strings.HasPrefix(line, "#"):
			if s.settings.LangIsMAL() {
				if result == nil {
					result = newResultSet(rowLimit, cacheAll)
					h.appendResult(result)
				}
				result.cache.appendTuple(trimmed, result.cache.tupleCount())
			}
			// SQL: comment lines are discarded.

		case strings.HasPrefix(line, "[") || strings.HasPrefix(line, "="):
			if result == nil {
				result = newResultSet(rowLimit, cacheAll)
				h.appendResult(result)
			}
			result.cache.appendTuple(trimmed, result.cache.first+result.cache.tupleCount())

		default:
			// unrecognized line: ignored, matching the reference client's
			// tolerance of blank/unexpected lines between results.
		}
	}
}

func (h *Handle) appendResult(r *ResultSet) {
	r.handle = h
	if h.result == nil {
		h.result = r
	} else {
		tail := h.result
		for tail.next != nil {
			tail = tail.next
		}
		tail.next = r
	}
	h.active = r
}

// closeTable sends Xclose for tableid, queuing it on pendingClose instead
// if the session currently has undrained output from a different handle.
func (s *Session) closeTable(tableID int64) {
	if s.active != nil {
		s.active.pendingClose = append(s.active.pendingClose, tableID)
		return
	}
	s.sendControl("close", itoa(tableID))
}

// flushPendingClose sends Xclose for every table id queued against h while
// it was blocking the stream, now that its reply has fully drained and the
// session is free to issue control commands again.
func (h *Handle) flushPendingClose() {
	ids := h.pendingClose
	h.pendingClose = nil
	for _, id := range ids {
		h.session.sendControl("close", itoa(id))
	}
}
