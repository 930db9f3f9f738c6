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
	"strconv"
	"strings"

	"github.com/MonetDB/mapi-go/msettings"
)

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

// sendControl issues an "X<name> <args>\n" control command on the session
// stream and drains its reply. It assumes
// no handle is currently active (the caller is responsible for draining
// one first via drainActive), matching the reference client's discipline
// of never interleaving a control command with an in-flight result.
func (s *Session) sendControl(name, args string) error {
	if !s.connected {
		return s.fail(&Closed{})
	}
	cmd := "X" + name
	if args != "" {
		cmd += " " + args
	}
	cmd += "\n"
	if s.wire != nil {
		s.wire.logSend(cmd)
	}
	if _, err := s.stream.Write([]byte(cmd)); err != nil {
		return s.failIO("control", err)
	}
	if err := s.stream.Flush(); err != nil {
		return s.failIO("control", err)
	}
	s.armReplyTimeout()
	return s.drainControlReply()
}

// drainControlReply reads and discards lines until the end-of-reply
// prompt, surfacing a server `!` error line as a ServerError.
func (s *Session) drainControlReply() error {
	for {
		raw, err := s.stream.ReadLine()
		if err != nil {
			return s.failIO("control", err)
		}
		if s.wire != nil {
			s.wire.logRecv(string(raw))
		}
		trimmed := strings.TrimRight(string(raw), "\n")
		switch {
		case strings.HasPrefix(trimmed, "\x01\x01"):
			return nil
		case strings.HasPrefix(trimmed, "!"):
			state, msg := sqlStatePrefix(trimmed[1:])
			return s.fail(serverErrorf(state, msg))
		}
	}
}

// Ping sends a dummy request to the server to confirm the connection is
// still alive: a trivial query in the session's language, discarded once
// it returns.
func (s *Session) Ping() error {
	s.clearError()
	var probe string
	switch {
	case s.settings.LangIsSQL():
		probe = "select true;"
	case s.settings.LangIsMAL():
		probe = "io.print(1);"
	default:
		return nil
	}
	h, err := s.Query(s.settings.GetString(msettings.Language), probe)
	if err != nil {
		return err
	}
	return h.Close()
}

// SetAutocommit toggles server-side autocommit via Xauto_commit.
func (s *Session) SetAutocommit(on bool) error {
	s.clearError()
	if err := s.drainActive(); err != nil {
		return s.fail(err)
	}
	s.settings.SetBool(msettings.Autocommit, on)
	return s.sendControl("auto_commit", boolDigit(on))
}

// SetCacheLimit changes the server-side reply size via Xreply_size.
func (s *Session) SetCacheLimit(n int64) error {
	s.clearError()
	if err := s.drainActive(); err != nil {
		return s.fail(err)
	}
	s.settings.SetLong(msettings.ReplySize, n)
	return s.sendControl("reply_size", itoa(n))
}

// SetTimeZone changes the server-side session time zone offset (minutes
// east of UTC) via Xtime_zone.
func (s *Session) SetTimeZone(minutesEast int64) error {
	s.clearError()
	if err := s.drainActive(); err != nil {
		return s.fail(err)
	}
	s.settings.SetLong(msettings.Timezone, minutesEast)
	return s.sendControl("time_zone", itoa(minutesEast))
}

func boolDigit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// exportPage issues Xexport <tableid> <row> and reads the resulting page
// of tuples into r's cache. It is invoked by Fetch
// when the application reads past the cached portion of a TABLE result but
// more rows exist server-side.
func (r *ResultSet) exportPage(nextFirst int64) error {
	s := r.handle.session
	if err := s.sendControlNoReset("export", itoa(r.TableID)+" "+itoa(nextFirst)); err != nil {
		return err
	}
	r.cache.reset(nextFirst)
	s.active = r.handle
	return r.handle.readIntoCache()
}

// sendControlNoReset is like sendControl but does not drain a reply itself
// (the pagination reply is a normal header+tuples+prompt sequence handled
// by readIntoCache, not a bare control acknowledgement).
func (s *Session) sendControlNoReset(name, args string) error {
	cmd := "X" + name
	if args != "" {
		cmd += " " + args
	}
	cmd += "\n"
	if s.wire != nil {
		s.wire.logSend(cmd)
	}
	if _, err := s.stream.Write([]byte(cmd)); err != nil {
		return s.fail(err)
	}
	return s.stream.Flush()
}

// Fetch advances the result's read cursor to the next cached row,
// transparently issuing a paged Xexport fetch if the cache is exhausted
// but more rows exist on the server. It returns
// ok=false once row_count rows have all been delivered.
func (r *ResultSet) Fetch() (fields []string, ok bool, err error) {
	if raw, has := r.cache.nextTuple(); has {
		return unquoteTuple(raw), true, nil
	}
	if r.rowsFetched() >= r.RowCount {
		return nil, false, nil
	}
	if r.handle == nil || r.TableID <= 0 {
		return nil, false, nil
	}
	nextFirst := r.rowsFetched()
	if err := r.exportPage(nextFirst); err != nil {
		return nil, false, err
	}
	if raw, has := r.cache.nextTuple(); has {
		return unquoteTuple(raw), true, nil
	}
	return nil, false, nil
}

// SeekRow repositions the result's read cursor to an absolute row number,
// re-fetching from the server via Xexport if the target falls outside the
// currently cached window.
func (r *ResultSet) SeekRow(row int64) error {
	if r.cache.seekRow(row) {
		return nil
	}
	return r.exportPage(row)
}
