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

package handshake

import (
	"strings"

	"github.com/MonetDB/mapi-go/msettings"
	"github.com/MonetDB/mapi-go/protocol"
)

const maxRedirects = 50

// Result is what a successful Login hands back to the session layer: the
// negotiated handshake_options level, whether OOB interrupts are available,
// the accumulated MOTD lines, and the final, possibly-rehashed password
// that the caller should persist onto its Settings.
type Result struct {
	HandshakeOptions int
	OOBInterrupt     bool
	MOTD             []string
	ResolvedPassword string
}

// Login performs the v9 challenge/response handshake over stream (already
// connected and block-framed, but with no endianness assumed yet).
// It tolerates any number of same-socket merovingian restarts, up to
// redircnt (shared across the whole logical connection, not just this
// Login call) reaching maxRedirects; a redirect to a non-merovingian target
// is surfaced as *Redirect so the caller can close the socket, reconnect,
// and call Login again.
//
// s is read for credentials/session options on every round (a merovingian
// restart may have mutated it via the redirect target) and localBigEndian
// is this process's native byte order.
func Login(stream protocol.Stream, s *msettings.Settings, redircnt *int, localBigEndian bool) (*Result, error) {
	for {
		block, err := stream.ReadBlock()
		if err != nil {
			return nil, err
		}
		chal, err := ParseChallenge(string(block))
		if err != nil {
			return nil, err
		}

		password := s.GetString(msettings.Password)
		stored, changed, err := ResolvePassword(password, chal.ServerHash)
		if err != nil {
			return nil, err
		}
		if changed {
			s.SetString(msettings.Password, stored)
		}

		sess := sessionSettingsFromMsettings(s)
		reply, err := BuildReply(chal, stored, sess, localBigEndian)
		if err != nil {
			return nil, err
		}
		if len(reply) > protocol.MaxBlockPayload {
			return nil, protocolErrorf("reply within one block", "reply too long")
		}

		stream.SetBigEndian(chal.BigEndian)

		if _, err := stream.Write([]byte(reply)); err != nil {
			return nil, err
		}
		if err := stream.Flush(); err != nil {
			return nil, err
		}

		motd, redirects, err := readWelcome(stream)
		if err != nil {
			return nil, err
		}

		if len(redirects) == 0 {
			result := &Result{
				HandshakeOptions: chal.Options,
				OOBInterrupt:     chal.OOBInterrupt,
				MOTD:             motd,
				ResolvedPassword: stored,
			}
			if err := applyPendingSettings(stream, chal, s); err != nil {
				return nil, err
			}
			return result, nil
		}

		if *redircnt >= maxRedirects {
			return nil, &tooManyRedirectsError{}
		}
		*redircnt++

		target := redirects[0]
		if strings.HasPrefix(target, "mapi:merovingian://") || target == "mapi:merovingian://proxy" {
			if err := msettings.ParseURL(s, target); err != nil {
				return nil, err
			}
			continue // restart handshake on the same socket
		}

		return nil, &Redirect{RedirectURL: target}
	}
}

func sessionSettingsFromMsettings(s *msettings.Settings) SessionSettings {
	return SessionSettings{
		User:             s.GetString(msettings.User),
		Password:         s.GetString(msettings.Password),
		Language:         s.GetString(msettings.Language),
		Database:         s.GetString(msettings.Database),
		Autocommit:       s.GetBool(msettings.Autocommit),
		ReplySize:        s.GetLong(msettings.ReplySize),
		SizeHeader:       false,
		ColumnarProtocol: false,
		TimeZone:         s.GetLong(msettings.Timezone),
	}
}

// readWelcome reads the welcome result set as a plain reply: lines
// starting with '#' accumulate into the MOTD, lines starting with '^' are
// redirect targets (capped at 50), anything else is consumed and ignored
// until the \x01\x01 end-of-reply prompt.
func readWelcome(stream protocol.Stream) (motd []string, redirects []string, err error) {
	for {
		line, err := stream.ReadLine()
		if err != nil {
			return nil, nil, err
		}
		text := string(line)
		trimmed := strings.TrimRight(text, "\n")

		switch {
		case trimmed == "\x01\x01":
			return motd, redirects, nil
		case trimmed == "\x01\x02":
			// more input requested: the welcome message never legitimately
			// asks for more; treat as protocol error.
			return nil, nil, protocolErrorf("end of welcome reply", "needs more input")
		case strings.HasPrefix(text, "#"):
			motd = append(motd, trimmed)
		case strings.HasPrefix(text, "^"):
			if len(redirects) < 50 {
				redirects = append(redirects, trimmed[1:])
			}
		case strings.HasPrefix(text, "!"):
			return nil, nil, authErrorf("%s", strings.TrimPrefix(trimmed, "!"))
		default:
			// header/data/footer lines of the welcome result set: no
			// meaningful payload for the handshake layer, discarded.
		}
	}
}

// applyPendingSettings sends the Xauto_commit/Xreply_size/Xsizeheader/
// time_zone control commands the reply could not carry inline because the
// server's handshake_options level was too low for that setting, draining
// each reply before sending the next.
func applyPendingSettings(stream protocol.Stream, chal *Challenge, s *msettings.Settings) error {
	sess := sessionSettingsFromMsettings(s)
	cmds := PendingSettings(chal, sess, 100, 0)
	for _, cmd := range cmds {
		if _, err := stream.Write([]byte("X" + cmd + "\n")); err != nil {
			return err
		}
		if err := stream.Flush(); err != nil {
			return err
		}
		if _, _, err := readWelcome(stream); err != nil {
			return err
		}
	}
	return nil
}

// tooManyRedirectsError is what the internal redirect signal degrades to
// once redircnt exhausts maxRedirects; from the caller's point of view the
// connection attempt simply failed.
type tooManyRedirectsError struct{}

func (e *tooManyRedirectsError) Error() string {
	return "mapi: connect failed: too many redirects"
}

func (e *tooManyRedirectsError) Kind() string { return "connect" }
