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
	"fmt"
	"strconv"
	"strings"
)

// SessionSettings carries the subset of msettings.Settings the reply needs
// to know about without importing the msettings package (handshake stays a
// narrow, independently testable layer; Login's caller is responsible for
// translating real Settings into this struct).
type SessionSettings struct {
	User             string
	Password         string // already hashed ("\x01"+hex) or plaintext
	Language         string
	Database         string
	Autocommit       bool
	ReplySize        int64
	SizeHeader       bool
	ColumnarProtocol bool
	TimeZone         int64
}

const hashedPasswordSentinel = "\x01"

// ResolvePassword returns the password to hash into the reply, hashing the
// stored plaintext with serverhash and re-prefixing it with the sentinel
// byte if it was not already a stored hash: "reconnects don't
// re-hash." The returned bool reports whether settings must be updated with
// the now-hashed form (the caller persists this back onto msettings so a
// subsequent reconnect skips re-hashing).
func ResolvePassword(password, serverHash string) (stored string, changed bool, err error) {
	if strings.HasPrefix(password, hashedPasswordSentinel) {
		return password, false, nil
	}
	h, err := Digest(serverHash, []byte(password))
	if err != nil {
		return "", false, authErrorf("server requires unsupported hash %q", serverHash)
	}
	return hashedPasswordSentinel + h, true, nil
}

// BuildReply constructs the v9 login reply:
//
//	ENDIAN:user:{alg}pw:language:database:FILETRANS:[k=v,k=v...]:\n
//
// localBigEndian is this process's native byte order (used to fill the
// ENDIAN field, matching the reference client which always reports its own
// order regardless of the server's). storedPassword must already be in
// "\x01<hex>" form (see ResolvePassword).
func BuildReply(chal *Challenge, storedPassword string, s SessionSettings, localBigEndian bool) (string, error) {
	if s.User == "" || storedPassword == "" {
		return "", authErrorf("username and password must be set")
	}

	algo, err := pickAlgorithm(chal.HashList)
	if err != nil {
		return "", err
	}
	hashHex, err := HashPassword(algo, strings.TrimPrefix(storedPassword, hashedPasswordSentinel), chal.Salt)
	if err != nil {
		return "", err
	}
	pw := fmt.Sprintf("{%s}%s", algo, hashHex)

	endian := "LIT"
	if localBigEndian {
		endian = "BIG"
	}

	var opts []string
	if chal.HasOptions {
		if chal.Options >= 1 {
			opts = append(opts, "auto_commit="+boolToDigit(s.Autocommit))
		}
		if chal.Options >= 2 {
			opts = append(opts, "reply_size="+strconv.FormatInt(s.ReplySize, 10))
		}
		if chal.Options >= 3 {
			opts = append(opts, "size_header="+boolToDigit(s.SizeHeader))
		}
		if chal.Options >= 4 {
			opts = append(opts, "columnar_protocol="+boolToDigit(s.ColumnarProtocol))
		}
		if chal.Options >= 5 {
			opts = append(opts, "time_zone="+strconv.FormatInt(s.TimeZone, 10))
		}
	}

	optstr := ""
	if len(opts) > 0 {
		optstr = strings.Join(opts, ",") + ":"
	}
	reply := fmt.Sprintf("%s:%s:%s:%s:%s:FILETRANS:%s\n",
		endian, s.User, pw, s.Language, s.Database, optstr)
	return reply, nil
}

// PendingSettings returns the Xauto_commit/Xreply_size/Xsizeheader/timezone
// control commands needed to apply settings the reply could not carry
// inline because chal.Options was too low for that setting's level and the
// setting differs from its default. Each entry is a
// ready-to-send control line without its trailing newline.
func PendingSettings(chal *Challenge, s SessionSettings, defaultReplySize int64, defaultTimeZone int64) []string {
	var cmds []string
	level := 0
	if chal.HasOptions {
		level = chal.Options
	}
	if level < 1 && !s.Autocommit {
		cmds = append(cmds, "auto_commit "+boolToDigit(s.Autocommit))
	}
	if level < 2 && s.ReplySize != defaultReplySize {
		cmds = append(cmds, "reply_size "+strconv.FormatInt(s.ReplySize, 10))
	}
	if level < 3 && s.SizeHeader {
		cmds = append(cmds, "sizeheader "+boolToDigit(s.SizeHeader))
	}
	if level < 5 && s.TimeZone != defaultTimeZone {
		cmds = append(cmds, "time_zone "+strconv.FormatInt(s.TimeZone, 10))
	}
	return cmds
}

func boolToDigit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
