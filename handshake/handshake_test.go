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
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
)

func TestParseChallengeBasic(t *testing.T) {
	chal, err := ParseChallenge("abc123:merovingian:9:RIPEMD160,SHA256,SHA1:LIT:SHA512:sql=6:OOBINTR=1")
	if err != nil {
		t.Fatalf("ParseChallenge: %v", err)
	}
	if chal.Salt != "abc123" {
		t.Fatalf("Salt = %q", chal.Salt)
	}
	if chal.ProtoVer != 9 {
		t.Fatalf("ProtoVer = %d", chal.ProtoVer)
	}
	if chal.BigEndian {
		t.Fatalf("BigEndian = true, want false for LIT")
	}
	if !chal.HasOptions || chal.Options != 6 {
		t.Fatalf("Options = %d, HasOptions = %v", chal.Options, chal.HasOptions)
	}
	if !chal.OOBInterrupt {
		t.Fatalf("OOBInterrupt = false, want true")
	}
}

func TestParseChallengeRejectsOldProtocol(t *testing.T) {
	_, err := ParseChallenge("abc:mserver:8:SHA1:LIT:SHA1")
	if err == nil {
		t.Fatalf("expected error for protover 8")
	}
}

func TestParseChallengeTooFewFields(t *testing.T) {
	_, err := ParseChallenge("abc:mserver:9:SHA1")
	if err == nil {
		t.Fatalf("expected error for short challenge")
	}
}

func TestPickAlgorithmPrefersStrongest(t *testing.T) {
	algo, err := pickAlgorithm("SHA1,SHA256,RIPEMD160")
	if err != nil {
		t.Fatalf("pickAlgorithm: %v", err)
	}
	if algo != "RIPEMD160" {
		t.Fatalf("algo = %q, want RIPEMD160", algo)
	}
}

func TestPickAlgorithmNoOverlap(t *testing.T) {
	if _, err := pickAlgorithm("CRC32"); err == nil {
		t.Fatalf("expected error for no mutually supported algorithm")
	}
}

func TestResolvePasswordHashesPlaintext(t *testing.T) {
	stored, changed, err := ResolvePassword("secret", "SHA1")
	if err != nil {
		t.Fatalf("ResolvePassword: %v", err)
	}
	if !changed {
		t.Fatalf("changed = false, want true")
	}
	if !strings.HasPrefix(stored, hashedPasswordSentinel) {
		t.Fatalf("stored = %q, want sentinel prefix", stored)
	}
}

func TestResolvePasswordSkipsAlreadyHashed(t *testing.T) {
	pre := hashedPasswordSentinel + "deadbeef"
	stored, changed, err := ResolvePassword(pre, "SHA1")
	if err != nil {
		t.Fatalf("ResolvePassword: %v", err)
	}
	if changed {
		t.Fatalf("changed = true, want false")
	}
	if stored != pre {
		t.Fatalf("stored = %q, want unchanged %q", stored, pre)
	}
}

func TestBuildReplyFormat(t *testing.T) {
	chal := &Challenge{Salt: "salt1", HashList: "SHA1", HasOptions: true, Options: 2}
	stored, _, err := ResolvePassword("secret", "SHA1")
	if err != nil {
		t.Fatalf("ResolvePassword: %v", err)
	}
	sess := SessionSettings{
		User: "monetdb", Language: "sql", Database: "demo",
		Autocommit: true, ReplySize: 100,
	}
	reply, err := BuildReply(chal, stored, sess, false)
	if err != nil {
		t.Fatalf("BuildReply: %v", err)
	}
	if !strings.HasPrefix(reply, "LIT:monetdb:{SHA1}") {
		t.Fatalf("reply = %q, want LIT:monetdb:{SHA1}... prefix", reply)
	}
	if !strings.Contains(reply, ":sql:demo:FILETRANS:") {
		t.Fatalf("reply = %q, missing language/database/filetrans", reply)
	}
	if !strings.Contains(reply, "auto_commit=1") || !strings.Contains(reply, "reply_size=100") {
		t.Fatalf("reply = %q, missing inline options for level 2", reply)
	}
	if strings.Contains(reply, "size_header") {
		t.Fatalf("reply = %q, should not carry size_header above level 2", reply)
	}
}

func TestBuildReplyNoOptionsSingleColon(t *testing.T) {
	chal := &Challenge{Salt: "salt1", HashList: "SHA1"}
	stored, _, err := ResolvePassword("secret", "SHA1")
	if err != nil {
		t.Fatalf("ResolvePassword: %v", err)
	}
	sess := SessionSettings{User: "monetdb", Language: "sql", Database: "demo"}
	reply, err := BuildReply(chal, stored, sess, false)
	if err != nil {
		t.Fatalf("BuildReply: %v", err)
	}
	if !strings.HasSuffix(reply, ":sql:demo:FILETRANS:\n") {
		t.Fatalf("reply = %q, want single trailing colon before newline when the server negotiates no options", reply)
	}
	if strings.Contains(reply, "FILETRANS::") {
		t.Fatalf("reply = %q, double colon after FILETRANS with no options", reply)
	}
}

func TestBuildReplyRejectsEmptyCredentials(t *testing.T) {
	chal := &Challenge{Salt: "s", HashList: "SHA1"}
	if _, err := BuildReply(chal, "", SessionSettings{}, false); err == nil {
		t.Fatalf("expected error for empty credentials")
	}
}

func TestBuildReplyTooLongOptsStillFormats(t *testing.T) {
	chal := &Challenge{Salt: "s", HashList: "SHA1", HasOptions: true, Options: 5}
	stored, _, _ := ResolvePassword("pw", "SHA1")
	sess := SessionSettings{User: "u", Language: "sql", Database: "d", ReplySize: 1, TimeZone: 60}
	reply, err := BuildReply(chal, stored, sess, true)
	if err != nil {
		t.Fatalf("BuildReply: %v", err)
	}
	if !strings.HasPrefix(reply, "BIG:") {
		t.Fatalf("reply = %q, want BIG endian prefix", reply)
	}
	if !strings.Contains(reply, "time_zone=60") {
		t.Fatalf("reply = %q, missing time_zone at level 5", reply)
	}
}

func TestPendingSettingsOnlyBelowLevel(t *testing.T) {
	chal := &Challenge{HasOptions: true, Options: 1}
	sess := SessionSettings{Autocommit: true, ReplySize: 500, TimeZone: 120}
	cmds := PendingSettings(chal, sess, 100, 0)
	joined := strings.Join(cmds, "|")
	if strings.Contains(joined, "auto_commit") {
		t.Fatalf("cmds = %v, auto_commit already covered inline at level 1", cmds)
	}
	if !strings.Contains(joined, "reply_size 500") {
		t.Fatalf("cmds = %v, want pending reply_size", cmds)
	}
	if !strings.Contains(joined, "time_zone 120") {
		t.Fatalf("cmds = %v, want pending time_zone", cmds)
	}
}

func TestPendingSettingsNoneWhenAllDefaultOrInline(t *testing.T) {
	chal := &Challenge{HasOptions: true, Options: 5}
	sess := SessionSettings{Autocommit: true, ReplySize: 100, TimeZone: 0}
	cmds := PendingSettings(chal, sess, 100, 0)
	if len(cmds) != 0 {
		t.Fatalf("cmds = %v, want none at full level", cmds)
	}
}

func TestDigestAndHashPasswordRoundTrip(t *testing.T) {
	d, err := Digest("SHA1", []byte("hello"))
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if len(d) != 40 {
		t.Fatalf("Digest length = %d, want 40 hex chars", len(d))
	}
	h, err := HashPassword("SHA1", "pw", "chal")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	h2, err := Digest("SHA1", []byte("pwchal"))
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if h != h2 {
		t.Fatalf("HashPassword = %q, want concatenated digest %q", h, h2)
	}
}

func TestDigestUnsupportedAlgorithm(t *testing.T) {
	if _, err := Digest("CRC32", []byte("x")); err == nil {
		t.Fatalf("expected error for unsupported algorithm")
	}
}

// The full reply for a known challenge, computed independently: the stored
// password is hex(sha256("secret")) and the response hash is
// hex(sha256(stored || salt)).
func TestBuildReplyKnownVector(t *testing.T) {
	chal, err := ParseChallenge("Xsalt:mserver:9:SHA256,SHA1:LIT:SHA256:")
	if err != nil {
		t.Fatalf("ParseChallenge: %v", err)
	}
	if chal.HasOptions {
		t.Fatalf("HasOptions = true for a challenge with an empty opts field")
	}

	stored, _, err := ResolvePassword("secret", chal.ServerHash)
	if err != nil {
		t.Fatalf("ResolvePassword: %v", err)
	}
	sess := SessionSettings{User: "monetdb", Language: "sql", Database: "demo"}
	reply, err := BuildReply(chal, stored, sess, false)
	if err != nil {
		t.Fatalf("BuildReply: %v", err)
	}

	inner := sha256.Sum256([]byte("secret"))
	outer := sha256.Sum256([]byte(hex.EncodeToString(inner[:]) + "Xsalt"))
	want := "LIT:monetdb:{SHA256}" + hex.EncodeToString(outer[:]) + ":sql:demo:FILETRANS:\n"
	if reply != want {
		t.Fatalf("reply = %q, want %q", reply, want)
	}
}
