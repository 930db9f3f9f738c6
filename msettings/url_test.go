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

package msettings

import "testing"

// S1 — URL round-trip, modern with IPv6 and query.
func TestS1ModernIPv6RoundTrip(t *testing.T) {
	const url = "monetdbs://[::1]:50001/db1/s1/t1?user=alice&replysize=500"
	s := New()
	if err := ParseURL(s, url); err != nil {
		t.Fatalf("ParseURL: %v", err)
	}
	if !s.GetBool(TLS) {
		t.Errorf("tls should be true")
	}
	if s.GetString(Host) != "::1" {
		t.Errorf("host = %q, want ::1", s.GetString(Host))
	}
	if s.GetLong(Port) != 50001 {
		t.Errorf("port = %d, want 50001", s.GetLong(Port))
	}
	if s.GetString(Database) != "db1" || s.GetString(TableSchema) != "s1" || s.GetString(Table) != "t1" {
		t.Errorf("path = %s/%s/%s, want db1/s1/t1", s.GetString(Database), s.GetString(TableSchema), s.GetString(Table))
	}
	if s.GetString(User) != "alice" {
		t.Errorf("user = %q, want alice", s.GetString(User))
	}
	if s.GetLong(ReplySize) != 500 {
		t.Errorf("replysize = %d, want 500", s.GetLong(ReplySize))
	}

	got := WriteURL(s)
	want := "monetdbs://[::1]:50001/db1/s1/t1?user=alice&replysize=500"
	if got != want {
		t.Errorf("WriteURL = %q, want %q", got, want)
	}
}

// S2 — classic URL with query filter.
func TestS2ClassicQueryFilter(t *testing.T) {
	s := New()
	s.SetString(User, "bob")
	before := s.GetString(User)
	if err := ParseURL(s, "mapi:monetdb://srv:50000/demo?language=sql&user=bob2"); err != nil {
		t.Fatalf("ParseURL: %v", err)
	}
	if s.GetString(User) != before {
		t.Errorf("classic query should not apply user, got %q want %q", s.GetString(User), before)
	}
	if s.GetString(Database) != "demo" {
		t.Errorf("database = %q, want demo", s.GetString(Database))
	}
	if s.GetString(Language) != "sql" {
		t.Errorf("language = %q, want sql", s.GetString(Language))
	}
}

// S3 — localhost normalization.
func TestS3LocalhostNormalization(t *testing.T) {
	s := New()
	if err := ParseURL(s, "monetdb://localhost/x"); err != nil {
		t.Fatalf("ParseURL: %v", err)
	}
	if s.GetString(Host) != "" {
		t.Errorf("host = %q, want empty", s.GetString(Host))
	}
	if got, want := WriteURL(s), "monetdb://localhost/x"; got != want {
		t.Errorf("WriteURL = %q, want %q", got, want)
	}

	s2 := New()
	if err := ParseURL(s2, "monetdb://localhost./x"); err != nil {
		t.Fatalf("ParseURL: %v", err)
	}
	if s2.GetString(Host) != "localhost" {
		t.Errorf("host = %q, want literal localhost", s2.GetString(Host))
	}
	if got, want := WriteURL(s2), "monetdb://localhost./x"; got != want {
		t.Errorf("WriteURL = %q, want %q", got, want)
	}
}

// S4 — merovingian redirect cannot change credentials.
func TestS4MerovingianRejectsCredentialChange(t *testing.T) {
	s := New()
	s.SetString(User, "u1")
	s.SetString(Password, "p1")
	err := ParseURL(s, "mapi:merovingian://proxy?user=u2")
	if err == nil {
		t.Fatalf("expected RedirectError")
	}
	if _, ok := err.(*RedirectError); !ok {
		t.Errorf("expected *RedirectError, got %T: %v", err, err)
	}
}

// S5 — certhash normalization via URL-driven settings.
func TestS5CertHashViaURL(t *testing.T) {
	s := New()
	s.SetBool(TLS, true)
	if err := s.SetNamed("certhash", "sha256:AB:cd:EF", true); err != nil {
		t.Fatalf("SetNamed: %v", err)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got, want := s.ConnectCertHashDigits(), "abcdef"; got != want {
		t.Errorf("ConnectCertHashDigits = %q, want %q", got, want)
	}
}

func TestPrefixStableTruncatedWrite(t *testing.T) {
	s := New()
	if err := ParseURL(s, "monetdbs://[::1]:50001/db1/s1/t1?user=alice&replysize=500"); err != nil {
		t.Fatalf("ParseURL: %v", err)
	}
	full := WriteURL(s)
	for k := 1; k <= len(full); k++ {
		buf := make([]byte, k)
		n := WriteURLBuffer(s, buf)
		if n != len(full) {
			t.Fatalf("truncated write at k=%d returned length %d, want %d", k, n, len(full))
		}
		if string(buf[:k-1]) != full[:k-1] {
			t.Fatalf("truncated write at k=%d prefix mismatch: got %q want %q", k, buf[:k-1], full[:k-1])
		}
		if buf[k-1] != 0 {
			t.Fatalf("truncated write at k=%d byte k-1 = %d, want NUL", k, buf[k-1])
		}
	}
}

func TestParseUnknownSchemeFails(t *testing.T) {
	s := New()
	if err := ParseURL(s, "postgres://localhost/db"); err == nil {
		t.Errorf("expected error for unrecognized scheme")
	}
}

func TestUserWithoutPasswordClearsPassword(t *testing.T) {
	s := New()
	s.SetString(Password, "oldpw")
	if err := ParseURL(s, "monetdb://localhost/db?user=alice"); err != nil {
		t.Fatalf("ParseURL: %v", err)
	}
	if s.GetString(Password) != "" {
		t.Errorf("password should be cleared when URL sets user without password, got %q", s.GetString(Password))
	}
}
