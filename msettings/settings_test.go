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

func TestDefaults(t *testing.T) {
	s := New()
	if s.GetBool(Autocommit) != true {
		t.Errorf("autocommit default = %v, want true", s.GetBool(Autocommit))
	}
	if s.GetLong(Port) != -1 {
		t.Errorf("port default = %d, want -1", s.GetLong(Port))
	}
	if s.GetLong(ReplySize) != 100 {
		t.Errorf("replysize default = %d, want 100", s.GetLong(ReplySize))
	}
	if s.GetString(Sockdir) != "/tmp" {
		t.Errorf("sockdir default = %q, want /tmp", s.GetString(Sockdir))
	}
	if !s.LangIsSQL() {
		t.Errorf("default language should be sql")
	}
}

func TestValidationMonotonicity(t *testing.T) {
	s := New()
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !s.Validated() {
		t.Fatalf("expected validated=true")
	}
	s.SetString(Database, s.GetString(Database)) // set to same value
	if !s.Validated() {
		t.Errorf("setting an unchanged value should not clear validated")
	}
	s.SetString(Database, "newdb")
	if s.Validated() {
		t.Errorf("setting a changed value should clear validated")
	}
}

func TestInvariantSockHostExclusive(t *testing.T) {
	s := New()
	s.SetString(Sock, "/tmp/.s.monetdb.50000")
	s.SetString(Host, "example.com")
	if err := s.Validate(); err == nil {
		t.Errorf("expected validation error when both sock and host are set")
	}
}

func TestInvariantSockDisablesTLS(t *testing.T) {
	s := New()
	s.SetString(Sock, "/tmp/.s.monetdb.50000")
	s.SetBool(TLS, true)
	if err := s.Validate(); err == nil {
		t.Errorf("expected validation error for sock+tls")
	}
}

func TestCertHashNormalization(t *testing.T) {
	s := New()
	s.SetBool(TLS, true)
	s.SetString(CertHash, "sha256:AB:cd:EF")
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got, want := s.ConnectCertHashDigits(), "abcdef"; got != want {
		t.Errorf("ConnectCertHashDigits = %q, want %q", got, want)
	}

	s2 := New()
	s2.SetBool(TLS, true)
	s2.SetString(CertHash, "md5:1234")
	if err := s2.Validate(); err == nil {
		t.Errorf("expected validation error for non-sha256 certhash")
	}
}

func TestClientCertRequiresClientKey(t *testing.T) {
	s := New()
	s.SetString(ClientCert, "/etc/mapi/client.pem")
	if err := s.Validate(); err == nil {
		t.Errorf("expected validation error when clientcert set without clientkey")
	}
}

func TestPortRange(t *testing.T) {
	s := New()
	s.SetLong(Port, 0)
	if err := s.Validate(); err == nil {
		t.Errorf("expected validation error for port=0")
	}
	s.SetLong(Port, 70000)
	if err := s.Validate(); err == nil {
		t.Errorf("expected validation error for port=70000")
	}
	s.SetLong(Port, -1)
	if err := s.Validate(); err != nil {
		t.Errorf("port=-1 should validate: %v", err)
	}
}

func TestDerivedConsistency(t *testing.T) {
	s := New()
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if s.ConnectTLSVerify() != VerifyNone {
		t.Errorf("tls=false should derive connect_tls_verify=none, got %v", s.ConnectTLSVerify())
	}
	if got, want := s.ConnectUnix(), "/tmp/.s.monetdb.50000"; got != want {
		t.Errorf("ConnectUnix = %q, want %q", got, want)
	}
	s.SetString(Sock, "/custom/.s.monetdb.1")
	if got := s.ConnectUnix(); got != "/custom/.s.monetdb.1" {
		t.Errorf("ConnectUnix should mirror sock, got %q", got)
	}
}

func TestSetNamedRejectsCoreWithoutAllow(t *testing.T) {
	s := New()
	if err := s.SetNamed("host", "example.com", false); err == nil {
		t.Errorf("expected error setting core parameter host without allowCore")
	}
	if err := s.SetNamed("host", "example.com", true); err != nil {
		t.Errorf("allowCore=true should permit setting host: %v", err)
	}
}

func TestSetNamedAliasesAndIgnored(t *testing.T) {
	s := New()
	if err := s.SetNamed("fetchsize", "500", false); err != nil {
		t.Fatalf("fetchsize alias: %v", err)
	}
	if s.GetLong(ReplySize) != 500 {
		t.Errorf("fetchsize alias should set replysize, got %d", s.GetLong(ReplySize))
	}
	if err := s.SetNamed("hash", "sha512", false); err != nil {
		t.Errorf("hash should be silently ignored, got error: %v", err)
	}
	if err := s.SetNamed("debug", "1", false); err != nil {
		t.Errorf("debug should be silently ignored, got error: %v", err)
	}
}
