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

import (
	"regexp"
	"strconv"
	"strings"
)

// TLSVerify identifies the certificate-verification policy derived from
// tls/cert/certhash.
type TLSVerify int

const (
	VerifyNone TLSVerify = iota
	VerifySystem
	VerifyCert
	VerifyHash
)

func (v TLSVerify) String() string {
	switch v {
	case VerifyNone:
		return "none"
	case VerifySystem:
		return "system"
	case VerifyCert:
		return "cert"
	case VerifyHash:
		return "hash"
	default:
		return "unknown"
	}
}

// Settings is a typed, validated bag of MAPI connection parameters. The zero
// value is not usable; construct one with New.
type Settings struct {
	bools [numBoolParams]bool
	longs [numLongParams]int64
	strs  [numStringParams]string

	userGen     uint64
	passwordGen uint64

	validated bool

	// derived fields: langIsSQL/langIsMAL are updated by SetString and
	// read through LangIsSQL/LangIsMAL; certHashDigits is populated by
	// Validate and read through ConnectCertHashDigits.
	langIsSQL      bool
	langIsMAL      bool
	certHashDigits string
}

// defaults holds the compiled-in defaults.
func defaults() Settings {
	var s Settings
	s.bools[TLS] = false
	s.bools[Autocommit] = true
	s.bools[ClientInfo] = true
	s.longs[Port] = -1
	s.longs[Timezone] = 0
	s.longs[ReplySize] = 100
	s.strs[Sockdir] = "/tmp"
	s.strs[Binary] = "on"
	s.strs[Language] = "sql"
	s.langIsSQL = true
	return s
}

// New returns a Settings populated with the documented defaults:
// sockdir=/tmp, binary=on, replysize=100, autocommit=true, port=-1,
// language=sql.
func New() *Settings {
	s := defaults()
	return &s
}

// Clone deep-copies the settings. Because every owned value here is a Go
// value type (bool/int64/string), a plain struct copy already gives value
// semantics; Clone exists so callers never need to reason about aliasing
// regardless of how the struct grows, and so its name matches the mutating
// APIs it pairs with (Set* calls on the clone never affect the original).
func (s *Settings) Clone() *Settings {
	c := *s
	return &c
}

// GetBool returns the current value of a boolean parameter.
func (s *Settings) GetBool(p BoolParam) bool { return s.bools[p] }

// GetLong returns the current value of an integer parameter.
func (s *Settings) GetLong(p LongParam) int64 { return s.longs[p] }

// GetString returns the current value of a string parameter.
func (s *Settings) GetString(p StringParam) string { return s.strs[p] }

// SetBool sets a boolean parameter. It never fails: every bool field accepts
// both Go bool values directly through this typed setter.
func (s *Settings) SetBool(p BoolParam, v bool) {
	if s.bools[p] == v {
		return
	}
	s.bools[p] = v
	s.validated = false
}

// SetLong sets an integer parameter.
func (s *Settings) SetLong(p LongParam, v int64) {
	if s.longs[p] == v {
		return
	}
	s.longs[p] = v
	s.validated = false
}

// SetString sets a string parameter. Setting Language additionally updates
// the derived lang_is_sql/lang_is_mal flags: a value starting with
// "sql" is SQL, exactly "mal" or "msql" is MAL. There is no profiler
// flag; any other value, including "profiler", clears both flags.
func (s *Settings) SetString(p StringParam, v string) {
	if p == User {
		s.userGen++
	}
	if p == Password {
		s.passwordGen++
	}
	if s.strs[p] == v {
		return
	}
	s.strs[p] = v
	s.validated = false
	if p == Language {
		s.langIsSQL = strings.HasPrefix(v, "sql")
		s.langIsMAL = v == "mal" || v == "msql"
	}
}

// UserGeneration returns the monotonically increasing counter bumped every
// time User is set, even to its current value; the handshake layer uses this (together
// with PasswordGeneration) to detect whether a redirect tried to change
// credentials.
func (s *Settings) UserGeneration() uint64 { return s.userGen }

// PasswordGeneration is the password analogue of UserGeneration.
func (s *Settings) PasswordGeneration() uint64 { return s.passwordGen }

// SetNamed looks up name (resolving aliases: fetchsize -> replysize; hash
// and debug are accepted and silently dropped) and sets it to value, parsing
// value according to the parameter's kind. Core (positional) parameters
// (tls, host, port, database, tableschema, table) are rejected unless
// allowCore is true, because URL query strings may not set them.
func (s *Settings) SetNamed(name, value string, allowCore bool) error {
	name = strings.ToLower(name)
	entry, ok := lookupName(name)
	if !ok {
		if _, known := aliases[name]; known {
			// alias resolves to "ignore silently" (hash, debug)
			return nil
		}
		return parseErrorf(name, "unknown parameter")
	}
	if entry.isCore() && !allowCore {
		return parseErrorf(name, "core parameter cannot be set from a query string")
	}
	switch entry.kind {
	case kindBool:
		b, err := parseBool(value)
		if err != nil {
			return parseErrorf(name, "not a boolean: %q", value)
		}
		s.SetBool(entry.boolIdx, b)
	case kindLong:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return parseErrorf(name, "not an integer: %q", value)
		}
		s.SetLong(entry.longIdx, n)
	case kindString:
		s.SetString(entry.strIdx, value)
	}
	return nil
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0", "":
		return false, nil
	default:
		return false, parseErrorf("bool", "unrecognized boolean spelling %q", v)
	}
}

var identifierRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9._-]*$`)

func validIdentifier(v string) bool {
	if v == "" {
		return true
	}
	return identifierRE.MatchString(v)
}

var certhashRE = regexp.MustCompile(`^sha256:[0-9A-Fa-f:]*[0-9A-Fa-f][0-9A-Fa-f:]*$`)

// Validate enforces the cross-field invariants and,
// on success, recomputes the derived getters (Connect*). It must be called
// (and must succeed) before any of the Connect* methods are meaningful.
func (s *Settings) Validate() error {
	if s.strs[Sock] != "" && s.strs[Host] != "" {
		return validationErrorf("sock/host", "at most one of sock and host may be set")
	}
	if err := validateBinary(s.strs[Binary]); err != nil {
		return err
	}
	if s.strs[Sock] != "" && s.bools[TLS] {
		return validationErrorf("tls", "tls cannot be combined with sock")
	}
	digits := ""
	if s.strs[CertHash] != "" {
		if !certhashRE.MatchString(s.strs[CertHash]) {
			return validationErrorf("certhash", "must match sha256:<hex-or-colon>+ with at least one hex digit")
		}
		digits = normalizeCertHash(s.strs[CertHash])
	}
	if (s.strs[Cert] != "" || s.strs[CertHash] != "") && !s.bools[TLS] {
		return validationErrorf("tls", "cert/certhash require tls=true")
	}
	if !validIdentifier(s.strs[Database]) {
		return validationErrorf("database", "must match [A-Za-z_][A-Za-z0-9._-]*")
	}
	if !validIdentifier(s.strs[TableSchema]) {
		return validationErrorf("tableschema", "must match [A-Za-z_][A-Za-z0-9._-]*")
	}
	if !validIdentifier(s.strs[Table]) {
		return validationErrorf("table", "must match [A-Za-z_][A-Za-z0-9._-]*")
	}
	port := s.longs[Port]
	if port != -1 && (port < 1 || port > 65535) {
		return validationErrorf("port", "must be -1 or in [1,65535]")
	}
	if s.strs[ClientCert] != "" && s.strs[ClientKey] == "" {
		return validationErrorf("clientcert", "requires clientkey to also be set")
	}

	s.certHashDigits = digits
	s.validated = true
	return nil
}

// Validated reports whether the settings currently hold a value that passed
// Validate with no mutation since.
func (s *Settings) Validated() bool { return s.validated }

func validateBinary(v string) error {
	if v == "" {
		return nil
	}
	if _, err := parseBool(v); err == nil {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return validationErrorf("binary", "must be a boolean or a non-negative integer, got %q", v)
	}
	return nil
}

func normalizeCertHash(v string) string {
	rest := strings.TrimPrefix(v, "sha256:")
	rest = strings.ReplaceAll(rest, ":", "")
	return strings.ToLower(rest)
}

const defaultPort = 50000

// ConnectScan reports whether the connection should perform a Unix-socket
// scan: both host and sock empty, tls false, port unset, and a
// database given.
func (s *Settings) ConnectScan() bool {
	return s.strs[Host] == "" && s.strs[Sock] == "" && !s.bools[TLS] &&
		s.longs[Port] == -1 && s.strs[Database] != ""
}

// ConnectUnix is the Unix-domain socket path to dial, or "" if the
// connection should use TCP.
func (s *Settings) ConnectUnix() string {
	if s.strs[Sock] != "" {
		return s.strs[Sock]
	}
	if s.strs[Host] == "" {
		return s.strs[Sockdir] + "/.s.monetdb." + strconv.FormatInt(s.ConnectPort(), 10)
	}
	return ""
}

// ConnectTCP is the TCP host to dial; empty means localhost.
func (s *Settings) ConnectTCP() string {
	if s.strs[Host] != "" {
		return s.strs[Host]
	}
	return "localhost"
}

// ConnectPort returns the effective port: the explicit value, or the MAPI
// default (50000) when unset.
func (s *Settings) ConnectPort() int64 {
	if s.longs[Port] == -1 {
		return defaultPort
	}
	return s.longs[Port]
}

// ConnectTLSVerify derives the certificate verification policy from
// tls/cert/certhash.
func (s *Settings) ConnectTLSVerify() TLSVerify {
	if !s.bools[TLS] {
		return VerifyNone
	}
	switch {
	case s.strs[CertHash] != "":
		return VerifyHash
	case s.strs[Cert] != "":
		return VerifyCert
	default:
		return VerifySystem
	}
}

// ConnectClientKey is the client key file path, or "" if none.
func (s *Settings) ConnectClientKey() string { return s.strs[ClientKey] }

// ConnectClientCert is the client certificate file path; defaults to
// ConnectClientKey when clientcert is unset but clientkey is set.
func (s *Settings) ConnectClientCert() string {
	if s.strs[ClientCert] != "" {
		return s.strs[ClientCert]
	}
	return s.strs[ClientKey]
}

// ConnectCertHashDigits is the lowercase, colon-stripped hex digest set by a
// successful Validate call.
func (s *Settings) ConnectCertHashDigits() string { return s.certHashDigits }

// ConnectBinary returns the maximum protocol binary level: MaxInt64 if
// binary is a true-ish boolean, 0 if false-ish, or the parsed integer
// otherwise.
func (s *Settings) ConnectBinary() int64 {
	v := s.strs[Binary]
	if v == "" {
		return 1<<63 - 1
	}
	if b, err := parseBool(v); err == nil {
		if b {
			return 1<<63 - 1
		}
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// LangIsSQL reports whether the configured language is the sql dialect.
func (s *Settings) LangIsSQL() bool { return s.langIsSQL }

// LangIsMAL reports whether the configured language is exactly mal or msql.
func (s *Settings) LangIsMAL() bool { return s.langIsMAL }

// ClearCore resets the positional (core) fields to their defaults prior to
// an absolute (non-cumulative) URL parse: "before parsing
// (non-merovingian), core fields are cleared so that parsing is absolute,
// not cumulative."
func (s *Settings) ClearCore() {
	d := defaults()
	s.bools[TLS] = d.bools[TLS]
	s.longs[Port] = d.longs[Port]
	s.strs[Host] = d.strs[Host]
	s.strs[Database] = d.strs[Database]
	s.strs[TableSchema] = d.strs[TableSchema]
	s.strs[Table] = d.strs[Table]
	s.validated = false
}
