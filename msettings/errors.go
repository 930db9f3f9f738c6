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

// Package msettings implements the typed, validated connection-parameter
// store used throughout the client, along with the URL parser and
// serializer that translate it to and from the monetdb:// and mapi:
// connection string grammars.
package msettings

import "fmt"

// Kind identifies the broad category of an error without forcing callers
// into a type-switch hierarchy. The error types of this package implement
// Kind() string, as do the typed errors of the transport/handshake/session
// layers built on top of it; some errors from those layers are plain
// formatted errors without a Kind.
type Kind string

const (
	KindParse      Kind = "parse"
	KindValidation Kind = "validation"
	KindRedirect   Kind = "redirect"
)

// ParseError reports a malformed URL or an out-of-domain value passed to a
// setter.
type ParseError struct {
	Where  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("mapi: parse error in %s: %s", e.Where, e.Reason)
}

func (e *ParseError) Kind() string { return string(KindParse) }

// ValidationError reports a cross-field invariant violation discovered by
// Settings.Validate.
type ValidationError struct {
	Parameter string
	Reason    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("mapi: invalid %s: %s", e.Parameter, e.Reason)
}

func (e *ValidationError) Kind() string { return string(KindValidation) }

// RedirectError signals that a merovingian-proxy redirect attempted to
// change the credentials (user/password) carried by the settings it is
// reconnecting into, which the redirect contract forbids.
type RedirectError struct {
	URL    string
	Reason string
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("mapi: rejected redirect to %q: %s", e.URL, e.Reason)
}

func (e *RedirectError) Kind() string { return string(KindRedirect) }

func parseErrorf(where, format string, args ...interface{}) error {
	return &ParseError{Where: where, Reason: fmt.Sprintf(format, args...)}
}

func validationErrorf(parameter, format string, args ...interface{}) error {
	return &ValidationError{Parameter: parameter, Reason: fmt.Sprintf(format, args...)}
}
