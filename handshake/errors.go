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

import "fmt"

// ProtocolError reports a malformed or unsupported server message:
// an unsupported protocol version, a truncated challenge, or a reply that
// would overflow the block buffer.
type ProtocolError struct {
	Expected string
	Got      string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("mapi: protocol error: expected %s, got %s", e.Expected, e.Got)
}

func (e *ProtocolError) Kind() string { return "protocol" }

// AuthError reports an unsupported digest, missing credentials, or a
// server-side login rejection.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string { return fmt.Sprintf("mapi: auth error: %s", e.Reason) }

func (e *AuthError) Kind() string { return "auth" }

// Redirect is the internal signal returned by Login when the welcome result
// carried a `^...` redirect target that is not a same-socket merovingian
// restart: the caller must close the socket, reconnect using RedirectURL,
// and perform a fresh handshake.
type Redirect struct {
	RedirectURL string
}

func (e *Redirect) Error() string { return fmt.Sprintf("mapi: redirected to %s", e.RedirectURL) }

func (e *Redirect) Kind() string { return "redirect" }

func protocolErrorf(expected, got string) error {
	return &ProtocolError{Expected: expected, Got: got}
}

func authErrorf(format string, args ...interface{}) error {
	return &AuthError{Reason: fmt.Sprintf(format, args...)}
}
