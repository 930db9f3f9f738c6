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

// Package transport selects and establishes the underlying socket for a
// MAPI connection: Unix-domain socket discovery and connect, TCP connect
// with self-connection detection, and TLS wrapping with the four
// certificate verification policies named by msettings.TLSVerify.
package transport

import "fmt"

// ConnectError reports an OS-level socket, DNS, or TLS failure.
type ConnectError struct {
	Stage     string
	OSMessage string
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("mapi: connect failed at %s: %s", e.Stage, e.OSMessage)
}

func (e *ConnectError) Kind() string { return "connect" }

func connectErrorf(stage string, err error) error {
	return &ConnectError{Stage: stage, OSMessage: err.Error()}
}
