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

import "fmt"

// ServerError reports a `!...` error line received from the server,
// with the optional 5-character SQL state prefix split out.
type ServerError struct {
	SQLState string
	Message  string
}

func (e *ServerError) Error() string {
	if e.SQLState != "" {
		return fmt.Sprintf("mapi: server error [%s]: %s", e.SQLState, e.Message)
	}
	return fmt.Sprintf("mapi: server error: %s", e.Message)
}

func (e *ServerError) Kind() string { return "server" }

// Timeout reports a stream-level deadline exceeded during action.
type Timeout struct {
	Action string
}

func (e *Timeout) Error() string { return fmt.Sprintf("mapi: timeout during %s", e.Action) }

func (e *Timeout) Kind() string { return "timeout" }

// Closed reports an operation attempted on a handle or connection that is
// no longer connected.
type Closed struct{}

func (e *Closed) Error() string { return "mapi: operation on a disconnected handle" }

func (e *Closed) Kind() string { return "closed" }

func serverErrorf(sqlstate, message string) error {
	return &ServerError{SQLState: sqlstate, Message: message}
}

// sqlStatePrefix splits a leading "xxxxx!" SQL state off an error line's
// body of an `!` error line.
func sqlStatePrefix(body string) (state, rest string) {
	if len(body) >= 6 && body[5] == '!' {
		state = body[:5]
		allDigits := true
		for _, c := range state {
			if !(c >= '0' && c <= '9' || c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z') {
				allDigits = false
				break
			}
		}
		if allDigits {
			return state, body[6:]
		}
	}
	return "", body
}
