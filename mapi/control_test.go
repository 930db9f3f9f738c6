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

import (
	"net"
	"strings"
	"testing"

	"github.com/MonetDB/mapi-go/protocol"
)

func TestPingSendsSQLProbeAndCloses(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	sentCh := make(chan string, 2)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ss := protocol.NewConn(server)
		raw, err := ss.ReadBlock()
		if err != nil {
			t.Errorf("server read probe: %v", err)
			return
		}
		sentCh <- string(raw)
		ss.Write([]byte("&2 0 -1 0 0\n\x01\x01\n"))
		ss.Flush()
	}()

	sess := newTestSession(t, client, 0)
	if err := sess.Ping(); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	<-done
	sent := <-sentCh
	if !strings.Contains(sent, "select true;") {
		t.Fatalf("sent = %q, want select true; probe", sent)
	}
}

func TestSetAutocommitSendsControlCommand(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	sentCh := make(chan string, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ss := protocol.NewConn(server)
		raw, err := ss.ReadBlock()
		if err != nil {
			t.Errorf("server read: %v", err)
			return
		}
		sentCh <- string(raw)
		ss.Write([]byte("\x01\x01\n"))
		ss.Flush()
	}()

	sess := newTestSession(t, client, 0)
	if err := sess.SetAutocommit(false); err != nil {
		t.Fatalf("SetAutocommit: %v", err)
	}
	<-done
	sent := <-sentCh
	if strings.TrimRight(sent, "\n") != "Xauto_commit 0" {
		t.Fatalf("sent = %q, want Xauto_commit 0", sent)
	}
}

func TestBoolDigit(t *testing.T) {
	if boolDigit(true) != "1" || boolDigit(false) != "0" {
		t.Fatalf("boolDigit mismatched")
	}
}
