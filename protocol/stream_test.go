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

package protocol

import (
	"bytes"
	"net"
	"testing"
	"time"
)

func TestBlockFramingRoundTrip(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	cs := NewConn(client)
	ss := NewConn(server)

	payload := []byte("hello mapi")
	done := make(chan error, 1)
	go func() {
		if _, err := cs.Write(payload); err != nil {
			done <- err
			return
		}
		done <- cs.Flush()
	}()

	got, err := ss.ReadBlock()
	if err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("write/flush: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("ReadBlock = %q, want %q", got, payload)
	}
}

func TestBlockFramingMultiFrame(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	cs := NewConn(client)
	ss := NewConn(server)

	payload := bytes.Repeat([]byte("x"), MaxBlockPayload+100)
	done := make(chan error, 1)
	go func() {
		if _, err := cs.Write(payload); err != nil {
			done <- err
			return
		}
		done <- cs.Flush()
	}()

	got, err := ss.ReadBlock()
	if err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("write/flush: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("ReadBlock length = %d, want %d", len(got), len(payload))
	}
}

func TestReadLineAcrossBlocks(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	cs := NewConn(client)
	ss := NewConn(server)

	done := make(chan error, 1)
	go func() {
		cs.Write([]byte("line one\nline two\n"))
		done <- cs.Flush()
	}()

	l1, err := ss.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if string(l1) != "line one\n" {
		t.Fatalf("ReadLine = %q", l1)
	}
	l2, err := ss.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if string(l2) != "line two\n" {
		t.Fatalf("ReadLine = %q", l2)
	}
	if err := <-done; err != nil {
		t.Fatalf("flush: %v", err)
	}
}

func TestSetTimeoutClearsDeadline(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	cs := NewConn(client)
	if err := cs.SetTimeout(10 * time.Millisecond); err != nil {
		t.Fatalf("SetTimeout: %v", err)
	}
	if err := cs.SetTimeout(0); err != nil {
		t.Fatalf("SetTimeout(0): %v", err)
	}
}
