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

package diag

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeSession struct {
	info SessionInfo
}

func (f *fakeSession) DiagSnapshot() SessionInfo { return f.info }

func TestHealthz(t *testing.T) {
	srv := New(":0", NewRegistry())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Fatalf("healthz body = %q, want ok", rec.Body.String())
	}
}

func TestDebugConnectionsListsRegisteredSessions(t *testing.T) {
	reg := NewRegistry()
	reg.Register("7", &fakeSession{info: SessionInfo{
		ID:               "7",
		MOTD:             "#monetdb v11",
		HandshakeOptions: 5,
		RowCacheRows:     42,
		Connected:        true,
	}})
	srv := New(":0", reg)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/connections", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("debug/connections = %d, want 200", rec.Code)
	}
	var got []SessionInfo
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].ID != "7" || got[0].HandshakeOptions != 5 || got[0].RowCacheRows != 42 {
		t.Fatalf("got %+v", got)
	}

	reg.Unregister("7")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/connections", nil))
	got = nil
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %+v after Unregister, want empty", got)
	}
}

func TestMetricsRouteServes(t *testing.T) {
	srv := New(":0", NewRegistry())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics = %d, want 200", rec.Code)
	}
}
