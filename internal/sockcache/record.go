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

package sockcache

import (
	"fmt"

	"github.com/tinylib/msgp/msgp"
)

// Record is the unit of endpoint memory: the last connection candidate
// that worked for a logical (sockdir, database) or (host, database) key.
// Marshal/Unmarshal are hand-written in the msgp generated-code idiom
// (no code generator is run against this type) so Records can be stored
// compactly in any of the byte-oriented backends.
type Record struct {
	CandidateSock string
	CandidateHost string
	CandidatePort int
	LastGoodTLS   bool
	RecordedAt    int64
}

// MarshalMsg appends the msgpack encoding of r to b, following the same
// field-by-field array encoding tinylib/msgp generates for a struct.
func (r *Record) MarshalMsg(b []byte) ([]byte, error) {
	o := msgp.AppendArrayHeader(b, 5)
	o = msgp.AppendString(o, r.CandidateSock)
	o = msgp.AppendString(o, r.CandidateHost)
	o = msgp.AppendInt(o, r.CandidatePort)
	o = msgp.AppendBool(o, r.LastGoodTLS)
	o = msgp.AppendInt64(o, r.RecordedAt)
	return o, nil
}

// UnmarshalMsg decodes r from the msgpack encoding produced by MarshalMsg,
// returning any trailing unread bytes.
func (r *Record) UnmarshalMsg(bts []byte) ([]byte, error) {
	sz, bts, err := msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return nil, err
	}
	if sz != 5 {
		return nil, fmt.Errorf("sockcache: Record array has %d fields, want 5", sz)
	}
	if r.CandidateSock, bts, err = msgp.ReadStringBytes(bts); err != nil {
		return nil, err
	}
	if r.CandidateHost, bts, err = msgp.ReadStringBytes(bts); err != nil {
		return nil, err
	}
	if r.CandidatePort, bts, err = msgp.ReadIntBytes(bts); err != nil {
		return nil, err
	}
	if r.LastGoodTLS, bts, err = msgp.ReadBoolBytes(bts); err != nil {
		return nil, err
	}
	if r.RecordedAt, bts, err = msgp.ReadInt64Bytes(bts); err != nil {
		return nil, err
	}
	return bts, nil
}

// Msgsize returns an upper bound on the encoded size of r, matching the
// signature tinylib/msgp generates alongside Marshal/Unmarshal.
func (r *Record) Msgsize() int {
	return 1 + msgp.StringPrefixSize + len(r.CandidateSock) +
		msgp.StringPrefixSize + len(r.CandidateHost) +
		msgp.IntSize + msgp.BoolSize + msgp.Int64Size
}
