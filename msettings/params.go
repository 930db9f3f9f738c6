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

// BoolParam enumerates the boolean-valued connection parameters.
type BoolParam int

const (
	TLS BoolParam = iota
	Autocommit
	ClientInfo
	numBoolParams
)

// LongParam enumerates the integer-valued connection parameters.
type LongParam int

const (
	Port LongParam = iota
	Timezone
	ReplySize
	MapToLongVarchar
	ConnectTimeout
	ReplyTimeout
	numLongParams
)

// StringParam enumerates the string-valued connection parameters.
type StringParam int

const (
	Sock StringParam = iota
	Sockdir
	Cert
	ClientKey
	ClientCert
	Host
	Database
	TableSchema
	Table
	CertHash
	User
	Password
	Language
	Schema
	Binary
	LogFile
	ClientApplication
	ClientRemark
	numStringParams
)

// core identifies the parameters that are positional in a URL (the
// authority/path components) rather than query-string parameters; set_named
// rejects these unless allowCore is set.
var coreBoolParams = map[BoolParam]bool{TLS: true}
var coreLongParams = map[LongParam]bool{Port: true}
var coreStringParams = map[StringParam]bool{Host: true, Database: true, TableSchema: true, Table: true}

type paramEntry struct {
	name    string
	kind    paramKind
	boolIdx BoolParam
	longIdx LongParam
	strIdx  StringParam
}

type paramKind int

const (
	kindBool paramKind = iota
	kindLong
	kindString
)

// byName is the canonical-name registry consulted by set_named/get_named; it
// also backs mparm_enumerate, which fixes the query-parameter order used by
// WriteURL.
var byName []paramEntry

// aliases maps alternate spellings accepted by set_named onto a canonical
// name. "hash" and "debug" map to the empty string, meaning "accepted but
// silently ignored".
var aliases = map[string]string{
	"fetchsize": "replysize",
	"hash":      "",
	"debug":     "",
}

func init() {
	byName = []paramEntry{
		{name: "tls", kind: kindBool, boolIdx: TLS},
		{name: "host", kind: kindString, strIdx: Host},
		{name: "port", kind: kindLong, longIdx: Port},
		{name: "database", kind: kindString, strIdx: Database},
		{name: "tableschema", kind: kindString, strIdx: TableSchema},
		{name: "table", kind: kindString, strIdx: Table},
		{name: "sock", kind: kindString, strIdx: Sock},
		{name: "sockdir", kind: kindString, strIdx: Sockdir},
		{name: "cert", kind: kindString, strIdx: Cert},
		{name: "certhash", kind: kindString, strIdx: CertHash},
		{name: "clientkey", kind: kindString, strIdx: ClientKey},
		{name: "clientcert", kind: kindString, strIdx: ClientCert},
		{name: "user", kind: kindString, strIdx: User},
		{name: "password", kind: kindString, strIdx: Password},
		{name: "language", kind: kindString, strIdx: Language},
		{name: "schema", kind: kindString, strIdx: Schema},
		{name: "binary", kind: kindString, strIdx: Binary},
		{name: "autocommit", kind: kindBool, boolIdx: Autocommit},
		{name: "client_info", kind: kindBool, boolIdx: ClientInfo},
		{name: "timezone", kind: kindLong, longIdx: Timezone},
		{name: "replysize", kind: kindLong, longIdx: ReplySize},
		{name: "map_to_long_varchar", kind: kindLong, longIdx: MapToLongVarchar},
		{name: "connect_timeout", kind: kindLong, longIdx: ConnectTimeout},
		{name: "reply_timeout", kind: kindLong, longIdx: ReplyTimeout},
		{name: "logfile", kind: kindString, strIdx: LogFile},
		{name: "client_application", kind: kindString, strIdx: ClientApplication},
		{name: "client_remark", kind: kindString, strIdx: ClientRemark},
	}
}

func lookupName(name string) (paramEntry, bool) {
	if canonical, ok := aliases[name]; ok {
		if canonical == "" {
			return paramEntry{}, false
		}
		name = canonical
	}
	for _, e := range byName {
		if e.name == name {
			return e, true
		}
	}
	return paramEntry{}, false
}

func (e paramEntry) isCore() bool {
	switch e.kind {
	case kindBool:
		return coreBoolParams[e.boolIdx]
	case kindLong:
		return coreLongParams[e.longIdx]
	case kindString:
		return coreStringParams[e.strIdx]
	}
	return false
}
