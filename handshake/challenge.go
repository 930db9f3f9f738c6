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

import (
	"strconv"
	"strings"
)

// Challenge is the parsed form of the first block the server sends:
//
//	salt:servertype:protover:hashlist:endian:serverhash[:opts[:extras...]]
type Challenge struct {
	Salt         string
	ServerType   string
	ProtoVer     int
	HashList     string
	BigEndian    bool
	ServerHash   string
	Options      int  // handshake_options level; 0 if absent
	HasOptions   bool // whether an opts field was present at all
	OOBInterrupt bool
}

// ParseChallenge parses a raw challenge line (without its trailing
// newline/block framing). Only protover == 9 is supported; any
// other value is a fatal ProtocolError.
func ParseChallenge(line string) (*Challenge, error) {
	line = strings.TrimRight(line, "\r\n")
	fields := strings.Split(line, ":")
	if len(fields) < 6 {
		return nil, protocolErrorf("challenge with at least 6 fields", line)
	}

	c := &Challenge{
		Salt:       fields[0],
		ServerType: fields[1],
		HashList:   fields[3],
		ServerHash: fields[5],
	}

	pv, err := strconv.Atoi(fields[2])
	if err != nil {
		return nil, protocolErrorf("numeric protover", fields[2])
	}
	c.ProtoVer = pv
	if pv != 9 {
		return nil, protocolErrorf("protocol version 9", fields[2])
	}

	switch fields[4] {
	case "BIG":
		c.BigEndian = true
	case "LIT":
		c.BigEndian = false
	default:
		return nil, protocolErrorf(`endian field "BIG" or "LIT"`, fields[4])
	}

	for _, extra := range fields[6:] {
		if extra == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(extra, "sql="); ok {
			if n, err := strconv.Atoi(rest); err == nil {
				c.Options = n
				c.HasOptions = true
			}
			continue
		}
		if extra == "OOBINTR=1" {
			c.OOBInterrupt = true
		}
	}

	return c, nil
}
