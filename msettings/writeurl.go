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

import (
	"strconv"
	"strings"
)

// WriteURL renders s into its canonical monetdb://-or-monetdbs:// form.
// ParseURL(WriteURL(s)) reproduces every parameter of s, provided s
// currently validates, with one exception: an explicit port of 50000 is
// omitted like the default, so it reparses as the unset port -1.
func WriteURL(s *Settings) string {
	var b strings.Builder
	writeURL(s, &b)
	return b.String()
}

// WriteURLBuffer renders s the same way as WriteURL but truncation-safe,
// like C's snprintf: at most len(buf) bytes are written, buf is always
// NUL-terminated when len(buf) > 0, and the return value is the length that
// would have been written had buf been unbounded.
func WriteURLBuffer(s *Settings, buf []byte) int {
	full := WriteURL(s)
	n := copy(buf, full)
	if len(buf) > 0 {
		if n == len(buf) {
			n--
		}
		buf[n] = 0
	}
	return len(full)
}

func writeURL(s *Settings, b *strings.Builder) {
	if s.bools[TLS] {
		b.WriteString("monetdbs://")
	} else {
		b.WriteString("monetdb://")
	}

	host := s.strs[Host]
	switch host {
	case "":
		b.WriteString("localhost")
	case "localhost":
		b.WriteString("localhost.")
	default:
		if strings.ContainsRune(host, ':') {
			b.WriteByte('[')
			b.WriteString(host)
			b.WriteByte(']')
		} else {
			b.WriteString(percentEncodeHost(host))
		}
	}

	port := s.longs[Port]
	if port != -1 && port != defaultPort {
		b.WriteByte(':')
		b.WriteString(strconv.FormatInt(port, 10))
	}

	writePath(s, b)
	writeQuery(s, b)
}

func writePath(s *Settings, b *strings.Builder) {
	db := s.strs[Database]
	schema := s.strs[TableSchema]
	table := s.strs[Table]

	depth := 0
	if table != "" {
		depth = 3
	} else if schema != "" {
		depth = 2
	} else if db != "" {
		depth = 1
	}
	if depth == 0 {
		return
	}
	segs := []string{db, schema, table}[:depth]
	b.WriteByte('/')
	for i, seg := range segs {
		if i > 0 {
			b.WriteByte('/')
		}
		b.WriteString(percentEncodePathSegment(seg))
	}
}

func writeQuery(s *Settings, b *strings.Builder) {
	d := defaults()
	first := true
	emit := func(k, v string) {
		if first {
			b.WriteByte('?')
			first = false
		} else {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(percentEncodeQueryValue(v))
	}

	for _, e := range byName {
		if e.isCore() {
			continue
		}
		switch e.kind {
		case kindBool:
			if s.bools[e.boolIdx] != d.bools[e.boolIdx] {
				emit(e.name, strconv.FormatBool(s.bools[e.boolIdx]))
			}
		case kindLong:
			if s.longs[e.longIdx] != d.longs[e.longIdx] {
				emit(e.name, strconv.FormatInt(s.longs[e.longIdx], 10))
			}
		case kindString:
			if s.strs[e.strIdx] != d.strs[e.strIdx] {
				emit(e.name, s.strs[e.strIdx])
			}
		}
	}
}

const hexDigits = "0123456789ABCDEF"

func percentEncodeGeneric(s string, reserved func(byte) bool) string {
	needsEncoding := false
	for i := 0; i < len(s); i++ {
		if reserved(s[i]) {
			needsEncoding = true
			break
		}
	}
	if !needsEncoding {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if reserved(c) {
			b.WriteByte('%')
			b.WriteByte(hexDigits[c>>4])
			b.WriteByte(hexDigits[c&0xf])
		} else {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func percentEncodeHost(s string) string {
	return percentEncodeGeneric(s, func(c byte) bool {
		return c == '/' || c == '?' || c == '#' || c == '%' || c == ':' || c < 0x21 || c > 0x7e
	})
}

func percentEncodePathSegment(s string) string {
	return percentEncodeGeneric(s, func(c byte) bool {
		return c == '/' || c == '?' || c == '#' || c == '%' || c < 0x21 || c > 0x7e
	})
}

func percentEncodeQueryValue(s string) string {
	return percentEncodeGeneric(s, func(c byte) bool {
		return c == '&' || c == '=' || c == '#' || c == '%' || c < 0x21 || c > 0x7e
	})
}
