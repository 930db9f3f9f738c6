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
	"strconv"
	"strings"
)

// QueryType classifies a result set by the second character of its `&`
// header line.
type QueryType int

const (
	QTable QueryType = iota + 1
	QUpdate
	QSchema
	QTrans
	QPrepare
	QBlock
)

// String renders the query type as a lowercase label, used by the
// metrics/diagnostics surface rather than the wire protocol itself.
func (t QueryType) String() string {
	switch t {
	case QTable:
		return "table"
	case QUpdate:
		return "update"
	case QSchema:
		return "schema"
	case QTrans:
		return "trans"
	case QPrepare:
		return "prepare"
	case QBlock:
		return "block"
	default:
		return "unknown"
	}
}

// Column holds one column's metadata, accumulated across `%...#name`,
// `%...#type`, `%...#length`, `%...#table_name`, and `%...#typesizes`
// header lines. Digits/scale are kept for the metadata API; the
// diagnostics surface does not report column metadata.
type Column struct {
	Name      string
	Type      string
	TableName string
	Length    int
	Digits    int
	Scale     int
}

// ResultSet is one typed response to one statement. A statement that
// produces multiple chained results links them via next.
type ResultSet struct {
	TableID   int64
	QueryType QueryType
	RowCount  int64 // total rows held by the server, across all pages
	FieldCnt  int
	LastID    int64

	QueryTime        int64
	MALOptimizerTime int64
	SQLOptimizerTime int64

	Columns []Column

	cache *rowCache

	handle *Handle // owning handle, set by Handle.appendResult

	sqlState string
	errorstr string

	closed bool
	next   *ResultSet
}

func newResultSet(rowLimit int64, cacheAll bool) *ResultSet {
	return &ResultSet{cache: newRowCache(rowLimit, cacheAll)}
}

// Next returns the chained result set that follows this one (for
// multi-statement queries), or nil if this is the last.
func (r *ResultSet) Next() *ResultSet { return r.next }

// Error returns the error attached to this specific result set by
// server-side `!` lines encountered while it was being parsed, or nil.
func (r *ResultSet) Error() error {
	if r.errorstr == "" {
		return nil
	}
	return serverErrorf(r.sqlState, r.errorstr)
}

// TupleCount reports how many rows are currently cached for this result.
func (r *ResultSet) TupleCount() int64 { return r.cache.tupleCount() }

// rowsFetched reports the absolute row number one past the last row
// currently cached (first + cached tuple count), used by the pagination
// check in Fetch.
func (r *ResultSet) rowsFetched() int64 {
	return r.cache.first + r.cache.tupleCount()
}

// parseHeaderLine parses one `&...` header line into a (possibly new)
// result set.
func parseHeaderLine(line string, current *ResultSet, rowLimit int64, cacheAll bool) (*ResultSet, error) {
	rest := strings.TrimPrefix(line, "&")
	qtNum, rest := leadingInt(rest)
	rest = strings.TrimPrefix(rest, " ")

	qt := QueryType(qtNum)
	result := current
	if result == nil || qt != QBlock {
		result = newResultSet(rowLimit, cacheAll)
	}
	result.QueryType = qt

	fields := strings.Fields(rest)
	atoi := func(i int) int64 {
		if i >= len(fields) {
			return 0
		}
		n, _ := strconv.ParseInt(fields[i], 10, 64)
		return n
	}

	switch qt {
	case QSchema:
		result.QueryTime = atoi(0)
		result.MALOptimizerTime = atoi(1)
		result.SQLOptimizerTime = atoi(2)
	case QTrans:
		// auto_commit state toggle; surfaced to the session, not stored here.
	case QUpdate:
		result.RowCount = atoi(0)
		result.LastID = atoi(1)
		result.QueryTime = atoi(3)
		result.MALOptimizerTime = atoi(4)
		result.SQLOptimizerTime = atoi(5)
	case QTable:
		if len(fields) >= 4 {
			result.TableID, _ = strconv.ParseInt(fields[0], 10, 64)
			result.RowCount = atoi(1)
			n, _ := strconv.Atoi(fields[2])
			result.FieldCnt = n
		}
		if len(fields) >= 8 {
			result.QueryTime = atoi(5)
			result.MALOptimizerTime = atoi(6)
			result.SQLOptimizerTime = atoi(7)
		}
	case QPrepare:
		if len(fields) >= 4 {
			result.TableID, _ = strconv.ParseInt(fields[0], 10, 64)
			result.RowCount = atoi(1)
			n, _ := strconv.Atoi(fields[2])
			result.FieldCnt = n
		}
	case QBlock:
		result.QueryType = QTable
	}

	if result.FieldCnt > len(result.Columns) {
		grown := make([]Column, result.FieldCnt)
		copy(grown, result.Columns)
		result.Columns = grown
	}

	return result, nil
}

func leadingInt(s string) (int64, string) {
	i := 0
	for i < len(s) && (s[i] == '-' || (s[i] >= '0' && s[i] <= '9')) {
		i++
	}
	n, _ := strconv.ParseInt(s[:i], 10, 64)
	return n, s[i:]
}

// parseColumnLine parses one `%...#name|type|length|table_name|typesizes`
// metadata line, updating the matching per-column field.
func parseColumnLine(result *ResultSet, line string) {
	body := strings.TrimPrefix(line, "%")
	hash := strings.LastIndexByte(body, '#')
	if hash < 0 {
		return
	}
	values := strings.Split(body[:hash], ",")
	tag := strings.TrimSpace(body[hash+1:])

	if len(values) > result.FieldCnt {
		result.FieldCnt = len(values)
	}
	if result.FieldCnt > len(result.Columns) {
		grown := make([]Column, result.FieldCnt)
		copy(grown, result.Columns)
		result.Columns = grown
	}

	switch tag {
	case "name":
		for i, v := range values {
			result.Columns[i].Name = strings.TrimSpace(v)
		}
	case "type":
		for i, v := range values {
			result.Columns[i].Type = strings.TrimSpace(v)
		}
	case "length":
		for i, v := range values {
			n, _ := strconv.Atoi(strings.TrimSpace(v))
			result.Columns[i].Length = n
		}
	case "table_name":
		for i, v := range values {
			result.Columns[i].TableName = strings.TrimSpace(v)
		}
	case "typesizes":
		for i, v := range values {
			v = strings.TrimSpace(v)
			digits, scale := v, ""
			if sp := strings.IndexByte(v, ' '); sp >= 0 {
				digits, scale = v[:sp], v[sp+1:]
			}
			d, _ := strconv.Atoi(digits)
			s, _ := strconv.Atoi(scale)
			result.Columns[i].Digits = d
			result.Columns[i].Scale = s
		}
	}
}
