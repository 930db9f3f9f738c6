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

import "github.com/MonetDB/mapi-go/internal/metrics"

// cacheLine is one row of the row cache: the raw line text as received
// (still comma-quoted) and its lazily sliced fields, populated on first
// access.
type cacheLine struct {
	raw      string
	fields   []string // lazily populated by slice()
	sliced   bool
	tupleRev int64 // tuple number this line represents, or cache.tupleCount if it is a header/footer
	isTuple  bool
}

// rowCache is a resizable array of cache lines with a bidirectional
// read/write cursor pair, growing geometrically and capped by rowLimit.
type rowCache struct {
	lines    []cacheLine
	writer   int   // append cursor: len(lines) in use
	reader   int   // read cursor; -1 before first fetch
	first    int64 // absolute row number of the first cached tuple
	rowLimit int64
	cacheAll bool
}

const (
	initialCacheCap  = 100
	geometricCapStep = 200000
)

func newRowCache(rowLimit int64, cacheAll bool) *rowCache {
	return &rowCache{reader: -1, rowLimit: rowLimit, cacheAll: cacheAll}
}

// grow doubles capacity up to geometricCapStep tuples, then grows
// linearly.
func (c *rowCache) grow(need int) {
	if cap(c.lines)-len(c.lines) >= need {
		return
	}
	newCap := cap(c.lines)
	if newCap == 0 {
		newCap = initialCacheCap
	}
	for newCap < len(c.lines)+need {
		if newCap < geometricCapStep {
			newCap *= 2
		} else {
			newCap += geometricCapStep
		}
	}
	grown := make([]cacheLine, len(c.lines), newCap)
	copy(grown, c.lines)
	c.lines = grown
}

// appendTuple appends one data-line tuple to the cache, evicting the oldest
// entries first if rowLimit would be exceeded and cacheAll is false.
func (c *rowCache) appendTuple(raw string, tupleRev int64) {
	if !c.cacheAll && c.rowLimit > 0 && int64(c.writer) >= c.rowLimit {
		c.evictOldest()
	}
	c.grow(1)
	line := cacheLine{raw: raw, tupleRev: tupleRev, isTuple: true}
	if c.writer < len(c.lines) {
		c.lines[c.writer] = line
	} else {
		c.lines = append(c.lines, line)
	}
	c.writer++
}

// evictOldest drops the already-read prefix (indices [0, reader]) and
// compacts the rest forward.
func (c *rowCache) evictOldest() {
	drop := c.reader + 1
	if drop <= 0 {
		return
	}
	if drop > c.writer {
		drop = c.writer
	}
	metrics.RowCacheEvictionsTotal.Add(float64(drop))
	copy(c.lines, c.lines[drop:c.writer])
	c.writer -= drop
	c.reader -= drop
	if c.reader < -1 {
		c.reader = -1
	}
	c.first += int64(drop)
}

// reset clears the cache entirely and retags the next fetch with a new
// first value.
func (c *rowCache) reset(newFirst int64) {
	c.lines = c.lines[:0]
	c.writer = 0
	c.reader = -1
	c.first = newFirst
}

// seekRow repositions the read cursor to target (an absolute row number).
// It reports whether target is currently held in the cache; if not, the
// caller must reset and re-fetch starting at target.
func (c *rowCache) seekRow(target int64) bool {
	if target < c.first || target >= c.first+int64(c.writer) {
		return false
	}
	c.reader = int(target-c.first) - 1
	return true
}

// nextTuple advances the read cursor and returns the raw line text of the
// next cached tuple, or ok=false if the cache is exhausted.
func (c *rowCache) nextTuple() (raw string, ok bool) {
	for c.reader+1 < c.writer {
		c.reader++
		if c.lines[c.reader].isTuple {
			return c.lines[c.reader].raw, true
		}
	}
	return "", false
}

// tupleCount reports how many tuple lines (as opposed to header/footer
// lines) are currently cached.
func (c *rowCache) tupleCount() int64 {
	var n int64
	for i := 0; i < c.writer; i++ {
		if c.lines[i].isTuple {
			n++
		}
	}
	return n
}

// fieldsAt returns the de-escaped fields of the tuple at cache index i,
// slicing and unquoting lazily on first access.
func (c *rowCache) fieldsAt(i int) []string {
	line := &c.lines[i]
	if !line.sliced {
		line.fields = unquoteTuple(line.raw)
		line.sliced = true
	}
	return line.fields
}

// currentFields returns the fields of the tuple the read cursor currently
// sits on.
func (c *rowCache) currentFields() []string {
	if c.reader < 0 || c.reader >= c.writer {
		return nil
	}
	return c.fieldsAt(c.reader)
}
