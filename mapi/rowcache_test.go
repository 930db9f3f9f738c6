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

import "testing"

func TestRowCacheAppendAndFetch(t *testing.T) {
	c := newRowCache(0, true)
	c.appendTuple("[ 1,\t\"a\"\t]", 0)
	c.appendTuple("[ 2,\t\"b\"\t]", 1)

	if n := c.tupleCount(); n != 2 {
		t.Fatalf("tupleCount = %d, want 2", n)
	}
	raw, ok := c.nextTuple()
	if !ok || raw != "[ 1,\t\"a\"\t]" {
		t.Fatalf("nextTuple = %q, %v", raw, ok)
	}
	raw, ok = c.nextTuple()
	if !ok || raw != "[ 2,\t\"b\"\t]" {
		t.Fatalf("nextTuple = %q, %v", raw, ok)
	}
	if _, ok := c.nextTuple(); ok {
		t.Fatalf("nextTuple should be exhausted")
	}
}

func TestRowCacheEvictionRespectsLimit(t *testing.T) {
	c := newRowCache(2, false)
	c.appendTuple("[1]", 0)
	c.appendTuple("[2]", 1)
	c.nextTuple() // consume row 0, advancing reader

	c.appendTuple("[3]", 2)
	if c.first != 1 {
		t.Fatalf("first = %d, want 1 after eviction", c.first)
	}
	if n := c.tupleCount(); n != 2 {
		t.Fatalf("tupleCount = %d, want 2 after eviction", n)
	}
}

func TestRowCacheSeekRow(t *testing.T) {
	c := newRowCache(0, true)
	for i := 0; i < 5; i++ {
		c.appendTuple("[row]", int64(i))
	}
	if !c.seekRow(3) {
		t.Fatalf("seekRow(3) = false, want true")
	}
	raw, ok := c.nextTuple()
	if !ok {
		t.Fatalf("nextTuple after seek should succeed")
	}
	_ = raw
	if c.seekRow(10) {
		t.Fatalf("seekRow(10) = true, want false (out of cached range)")
	}
}

func TestRowCacheResetRetags(t *testing.T) {
	c := newRowCache(0, true)
	c.appendTuple("[1]", 0)
	c.reset(42)
	if c.first != 42 {
		t.Fatalf("first = %d, want 42", c.first)
	}
	if c.tupleCount() != 0 {
		t.Fatalf("tupleCount after reset = %d, want 0", c.tupleCount())
	}
}

func TestRowCacheGrowsGeometrically(t *testing.T) {
	c := newRowCache(0, true)
	for i := 0; i < initialCacheCap+1; i++ {
		c.appendTuple("[x]", int64(i))
	}
	if cap(c.lines) < initialCacheCap+1 {
		t.Fatalf("cap = %d, want growth past initial %d", cap(c.lines), initialCacheCap)
	}
}

func TestRowCacheFieldsAtLazySlicing(t *testing.T) {
	c := newRowCache(0, true)
	c.appendTuple(`[ 1,	"hi"	]`, 0)
	fields := c.fieldsAt(0)
	if len(fields) != 2 || fields[0] != "1" || fields[1] != "hi" {
		t.Fatalf("fieldsAt = %v", fields)
	}
	if !c.lines[0].sliced {
		t.Fatalf("sliced flag not set after fieldsAt")
	}
}
