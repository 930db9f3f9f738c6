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
	"testing"
	"time"
)

func TestUnquoteTupleBareAndQuotedFields(t *testing.T) {
	fields := unquoteTuple(`[ 1,	"hello, world",	NULL	]`)
	want := []string{"1", "hello, world", "NULL"}
	if len(fields) != len(want) {
		t.Fatalf("fields = %v, want %v", fields, want)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Fatalf("fields[%d] = %q, want %q", i, fields[i], want[i])
		}
	}
}

func TestUnquoteFieldEscapes(t *testing.T) {
	decoded, next := unquoteField(`"a\nb\tc\101"`, 0)
	if decoded != "a\nb\tcA" {
		t.Fatalf("decoded = %q, want %q", decoded, "a\nb\tcA")
	}
	if next != len(`"a\nb\tc\101"`) {
		t.Fatalf("next = %d, want %d", next, len(`"a\nb\tc\101"`))
	}
}

func TestIsNilPerLanguage(t *testing.T) {
	if !IsNil("NULL", false) {
		t.Fatalf("IsNil(NULL, sql) = false, want true")
	}
	if IsNil("nil", false) {
		t.Fatalf("IsNil(nil, sql) = true, want false")
	}
	if !IsNil("nil", true) {
		t.Fatalf("IsNil(nil, mal) = false, want true")
	}
}

func TestQuoteParamString(t *testing.T) {
	q, err := QuoteParam(Param{Kind: ParamString, Value: "a'b\"c\nd"})
	if err != nil {
		t.Fatalf("QuoteParam: %v", err)
	}
	want := `'a\'b\"c\nd'`
	if q != want {
		t.Fatalf("QuoteParam = %q, want %q", q, want)
	}
}

func TestQuoteParamInt(t *testing.T) {
	q, err := QuoteParam(Param{Kind: ParamInt, Value: int64(42)})
	if err != nil || q != "42" {
		t.Fatalf("QuoteParam = %q, %v", q, err)
	}
}

func TestQuoteParamDate(t *testing.T) {
	d := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	q, err := QuoteParam(Param{Kind: ParamDate, Value: d})
	if err != nil || q != "DATE '2024-03-05'" {
		t.Fatalf("QuoteParam = %q, %v", q, err)
	}
}

func TestQuoteParamWrongType(t *testing.T) {
	if _, err := QuoteParam(Param{Kind: ParamInt, Value: "nope"}); err == nil {
		t.Fatalf("expected error for wrong value type")
	}
}

func TestSubstituteParams(t *testing.T) {
	got, err := SubstituteParams("select * from t where a = ? and b = ?", '?', []Param{
		{Kind: ParamInt, Value: int64(1)},
		{Kind: ParamString, Value: "x"},
	})
	if err != nil {
		t.Fatalf("SubstituteParams: %v", err)
	}
	want := "select * from t where a = 1 and b = 'x'"
	if got != want {
		t.Fatalf("SubstituteParams = %q, want %q", got, want)
	}
}

func TestSubstituteParamsEscapedPlaceholder(t *testing.T) {
	got, err := SubstituteParams(`literal \? mark`, '?', nil)
	if err != nil {
		t.Fatalf("SubstituteParams: %v", err)
	}
	if got != "literal ? mark" {
		t.Fatalf("SubstituteParams = %q, want literal ? mark", got)
	}
}

func TestSubstituteParamsTooFewParams(t *testing.T) {
	if _, err := SubstituteParams("?", '?', nil); err == nil {
		t.Fatalf("expected error for missing bound parameter")
	}
}
