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

package tracing

import (
	"context"
	"testing"
)

func TestSetTracerStdoutAndStartSpan(t *testing.T) {
	flush, err := SetTracer(StdoutTracerImplementation, "")
	if err != nil {
		t.Fatalf("SetTracer: %v", err)
	}
	defer flush()

	ctx, span := StartSpan(context.Background(), SpanConnect)
	if span == nil {
		t.Fatal("StartSpan returned a nil span")
	}
	span.End()
	if ctx == nil {
		t.Fatal("StartSpan returned a nil context")
	}
}

func TestTracerImplementationString(t *testing.T) {
	for name, impl := range TracerImplementations {
		if impl.String() != name {
			t.Errorf("TracerImplementation(%d).String() = %q, want %q", impl, impl.String(), name)
		}
	}
}
