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

// Package tracing is the OpenTelemetry instrumentation layer: a
// TracerImplementation enum, a SetTracer switchboard for the configured
// exporter, and spans around the MAPI lifecycle stages (Connect,
// Handshake, Query, FetchPage).
package tracing

import (
	"context"

	"go.opentelemetry.io/otel/api/global"
	"go.opentelemetry.io/otel/api/trace"
)

// ServiceName identifies this library's spans to whichever collector is
// configured.
const ServiceName = "mapi-go"

// Span lifecycle stage names. SpanConnect and SpanHandshake are started in
// mapi/connect.go and SpanQuery in mapi/session.go; no code currently
// starts a SpanFetchPage span.
const (
	SpanConnect   = "Connect"
	SpanHandshake = "Handshake"
	SpanQuery     = "Query"
	SpanFetchPage = "FetchPage"
)

// StartSpan starts a span named name as a child of any span already present
// in ctx, using the globally configured trace provider. Callers should
// defer span.End().
func StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	tr := global.TraceProvider().Tracer(ServiceName)
	return tr.Start(ctx, name)
}
