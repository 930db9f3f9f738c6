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

import "fmt"

// TracerImplementation selects which exporter SetTracer wires up.
type TracerImplementation int

const (
	StdoutTracerImplementation TracerImplementation = iota
	JaegerTracer
)

var tracerImplementationStrings = []string{
	"stdout",
	"jaeger",
}

// TracerImplementations maps the lowercase TOML `tracing.implementation`
// string to its TracerImplementation constant.
var TracerImplementations = map[string]TracerImplementation{
	tracerImplementationStrings[StdoutTracerImplementation]: StdoutTracerImplementation,
	tracerImplementationStrings[JaegerTracer]:               JaegerTracer,
}

func (t TracerImplementation) String() string {
	if t < StdoutTracerImplementation || t > JaegerTracer {
		return "unknown-tracer"
	}
	return tracerImplementationStrings[t]
}

// SetTracer installs the global trace provider for implementation t and
// returns a flush function the caller should invoke at shutdown.
func SetTracer(t TracerImplementation, collectorURL string) (func(), error) {
	switch t {
	case JaegerTracer:
		return setJaegerTracer(collectorURL)
	case StdoutTracerImplementation:
		return setStdOutTracer()
	default:
		return nil, fmt.Errorf("tracing: unknown implementation %v", t)
	}
}
