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

// Package metrics is the Prometheus instrumentation layer: counters and
// histograms for connect attempts, handshake redirects, queries executed,
// and row-cache evictions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ConnectTotal counts connection attempts by transport kind (unix,
	// tcp, tls) and outcome (success, failure).
	ConnectTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapi",
		Name:      "connect_total",
		Help:      "Count of connection attempts by transport and outcome.",
	}, []string{"transport", "outcome"})

	// ConnectDuration observes wall-clock time spent in Connect, including
	// any socket scan, transport dial, and handshake round trips.
	ConnectDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mapi",
		Name:      "connect_duration_seconds",
		Help:      "Time spent establishing a session, end to end.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"outcome"})

	// HandshakeRedirectsTotal counts redirect rounds followed during login.
	HandshakeRedirectsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mapi",
		Name:      "handshake_redirects_total",
		Help:      "Count of redirect rounds followed during the login handshake.",
	})

	// QueriesTotal counts queries executed by language and query type.
	QueriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapi",
		Name:      "queries_total",
		Help:      "Count of queries executed, by language and result query type.",
	}, []string{"language", "querytype"})

	// RowCacheEvictionsTotal counts cache-line evictions triggered by
	// hitting rowlimit with cacheall disabled.
	RowCacheEvictionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mapi",
		Name:      "rowcache_evictions_total",
		Help:      "Count of row cache lines evicted to stay under rowlimit.",
	})
)

func init() {
	prometheus.MustRegister(
		ConnectTotal,
		ConnectDuration,
		HandshakeRedirectsTotal,
		QueriesTotal,
		RowCacheEvictionsTotal,
	)
}

// Handler returns the http.Handler serving the registered metrics in the
// Prometheus exposition format, wired onto /metrics by internal/diag.
func Handler() http.Handler {
	return promhttp.Handler()
}
