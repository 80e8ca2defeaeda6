// Copyright 2025 Vendora
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tenantdb

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	cacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vendora_tenantdb_cache_hits_total",
		Help: "Requests served by an already-cached tenant connection",
	})
	cacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vendora_tenantdb_cache_misses_total",
		Help: "Requests that started a new connection establishment",
	})
	coalescedWaits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vendora_tenantdb_coalesced_waits_total",
		Help: "Requests that waited on another caller's in-flight establishment",
	})
	connectFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vendora_tenantdb_connect_failures_total",
		Help: "Failed tenant connection establishments",
	})
	evictions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vendora_tenantdb_evictions_total",
		Help: "Tenant connections evicted from the cache",
	})
	connectDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "vendora_tenantdb_connect_duration_seconds",
		Help:    "Tenant connection establishment latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(cacheHits, cacheMisses, coalescedWaits,
		connectFailures, evictions, connectDuration)
}
