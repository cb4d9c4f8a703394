// Copyright 2026 The SurfStore authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metadata

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instrumentation shared by a replica's RPC
// handlers and its background catch-up loop. This is pure observability:
// nothing here feeds back into the write path's decisions.
type Metrics struct {
	writesByResult  *prometheus.CounterVec
	prepareRounds   prometheus.Counter
	catchupAttempts prometheus.Counter
	catchupSuccess  prometheus.Counter
	crashedPeers    prometheus.Gauge
}

// NewMetrics registers SurfStore's metadata-store metrics against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		writesByResult: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "surfstore_metadata_writes_total",
			Help: "Count of ModifyFile/DeleteFile calls by result code.",
		}, []string{"result"}),
		prepareRounds: factory.NewCounter(prometheus.CounterOpts{
			Name: "surfstore_metadata_prepare_rounds_total",
			Help: "Count of 2PC prepare-phase rounds attempted, including retries after a lost majority.",
		}),
		catchupAttempts: factory.NewCounter(prometheus.CounterOpts{
			Name: "surfstore_metadata_catchup_attempts_total",
			Help: "Count of Update pushes sent to crashed-believed followers.",
		}),
		catchupSuccess: factory.NewCounter(prometheus.CounterOpts{
			Name: "surfstore_metadata_catchup_success_total",
			Help: "Count of Update pushes that were acknowledged.",
		}),
		crashedPeers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "surfstore_metadata_crashed_followers",
			Help: "Current size of the leader's crashedFollowers set.",
		}),
	}
}
