// Copyright 2025 The Smtstore Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package postgres

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PostgreSQL store driver metrics
var (
	mDbOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "smtstore",
		Subsystem: "postgres",
		Name:      "db_open",
		Help:      "Number of open stores",
	})
	mOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smtstore",
		Subsystem: "postgres",
		Name:      "operations_total",
		Help:      "Number of store operations, by operation",
	}, []string{"op"})
)
