// Copyright 2025 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

package monitor

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/erigontech/accountkit/accountquery"
)

type metrics struct {
	accountStatus *prometheus.GaugeVec
	checks        *prometheus.CounterVec
	roundSeconds  prometheus.Histogram
}

func newMetrics(registerer prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		accountStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "accountkit_account_status",
			Help: "Integrity status of the last check per account, 1 is Ok",
		}, []string{"account"}),
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accountkit_checks_total",
			Help: "Account checks by resulting integrity status",
		}, []string{"status"}),
		roundSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "accountkit_check_round_seconds",
			Help:    "Duration of a full check round",
			Buckets: prometheus.DefBuckets,
		}),
	}

	for _, c := range []prometheus.Collector{m.accountStatus, m.checks, m.roundSeconds} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *metrics) observe(account common.Address, v accountquery.Verdict) {
	m.accountStatus.WithLabelValues(account.Hex()).Set(float64(v.Status))
	m.checks.WithLabelValues(v.Status.String()).Inc()
}

func (m *metrics) observeRound(start time.Time) {
	m.roundSeconds.Observe(time.Since(start).Seconds())
}
