package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultOK     = "ok"
	resultFailed = "failed"
	resultStale  = "stale"
)

type metrics struct {
	uploads      *prometheus.CounterVec
	transactions prometheus.Counter
	vouchers     prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		uploads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stmt2tally",
			Name:      "uploads_total",
			Help:      "Statement uploads by result.",
		}, []string{"result"}),
		transactions: f.NewCounter(prometheus.CounterOpts{
			Namespace: "stmt2tally",
			Name:      "transactions_parsed_total",
			Help:      "Transactions parsed from committed uploads.",
		}),
		vouchers: f.NewCounter(prometheus.CounterOpts{
			Namespace: "stmt2tally",
			Name:      "vouchers_exported_total",
			Help:      "Vouchers written to generated Tally files.",
		}),
	}
}
