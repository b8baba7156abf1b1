package campaign

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricSends = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campaign_sends_total",
		Help: "Envios de campanha por resultado (sent, retried, failed).",
	}, []string{"result"})

	metricActiveDispatchers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "campaign_dispatchers_active",
		Help: "Dispatchers de campanha em execução neste processo.",
	})

	metricQuotaDenials = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campaign_quota_denials_total",
		Help: "Negações de quota durante o disparo.",
	})
)
