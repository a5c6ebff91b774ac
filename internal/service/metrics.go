// metrics.go — доменные Prometheus-метрики сервисного слоя.
package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// reportsCreatedTotal — количество созданных отчётов по источнику.
	reportsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sr_reports_created_total",
			Help: "Количество созданных отчётов",
		},
		[]string{"source"},
	)

	// integrationsCreatedTotal — количество новых интеграций по платформе.
	integrationsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sr_integrations_created_total",
			Help: "Количество зарегистрированных интеграций",
		},
		[]string{"platform"},
	)
)
