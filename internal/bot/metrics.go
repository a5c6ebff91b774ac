// metrics.go — Prometheus метрики команд чат-ботов.
package bot

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Nickto55/serverReport/internal/service"
)

// Значения лейбла result.
const (
	resultOK            = "ok"
	resultUsage         = "usage"
	resultNotRegistered = "not_registered"
	resultNotLinked     = "not_linked"
	resultNotFound      = "not_found"
	resultInvalid       = "invalid"
	resultError         = "error"
)

// botCommandsTotal — количество обработанных команд ботов.
var botCommandsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "sr_bot_commands_total",
		Help: "Количество команд чат-ботов по платформе, команде и результату",
	},
	[]string{"platform", "command", "result"},
)

func (c *Core) observe(command string, err error) {
	botCommandsTotal.WithLabelValues(c.platform, command, resultOf(err)).Inc()
}

// resultOf классифицирует ошибку команды для метрики.
func resultOf(err error) string {
	var usageErr *UsageError
	switch {
	case err == nil:
		return resultOK
	case errors.As(err, &usageErr):
		return resultUsage
	case errors.Is(err, service.ErrIntegrationNotFound):
		return resultNotRegistered
	case errors.Is(err, service.ErrNotLinked):
		return resultNotLinked
	case errors.Is(err, service.ErrNotFound):
		return resultNotFound
	case errors.Is(err, service.ErrValidation):
		return resultInvalid
	default:
		return resultError
	}
}
