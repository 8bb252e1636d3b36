// Package metrics регистрирует счётчики prometheus для наблюдения за
// реферальной программой. Отдаются служебным http-сервером на /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RegistrationsSubmitted количество отправленных заявок на регистрацию.
var RegistrationsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
	Name: "referral_bot_registrations_submitted_total",
	Help: "Total registration submissions written to the store",
})

// Decisions количество решений администратора по заявкам.
var Decisions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "referral_bot_admin_decisions_total",
	Help: "Total admin decisions by outcome",
}, []string{"decision"})

// NotificationsFailed количество неудачных отправок уведомлений участникам.
var NotificationsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "referral_bot_notifications_failed_total",
	Help: "Total failed outbound notifications by kind",
}, []string{"kind"})
