package internal

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	Registrations prometheus.Counter
	Questions     prometheus.Counter
	Confirmations prometheus.Counter
	Emails        *prometheus.CounterVec // result=sent|failed|skipped
	Requests      *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ehd",
			Name:      "registrations_total",
			Help:      "Registrations accepted.",
		}),
		Questions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ehd",
			Name:      "questions_total",
			Help:      "Questions submitted.",
		}),
		Confirmations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ehd",
			Name:      "email_confirmations_total",
			Help:      "Registrations whose email was confirmed.",
		}),
		Emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ehd",
			Name:      "confirmation_emails_total",
			Help:      "Confirmation email attempts by result.",
		}, []string{"result"}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ehd",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status class.",
		}, []string{"method", "route", "class"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Registrations, m.Questions, m.Confirmations, m.Emails, m.Requests,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
