package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the counters exported by the backend.
type Metrics struct {
	registry *prometheus.Registry

	DonationsCreated  prometheus.Counter
	PaymentsVerified  prometheus.Counter
	PaymentsRejected  prometheus.Counter
	ReceiptsGenerated prometheus.Counter
	ReceiptsFailed    prometheus.Counter
	EmailsSent        prometheus.Counter
	EmailsFailed      prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		DonationsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "donations_created_total",
			Help: "Donation orders registered with the payment gateway.",
		}),
		PaymentsVerified: factory.NewCounter(prometheus.CounterOpts{
			Name: "payments_verified_total",
			Help: "Payments whose gateway signature verified successfully.",
		}),
		PaymentsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "payments_rejected_total",
			Help: "Payments rejected for an invalid gateway signature.",
		}),
		ReceiptsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Name: "receipts_generated_total",
			Help: "Receipt PDFs generated and stored.",
		}),
		ReceiptsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "receipts_failed_total",
			Help: "Receipt pipeline runs that failed.",
		}),
		EmailsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "receipt_emails_sent_total",
			Help: "Receipt emails accepted by the mail provider.",
		}),
		EmailsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "receipt_emails_failed_total",
			Help: "Receipt emails the mail provider rejected.",
		}),
	}
}

// Handler exposes the registry for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
