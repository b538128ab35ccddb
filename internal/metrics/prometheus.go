package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const promNamespace = "etf_arb_bot"

type promCounter struct {
	counter prometheus.Counter
}

func (p promCounter) Inc() {
	p.counter.Inc()
}

type Prometheus struct {
	Metrics *Metrics

	registry *prometheus.Registry
}

func NewPrometheus() *Prometheus {
	registry := prometheus.NewRegistry()
	ordersInserted := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "orders_inserted_total",
		Help:      "Total number of order inserts sent to the venue.",
	})
	ordersCancelled := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "orders_cancelled_total",
		Help:      "Total number of order cancels sent to the venue.",
	})
	ownFills := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "own_fills_total",
		Help:      "Total number of own-order fill events.",
	})
	hedgesSent := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "hedges_sent_total",
		Help:      "Total number of hedge orders sent to the venue.",
	})
	hedgeFills := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "hedge_fills_total",
		Help:      "Total number of hedge fill events.",
	})
	orderErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "order_errors_total",
		Help:      "Total number of venue-reported order errors.",
	})
	eventsDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "events_dropped_total",
		Help:      "Total number of events or snapshots dropped on full queues.",
	})
	reconnects := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "gateway_reconnects_total",
		Help:      "Total number of gateway connection drops followed by a reconnect.",
	})

	registry.MustRegister(ordersInserted, ordersCancelled, ownFills, hedgesSent, hedgeFills, orderErrors, eventsDropped, reconnects)

	m := &Metrics{
		OrdersInserted:  promCounter{ordersInserted},
		OrdersCancelled: promCounter{ordersCancelled},
		OwnFills:        promCounter{ownFills},
		HedgesSent:      promCounter{hedgesSent},
		HedgeFills:      promCounter{hedgeFills},
		OrderErrors:     promCounter{orderErrors},
		EventsDropped:   promCounter{eventsDropped},
		Reconnects:      promCounter{reconnects},
	}

	return &Prometheus{Metrics: m, registry: registry}
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
