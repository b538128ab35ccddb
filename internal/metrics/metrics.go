package metrics

type Counter interface {
	Inc()
}

type Metrics struct {
	OrdersInserted  Counter
	OrdersCancelled Counter
	OwnFills        Counter
	HedgesSent      Counter
	HedgeFills      Counter
	OrderErrors     Counter
	EventsDropped   Counter
	Reconnects      Counter
}

type noopCounter struct{}

func (noopCounter) Inc() {}

func NewNoop() *Metrics {
	n := noopCounter{}
	return &Metrics{
		OrdersInserted:  n,
		OrdersCancelled: n,
		OwnFills:        n,
		HedgesSent:      n,
		HedgeFills:      n,
		OrderErrors:     n,
		EventsDropped:   n,
		Reconnects:      n,
	}
}
