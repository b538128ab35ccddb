package venue

import (
	"context"

	"etf-arb-bot/internal/metrics"
	"etf-arb-bot/internal/orders"

	"go.uber.org/zap"
)

// Transport writes encoded frames to the gateway.
type Transport interface {
	Send(ctx context.Context, frame []byte) error
}

// Sender implements the engine's outbound gateway. Actions are encoded and
// queued in FIFO order so the ordering of actions within one handler
// invocation survives onto the wire; a writer goroutine drains the queue.
// Transport failures are logged and otherwise ignored: the venue reports the
// fate of every order through fill, status and error events.
type Sender struct {
	transport Transport
	metrics   *metrics.Metrics
	log       *zap.Logger
	queue     chan []byte
}

func NewSender(transport Transport, queueSize int, m *metrics.Metrics, log *zap.Logger) *Sender {
	if m == nil {
		m = metrics.NewNoop()
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Sender{
		transport: transport,
		metrics:   m,
		log:       log,
		queue:     make(chan []byte, queueSize),
	}
}

func (s *Sender) InsertOrder(id uint64, side orders.Side, price, volume int64, lifespan orders.Lifespan) {
	s.enqueue(TypeInsertOrder, InsertOrderMsg{
		OrderID:  id,
		Side:     side.String(),
		Price:    price,
		Volume:   volume,
		Lifespan: lifespan.String(),
	})
}

func (s *Sender) CancelOrder(id uint64) {
	s.enqueue(TypeCancelOrder, CancelOrderMsg{OrderID: id})
}

func (s *Sender) SendHedge(id uint64, side orders.Side, price, volume int64) {
	s.enqueue(TypeHedgeOrder, HedgeOrderMsg{
		OrderID: id,
		Side:    side.String(),
		Price:   price,
		Volume:  volume,
	})
}

func (s *Sender) enqueue(frameType string, payload interface{}) {
	frame, err := EncodeFrame(frameType, payload)
	if err != nil {
		s.log.Error("encode outbound frame failed", zap.String("type", frameType), zap.Error(err))
		return
	}
	select {
	case s.queue <- frame:
	default:
		s.metrics.EventsDropped.Inc()
		s.log.Error("outbound queue full, action dropped", zap.String("type", frameType))
	}
}

// Run drains the outbound queue until ctx is cancelled.
func (s *Sender) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame := <-s.queue:
			if err := s.transport.Send(ctx, frame); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.log.Warn("outbound send failed", zap.Error(err))
			}
		}
	}
}
