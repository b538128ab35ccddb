package timescale

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"etf-arb-bot/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

const writeTimeout = 3 * time.Second

// LedgerSnapshot is one observation of the risk ledger and both books,
// sampled after a decision cycle.
type LedgerSnapshot struct {
	Time         time.Time
	Position     int64
	PotentialBid int64
	PotentialAsk int64
	ActiveOrders int64
	ETFBid       int64
	ETFAsk       int64
	FutureBid    int64
	FutureAsk    int64
}

// Fill is one own-order execution or hedge submission.
type Fill struct {
	Time    time.Time
	OrderID uint64
	Side    string
	Hedge   bool
	Price   int64
	Volume  int64
}

// Writer streams ledger snapshots and fills into TimescaleDB. Enqueues never
// block the dispatch loop: full queues drop and count.
type Writer struct {
	db        *sql.DB
	log       *zap.Logger
	schema    string
	snapshots chan LedgerSnapshot
	fills     chan Fill
	started   atomic.Bool
	dropSnap  atomic.Uint64
	dropFill  atomic.Uint64
}

func New(cfg config.TimescaleConfig, log *zap.Logger) (*Writer, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("timescale dsn is required")
	}
	schema := strings.TrimSpace(cfg.Schema)
	if schema == "" {
		schema = "public"
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	writer := &Writer{
		db:        db,
		log:       log,
		schema:    schema,
		snapshots: make(chan LedgerSnapshot, queueSize),
		fills:     make(chan Fill, queueSize),
	}
	if err := writer.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return writer, nil
}

func (w *Writer) Start(ctx context.Context) {
	if w == nil {
		return
	}
	if !w.started.CompareAndSwap(false, true) {
		return
	}
	go w.run(ctx)
}

func (w *Writer) Close() error {
	if w == nil || w.db == nil {
		return nil
	}
	return w.db.Close()
}

func (w *Writer) EnqueueSnapshot(snap LedgerSnapshot) {
	if w == nil {
		return
	}
	select {
	case w.snapshots <- snap:
		return
	default:
		if w.dropSnap.Add(1) == 1 && w.log != nil {
			w.log.Warn("timescale snapshot queue full")
		}
	}
}

func (w *Writer) EnqueueFill(fill Fill) {
	if w == nil {
		return
	}
	select {
	case w.fills <- fill:
		return
	default:
		if w.dropFill.Add(1) == 1 && w.log != nil {
			w.log.Warn("timescale fill queue full")
		}
	}
}

func (w *Writer) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-w.snapshots:
			w.writeSnapshot(ctx, snap)
		case fill := <-w.fills:
			w.writeFill(ctx, fill)
		}
	}
}

func (w *Writer) ensureSchema(ctx context.Context) error {
	if w.db == nil {
		return errors.New("timescale db not initialized")
	}
	if w.schema != "public" {
		if err := w.exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", w.schema)); err != nil {
			return err
		}
	}
	if err := w.exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ts TIMESTAMPTZ NOT NULL,
		net_position BIGINT NOT NULL,
		potential_bid BIGINT NOT NULL,
		potential_ask BIGINT NOT NULL,
		active_orders BIGINT NOT NULL,
		etf_bid BIGINT NOT NULL,
		etf_ask BIGINT NOT NULL,
		future_bid BIGINT NOT NULL,
		future_ask BIGINT NOT NULL
	)`, w.table("ledger_snapshots"))); err != nil {
		return err
	}
	if err := w.exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ts TIMESTAMPTZ NOT NULL,
		order_id BIGINT NOT NULL,
		side TEXT NOT NULL,
		hedge BOOLEAN NOT NULL,
		price BIGINT NOT NULL,
		volume BIGINT NOT NULL
	)`, w.table("fills"))); err != nil {
		return err
	}
	if err := w.exec(ctx, "CREATE EXTENSION IF NOT EXISTS timescaledb"); err != nil {
		if w.log != nil {
			w.log.Warn("timescale extension ensure failed", zap.Error(err))
		}
		return nil
	}
	if err := w.exec(ctx, fmt.Sprintf("SELECT create_hypertable('%s', 'ts', if_not_exists => TRUE)", w.table("ledger_snapshots"))); err != nil && w.log != nil {
		w.log.Warn("timescale ledger_snapshots hypertable create failed", zap.Error(err))
	}
	if err := w.exec(ctx, fmt.Sprintf("SELECT create_hypertable('%s', 'ts', if_not_exists => TRUE)", w.table("fills"))); err != nil && w.log != nil {
		w.log.Warn("timescale fills hypertable create failed", zap.Error(err))
	}
	return nil
}

func (w *Writer) writeSnapshot(ctx context.Context, snap LedgerSnapshot) {
	if w.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	query := fmt.Sprintf(`INSERT INTO %s (
		ts, net_position, potential_bid, potential_ask, active_orders, etf_bid, etf_ask, future_bid, future_ask
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`, w.table("ledger_snapshots"))
	if _, err := w.db.ExecContext(ctx, query,
		snap.Time,
		snap.Position,
		snap.PotentialBid,
		snap.PotentialAsk,
		snap.ActiveOrders,
		snap.ETFBid,
		snap.ETFAsk,
		snap.FutureBid,
		snap.FutureAsk,
	); err != nil && w.log != nil {
		w.log.Warn("timescale snapshot write failed", zap.Error(err))
	}
}

func (w *Writer) writeFill(ctx context.Context, fill Fill) {
	if w.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	query := fmt.Sprintf(`INSERT INTO %s (
		ts, order_id, side, hedge, price, volume
	) VALUES ($1,$2,$3,$4,$5,$6)`, w.table("fills"))
	if _, err := w.db.ExecContext(ctx, query,
		fill.Time,
		int64(fill.OrderID),
		fill.Side,
		fill.Hedge,
		fill.Price,
		fill.Volume,
	); err != nil && w.log != nil {
		w.log.Warn("timescale fill write failed", zap.Error(err))
	}
}

func (w *Writer) exec(ctx context.Context, query string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_, err := w.db.ExecContext(ctx, query)
	return err
}

func (w *Writer) table(name string) string {
	return w.schema + "." + name
}
