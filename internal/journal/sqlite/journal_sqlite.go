package sqlite

import (
	"context"
	"database/sql"
	"time"

	"etf-arb-bot/internal/orders"

	_ "modernc.org/sqlite"
)

const writeTimeout = 2 * time.Second

// Journal records the session's orders, fills and hedges in a local sqlite
// file. Writes are best-effort audit data; the engine ignores the journal on
// startup.
type Journal struct {
	db *sql.DB
}

func New(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Journal{db: db}, nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			id INTEGER PRIMARY KEY,
			side TEXT NOT NULL,
			price INTEGER NOT NULL,
			volume INTEGER NOT NULL,
			lifespan TEXT NOT NULL,
			state TEXT NOT NULL,
			inserted_at TEXT NOT NULL,
			settled_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS fills (
			order_id INTEGER NOT NULL,
			side TEXT NOT NULL,
			price INTEGER NOT NULL,
			volume INTEGER NOT NULL,
			filled_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS hedges (
			order_id INTEGER NOT NULL,
			side TEXT NOT NULL,
			price INTEGER NOT NULL,
			volume INTEGER NOT NULL,
			sent_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (j *Journal) OrderInserted(o orders.Order) error {
	ctx, cancel := writeCtx()
	defer cancel()
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO orders (id, side, price, volume, lifespan, state, inserted_at) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		o.ID, o.Side.String(), o.Price, o.Original, o.Lifespan.String(), string(o.State), now())
	return err
}

func (j *Journal) OrderTerminal(o orders.Order) error {
	ctx, cancel := writeCtx()
	defer cancel()
	_, err := j.db.ExecContext(ctx,
		`UPDATE orders SET state = ?, volume = ?, settled_at = ? WHERE id = ?`,
		string(o.State), o.Volume, now(), o.ID)
	return err
}

func (j *Journal) OwnFill(orderID uint64, side orders.Side, price, volume int64) error {
	ctx, cancel := writeCtx()
	defer cancel()
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO fills (order_id, side, price, volume, filled_at) VALUES (?, ?, ?, ?, ?)`,
		orderID, side.String(), price, volume, now())
	return err
}

func (j *Journal) HedgeSent(orderID uint64, side orders.Side, price, volume int64) error {
	ctx, cancel := writeCtx()
	defer cancel()
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO hedges (order_id, side, price, volume, sent_at) VALUES (?, ?, ?, ?, ?)`,
		orderID, side.String(), price, volume, now())
	return err
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func writeCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), writeTimeout)
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
