package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"etf-arb-bot/internal/alerts"
	"etf-arb-bot/internal/config"
	"etf-arb-bot/internal/engine"
	"etf-arb-bot/internal/journal"
	"etf-arb-bot/internal/journal/sqlite"
	"etf-arb-bot/internal/metrics"
	"etf-arb-bot/internal/orders"
	"etf-arb-bot/internal/timescale"
	"etf-arb-bot/internal/venue"
	"etf-arb-bot/internal/venue/ws"

	"go.uber.org/zap"
)

const eventBuffer = 1024

// App wires the gateway session to the decision core. A single dispatch
// loop owns every engine call; the websocket reader and the outbound sender
// run on their own goroutines and touch the core only through channels.
type App struct {
	cfg       *config.Config
	log       *zap.Logger
	journal   *sqlite.Journal
	ws        *ws.Client
	sender    *venue.Sender
	trader    *engine.Trader
	router    *venue.Router
	prom      *metrics.Prometheus
	alerts    *alerts.Telegram
	timescale *timescale.Writer
}

func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Journal.SQLitePath), 0o755); err != nil {
		return nil, err
	}
	journalStore, err := sqlite.New(cfg.Journal.SQLitePath)
	if err != nil {
		return nil, err
	}

	m := metrics.NewNoop()
	var prom *metrics.Prometheus
	if cfg.Metrics.Enabled {
		prom = metrics.NewPrometheus()
		m = prom.Metrics
	}

	wsClient := ws.New(cfg.Venue.URL, cfg.Venue.ReconnectDelay, cfg.Venue.PingInterval, venue.PingFrame(), log)
	sender := venue.NewSender(wsClient, cfg.Venue.SendQueueSize, m, log)

	tsWriter, err := timescale.New(cfg.Timescale, log)
	if err != nil {
		_ = journalStore.Close()
		return nil, err
	}

	trader := engine.New(engine.ParamsFromConfig(cfg.Trading), sender, log)
	trader.SetJournal(journal.Tee(journalStore, &fillMirror{writer: tsWriter}))
	trader.SetMetrics(m)
	router := venue.NewRouter(trader, log)

	telegramCfg := cfg.Telegram
	if telegramCfg.Token == "" {
		telegramCfg.Token = strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN"))
	}
	if telegramCfg.ChatID == "" {
		telegramCfg.ChatID = strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID"))
	}

	app := &App{
		cfg:       cfg,
		log:       log,
		journal:   journalStore,
		ws:        wsClient,
		sender:    sender,
		trader:    trader,
		router:    router,
		prom:      prom,
		alerts:    alerts.NewTelegram(telegramCfg, log),
		timescale: tsWriter,
	}
	router.SetErrorHook(func(orderID uint64, message string) {
		app.notify(fmt.Sprintf("venue rejected order %d: %s", orderID, message))
	})
	wsClient.SetOnReconnect(func() {
		m.Reconnects.Inc()
		app.notify("gateway connection lost, reconnecting")
	})
	return app, nil
}

func (a *App) Run(ctx context.Context) error {
	defer a.journal.Close()
	defer a.timescale.Close()
	defer func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.alerts.Send(sendCtx, "trading session stopped"); err != nil {
			a.log.Warn("alert send failed", zap.Error(err))
		}
	}()

	if err := a.ws.Connect(ctx); err != nil {
		return err
	}
	if token := strings.TrimSpace(os.Getenv("VENUE_AUTH_TOKEN")); token != "" {
		frame, err := venue.EncodeFrame(venue.TypeLogin, venue.LoginMsg{Token: token})
		if err != nil {
			return err
		}
		if err := a.ws.Hello(ctx, frame); err != nil {
			return err
		}
	}

	a.timescale.Start(ctx)
	a.startMetricsServer(ctx)

	senderDone := make(chan error, 1)
	go func() { senderDone <- a.sender.Run(ctx) }()

	events := make(chan []byte, eventBuffer)
	readerDone := make(chan error, 1)
	go func() {
		readerDone <- a.ws.Run(ctx, func(data []byte) {
			select {
			case events <- data:
			case <-ctx.Done():
			}
		})
	}()

	a.notify("trading session started")
	a.log.Info("dispatch loop running", zap.String("venue", a.cfg.Venue.URL))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readerDone:
			return err
		case err := <-senderDone:
			return err
		case data := <-events:
			frameType, err := a.router.HandleMessage(data)
			if err != nil {
				a.log.Warn("event dispatch failed", zap.String("type", frameType), zap.Error(err))
				continue
			}
			if frameType == venue.TypeOrderBook && a.timescale != nil {
				snap := a.trader.Snapshot()
				a.timescale.EnqueueSnapshot(timescale.LedgerSnapshot{
					Time:         time.Now().UTC(),
					Position:     snap.Position,
					PotentialBid: snap.PotentialBid,
					PotentialAsk: snap.PotentialAsk,
					ActiveOrders: snap.ActiveOrders,
					ETFBid:       snap.ETFBid,
					ETFAsk:       snap.ETFAsk,
					FutureBid:    snap.FutureBid,
					FutureAsk:    snap.FutureAsk,
				})
			}
		}
	}
}

func (a *App) startMetricsServer(ctx context.Context) {
	if a.prom == nil {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.prom.Handler())
	server := &http.Server{Addr: a.cfg.Metrics.ListenAddr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Warn("metrics server stopped", zap.Error(err))
		}
	}()
}

// fillMirror is the timescale half of the journal tee: executions and hedge
// submissions stream into the fills hypertable, order lifecycle rows stay in
// sqlite only.
type fillMirror struct {
	writer *timescale.Writer
}

func (m *fillMirror) OrderInserted(orders.Order) error { return nil }
func (m *fillMirror) OrderTerminal(orders.Order) error { return nil }

func (m *fillMirror) OwnFill(orderID uint64, side orders.Side, price, volume int64) error {
	m.writer.EnqueueFill(timescale.Fill{
		Time:    time.Now().UTC(),
		OrderID: orderID,
		Side:    side.String(),
		Price:   price,
		Volume:  volume,
	})
	return nil
}

func (m *fillMirror) HedgeSent(orderID uint64, side orders.Side, price, volume int64) error {
	m.writer.EnqueueFill(timescale.Fill{
		Time:    time.Now().UTC(),
		OrderID: orderID,
		Side:    side.String(),
		Hedge:   true,
		Price:   price,
		Volume:  volume,
	})
	return nil
}

func (m *fillMirror) Close() error { return nil }

// notify pushes a telegram alert without blocking the caller.
func (a *App) notify(message string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.alerts.Send(ctx, message); err != nil {
			a.log.Warn("alert send failed", zap.Error(err))
		}
	}()
}
