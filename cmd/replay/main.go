package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"etf-arb-bot/internal/book"
	"etf-arb-bot/internal/config"
	"etf-arb-bot/internal/engine"
	"etf-arb-bot/internal/logging"
	"etf-arb-bot/internal/orders"
	"etf-arb-bot/internal/venue"
)

// replay feeds a JSON-lines event log through the decision core and prints
// every action it emits, for offline strategy inspection. Each line is a
// frame payload with an extra "type" field, e.g.
//
//	{"type":"order_book","instrument":0,"sequence":1,"bid_prices":[9900,0,0,0,0],...}

type printGateway struct{}

func (printGateway) InsertOrder(id uint64, side orders.Side, price, volume int64, lifespan orders.Lifespan) {
	fmt.Printf("insert id=%d side=%s price=%d volume=%d lifespan=%s\n", id, side, price, volume, lifespan)
}

func (printGateway) CancelOrder(id uint64) {
	fmt.Printf("cancel id=%d\n", id)
}

func (printGateway) SendHedge(id uint64, side orders.Side, price, volume int64) {
	fmt.Printf("hedge id=%d side=%s price=%d volume=%d\n", id, side, price, volume)
}

func main() {
	eventsPath := flag.String("events", "", "path to JSON-lines event log")
	configPath := flag.String("config", "", "optional config file for venue constants")
	flag.Parse()

	if *eventsPath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay -events <file> [-config <file>]")
		os.Exit(2)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	log := logging.New(cfg.Log)
	trader := engine.New(engine.ParamsFromConfig(cfg.Trading), printGateway{}, log)

	file, err := os.Open(*eventsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open events: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		if err := dispatch(trader, raw); err != nil {
			fmt.Fprintf(os.Stderr, "line %d: %v\n", line, err)
			os.Exit(1)
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to read events: %v\n", err)
		os.Exit(1)
	}

	snap := trader.Snapshot()
	fmt.Printf("final position=%d potential_bid=%d potential_ask=%d active_orders=%d\n",
		snap.Position, snap.PotentialBid, snap.PotentialAsk, snap.ActiveOrders)
}

func dispatch(trader *engine.Trader, raw []byte) error {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return fmt.Errorf("decode event head: %w", err)
	}
	switch head.Type {
	case venue.TypeOrderBook:
		var msg venue.BookMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			return err
		}
		asks, bids := levels(msg)
		trader.OnOrderBook(book.Instrument(msg.Instrument), msg.Sequence, asks, bids)
	case venue.TypeTradeTicks:
		var msg venue.BookMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			return err
		}
		asks, bids := levels(msg)
		trader.OnTradeTicks(book.Instrument(msg.Instrument), msg.Sequence, asks, bids)
	case venue.TypeOrderFilled:
		var msg venue.OrderFilledMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			return err
		}
		trader.OnOrderFilled(msg.OrderID, msg.Price, msg.Volume)
	case venue.TypeOrderStatus:
		var msg venue.OrderStatusMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			return err
		}
		trader.OnOrderStatus(msg.OrderID, msg.FillVolume, msg.RemainingVolume, msg.Fees)
	case venue.TypeHedgeFilled:
		var msg venue.HedgeFilledMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			return err
		}
		trader.OnHedgeFilled(msg.OrderID, msg.Price, msg.Volume)
	case venue.TypeError:
		var msg venue.ErrorMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			return err
		}
		trader.OnError(msg.OrderID, msg.Message)
	default:
		return fmt.Errorf("unknown event type %q", head.Type)
	}
	return nil
}

func levels(msg venue.BookMsg) (asks, bids [book.TopLevelCount]book.PriceLevel) {
	for i := 0; i < book.TopLevelCount; i++ {
		asks[i] = book.PriceLevel{Price: msg.AskPrices[i], Volume: msg.AskVolumes[i]}
		bids[i] = book.PriceLevel{Price: msg.BidPrices[i], Volume: msg.BidVolumes[i]}
	}
	return asks, bids
}
