package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/arnaubm/noise-trader/internal/broker"
	"github.com/arnaubm/noise-trader/internal/config"
	"github.com/arnaubm/noise-trader/internal/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dryRun := flag.Bool("dry-run", false, "show position and stop orders without closing")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)

	ctx := context.Background()
	bc, err := broker.NewBrokerClient(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "broker init error: %v\n", err)
		os.Exit(1)
	}
	defer bc.Stop()

	stopOrders, err := bc.ActiveStopOrders()
	if err != nil {
		fmt.Fprintf(os.Stderr, "get stop orders error: %v\n", err)
		os.Exit(1)
	}

	portfolio, err := bc.GetPortfolio()
	if err != nil {
		fmt.Fprintf(os.Stderr, "get portfolio error: %v\n", err)
		os.Exit(1)
	}

	pos := portfolio.Position
	if pos.Quantity <= 0 && len(stopOrders) == 0 {
		fmt.Println("Nothing to close.")
		return
	}

	fmt.Printf("%s: %.0f units, avg price %.2f, current %.2f, P&L %.2f\n",
		cfg.Trading.Ticker, pos.Quantity, pos.AvgPrice, pos.CurrentPrice, pos.PnL)
	fmt.Printf("Active stop orders: %d\n", len(stopOrders))
	for _, o := range stopOrders {
		fmt.Printf("  %s: %.2f units, trigger %.2f\n", o.ID, o.Amount, o.StopPrice)
	}
	fmt.Println()

	if *dryRun {
		fmt.Println("Dry run — no orders canceled or placed.")
		return
	}

	var failed int
	for _, o := range stopOrders {
		if err := bc.CancelOrder(ctx, o.ID); err != nil {
			fmt.Fprintf(os.Stderr, "  [FAIL] cancel %s: %v\n", o.ID, err)
			failed++
			continue
		}
		fmt.Printf("  [OK]   canceled %s\n", o.ID)
	}

	if pos.Quantity > 0 {
		orderID, err := bc.Sell(pos.Quantity)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  [FAIL] sell: %v\n", err)
			failed++
		} else {
			fmt.Printf("  [OK]   sold %.0f units, order %s\n", pos.Quantity, orderID)
		}
	}

	if failed > 0 {
		fmt.Printf("\nDone with %d failure(s).\n", failed)
		os.Exit(1)
	}
	fmt.Println("\nDone.")
}
