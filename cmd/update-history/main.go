package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"jpx-history/src/app"
)

func main() {
	// 1. Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	code := flag.String("code", "998407", "symbol code, e.g. 7203 or 998407 for the Nikkei 225")
	market := flag.String("market", "O", "quote-site market suffix")
	flag.Parse()

	// 2. Wire components
	a, err := app.Bootstrap(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Fetch
	res, err := a.Fetcher.Fetch(ctx, *code, *market)
	if err != nil {
		a.Logger.Critical("%s.%s: %v", *code, *market, err)
		a.Close()
		os.Exit(1)
	}
	a.Logger.Info("%s.%s: %d rows (%d new, %d pages, stop: %s)", *code, *market, res.Rows, res.Added, res.Pages, res.StopReason)
}
