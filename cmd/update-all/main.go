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
	daily := flag.Bool("daily", false, "rebuild the master before updating")
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

	// 3. Run the batch
	run := a.Service.UpdateAll
	if *daily {
		run = a.Service.RunDaily
	}
	summary, err := run(ctx)
	if err != nil {
		a.Logger.Critical("batch failed: %v", err)
		a.Close()
		os.Exit(1)
	}

	a.Logger.Info("batch %s: %d updated, %d skipped, %d failed", summary.RunID, summary.Updated, summary.Skipped, summary.Failed)
	if summary.Failed > 0 {
		a.Close()
		os.Exit(1)
	}
}
