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

	// 3. Build
	symbols, err := a.Service.BuildMaster(ctx)
	if err != nil {
		a.Logger.Critical("master build failed: %v", err)
		a.Close()
		os.Exit(1)
	}
	a.Logger.Info("master built: %d symbols", len(symbols))
}
