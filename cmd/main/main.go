package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jpx-history/src/app"
	"jpx-history/src/utils"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	runNow := flag.Bool("run-now", false, "run the daily update once at startup")
	flag.Parse()

	// 1. Wire components
	a, err := app.Bootstrap(*configPath)
	if err != nil {
		fmt.Printf("Error starting: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 2. Servers
	srv := startServers(a)

	// 3. Scheduler
	if _, ok := utils.MICForMarket(a.Config.History.Market); !ok {
		a.Logger.Warning("unknown market suffix %q, scheduling on the %s calendar", a.Config.History.Market, utils.MICTokyo)
	}
	cal := utils.GetCalendar(a.Config.History.Market)
	scheduler := utils.NewMarketScheduler(cal, a.Logger.Named("MarketScheduler"))
	daily := func() {
		summary, err := a.Service.RunDaily(ctx)
		if err != nil {
			a.Logger.Error("daily update: %v", err)
			return
		}
		a.Logger.Info("daily update %s: %d updated, %d skipped, %d failed", summary.RunID, summary.Updated, summary.Skipped, summary.Failed)
	}

	if a.Config.Schedule.Enabled {
		if err := scheduler.AddTradingDayJob(a.Config.Schedule.Cron, "daily-update", daily); err != nil {
			a.Logger.Critical("invalid schedule: %v", err)
			srv.stop()
			a.Close()
			os.Exit(1)
		}
		scheduler.Start()
		a.Logger.Info("next run at %s", scheduler.NextRun().Format(time.RFC3339))
	}

	if *runNow {
		go daily()
	}

	// 4. Wait for shutdown
	<-ctx.Done()
	a.Logger.Info("Shutting down...")

	if a.Config.Schedule.Enabled {
		<-scheduler.Stop().Done()
	}
	srv.stop()
	a.Logger.Info("Shutdown complete")
}
