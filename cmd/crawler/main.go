// Command crawler synchronizes the native species registry with the
// classification spreadsheet published by the Ministry of the Environment.
// It is meant to be run as a scheduled batch job.
//
// Flags:
//
//	--dry-run  download and parse the spreadsheet without writing to the store
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/heartmarshall/eecc-crawler/internal/app"
)

func main() {
	dryRunFlag := flag.Bool("dry-run", false, "download and parse without writing to the store")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, app.Options{DryRun: *dryRunFlag}); err != nil {
		slog.Error("crawler failed", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}
