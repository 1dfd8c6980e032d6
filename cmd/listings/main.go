// cmd/listings/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/law-makers/listings/internal/cli"
	"github.com/rs/zerolog/log"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Setup signal handling for graceful shutdown; the run persists what it has
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	unregister := context.AfterFunc(ctx, func() {
		log.Warn().Msg("Interrupt received, finishing current page and saving results...")
		// restore default handling so a second signal kills the process
		stop()
	})
	defer unregister()

	return cli.Execute(ctx)
}
