// Command server runs the collecta negotiation backend: it wires the
// postgres-backed repositories, the compliance gate, the proposal generator,
// and the conversation state machine, then blocks until SIGINT/SIGTERM.
//
// Configuration comes from CONFIG_PATH (default ./config.yaml) plus
// environment overrides.
//
// Exit codes: 0 = clean shutdown, 1 = startup or shutdown error.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/collectaai/collecta-backend/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}
