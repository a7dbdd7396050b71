// TickPilot - tick-driven automation engine for a game client.
//
// The engine reads host UI state published by a client-side adapter,
// runs a set of features once per host tick, and sends the few UI actions
// those features decide on back to the adapter. A small control API lets
// an operator switch features on and off and tune their settings.
//
// Command structure:
//
//	tickpilot run       [--config FILE] [--dry-run]
//	tickpilot features  [--config FILE]
//	tickpilot token     --subject NAME [--role ROLE] [--ttl DURATION]
//	tickpilot migrate   up|down|status
//	tickpilot version
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// defaultConfigPath is used when neither --config nor TICKPILOT_CONFIG is set.
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
