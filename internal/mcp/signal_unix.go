//go:build !windows

package mcp

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// withShutdownSignals is cancelled on SIGINT or SIGTERM.
func withShutdownSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}
