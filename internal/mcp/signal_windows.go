//go:build windows

package mcp

import (
	"context"
	"os"
	"os/signal"
)

// withShutdownSignals is cancelled on Ctrl+C. Windows has no SIGTERM.
func withShutdownSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt)
}
