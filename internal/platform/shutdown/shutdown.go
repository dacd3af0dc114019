package shutdown

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// NotifyContext cancels on SIGINT/SIGTERM plus any extra signals.
func NotifyContext(parent context.Context, extra ...os.Signal) (context.Context, context.CancelFunc) {
	sigs := append([]os.Signal{syscall.SIGINT, syscall.SIGTERM}, extra...)
	return signal.NotifyContext(parent, sigs...)
}
