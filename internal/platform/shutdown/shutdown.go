package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// forceExit is swapped in tests.
var forceExit = func() { os.Exit(130) }

// NotifyContext cancels the returned context on the first SIGINT or SIGTERM.
// A second signal while shutdown is still draining exits the process
// immediately. The stop func releases the signal handlers.
func NotifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		select {
		case <-sigs:
			cancel()
		case <-done:
			return
		}
		select {
		case <-sigs:
			forceExit()
		case <-done:
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			signal.Stop(sigs)
			close(done)
			cancel()
		})
	}
	return ctx, stop
}
