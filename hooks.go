package pulsekit

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// AutoShutdown installs a signal handler that flushes and tears down the
// default tracker when the process is asked to stop. It is a thin optional
// adapter: the tracker itself works without it, and applications with
// their own shutdown sequence should call Shutdown directly instead.
//
// The returned stop function uninstalls the handler.
func AutoShutdown(signals ...os.Signal) func() {
	if len(signals) == 0 {
		signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, signals...)
	done := make(chan struct{})

	go func() {
		select {
		case <-ch:
			Shutdown()
		case <-done:
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(ch)
			close(done)
		})
	}
}
