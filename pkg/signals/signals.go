package signals

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SetupSignalHandler は SIGINT / SIGTERM で取り消される context を返す
// 2 回目のシグナルで即終了する
func SetupSignalHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	c := make(chan os.Signal, 2)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
		<-c
		os.Exit(1)
	}()

	return ctx
}
