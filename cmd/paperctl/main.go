// Package main は変換サービスのジョブを送信して成果物を保存する CLI のエントリーポイントです。
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		code := 1
		if isJobFailure(err) {
			code = 2
		}
		stop()
		os.Exit(code)
	}
}
