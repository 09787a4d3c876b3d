package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yungbote/assessment-backend/internal/app"
)

func main() {
	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application.Start()

	addr := ":" + application.Cfg.Port
	application.Log.Info("Server listening", "addr", addr)
	if err := application.Run(ctx, addr); err != nil {
		application.Log.Error("Server failed", "error", err)
	}
}
