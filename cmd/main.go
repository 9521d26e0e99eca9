package main

import (
	"context"
	"fmt"
	"os"

	"github.com/yungbote/mysteryparty-backend/internal/app"
	"github.com/yungbote/mysteryparty-backend/internal/config"
	"github.com/yungbote/mysteryparty-backend/internal/platform/shutdown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	a, err := app.New(cfg)
	if err != nil {
		fmt.Printf("failed to initialize app: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := shutdown.NotifyContext(context.Background())
	err = a.Run(ctx)
	stop()
	if err != nil {
		a.Log.Error("Server exited", "error", err)
		a.Close()
		os.Exit(1)
	}
	a.Log.Info("Server stopped")
	a.Close()
}
