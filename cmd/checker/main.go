package main

import (
	"context"
	"fmt"
	"os"

	"github.com/bytedance/sonic"

	"github.com/bweisel/win-notifier/internal/app"
	"github.com/bweisel/win-notifier/internal/config"
	"github.com/bweisel/win-notifier/internal/platform/logging"
)

// One-shot runner: performs a single wins check and prints the result as JSON.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	components, err := app.BuildComponents(cfg, logger)
	if err != nil {
		logger.Error("build components", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.CheckTimeout)
	defer cancel()

	result, err := components.CheckService.CheckAll(ctx)
	if err != nil {
		logger.Error("check wins", "error", err)
		_ = components.Cleanup()
		os.Exit(1)
	}

	out, err := sonic.Marshal(result)
	if err != nil {
		logger.Error("encode result", "error", err)
		_ = components.Cleanup()
		os.Exit(1)
	}
	fmt.Println(string(out))

	if err := components.Cleanup(); err != nil {
		logger.Error("close resources", "error", err)
	}
}
