package main

import (
	"fmt"
	"os"

	"keepalive/internal/bootstrap"
	"keepalive/internal/config"
	"keepalive/internal/logger"

	"go.uber.org/zap"
)

func main() {
	conf, err := config.MustLoad()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(conf.LogLevel(), conf.LogDevelopment())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}

	if err = bootstrap.New(conf, log).Run(); err != nil {
		log.Error("application error", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
	_ = log.Sync()
}
