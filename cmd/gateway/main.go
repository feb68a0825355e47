package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/growmint/agent-gateway/internal/chain"
	"github.com/growmint/agent-gateway/internal/config"
	"github.com/growmint/agent-gateway/internal/gateway"
	"github.com/growmint/agent-gateway/pkg/utils"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "Path to configuration file")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	level := *logLevel
	if level == "" {
		level = utils.GetEnv("LOG_LEVEL", "info")
	}
	logLevelValue, err := logrus.ParseLevel(level)
	if err != nil {
		logger.Warnf("Invalid log level: %s, using 'info'", level)
		logLevelValue = logrus.InfoLevel
	}
	logger.SetLevel(logLevelValue)

	logger.Info("Starting agent gateway...")

	logger.Infof("Loading configuration from %s", *configPath)
	appConfig, err := config.LoadConfig(*configPath, logger)
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	var reader gateway.ChainReader
	if appConfig.Chain.Enabled() {
		logger.Infof("Connecting chain reader to %s (contract %s)",
			appConfig.Chain.RPCURL, appConfig.Chain.ContractAddress)
		chainReader, err := chain.NewReader(
			appConfig.Chain.RPCURL,
			appConfig.Chain.ContractAddress,
			appConfig.Chain.ChainID,
			logger,
		)
		if err != nil {
			logger.Fatalf("Failed to create chain reader: %v", err)
		}
		defer chainReader.Close()
		reader = chainReader
	} else {
		logger.Warn("Chain section not configured, metadata routes disabled")
	}

	server := gateway.NewServer(appConfig, reader, logger)
	if err := server.Start(); err != nil {
		logger.Fatalf("Failed to start gateway: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("Shutdown signal received")
	if err := server.Shutdown(); err != nil {
		logger.Errorf("Shutdown error: %v", err)
	}
}
