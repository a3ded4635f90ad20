package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/eqty-dao/treasury/internal/chain"
	"github.com/eqty-dao/treasury/internal/config"
	"github.com/eqty-dao/treasury/internal/publish"
	"github.com/eqty-dao/treasury/internal/services"
	"github.com/eqty-dao/treasury/internal/storage"
)

// Token contracts tracked per chain.
const (
	usdtEthereum = "0xdAC17F958D2ee523a2206206994597C13D831ec7"
	eqtyBase     = "0xc71f37d9bf4c5d1e7fe4bccb97e6f30b11b37d29"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting treasury-onchain")

	cfg := config.Load()
	if err := cfg.ValidateOnchain(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	journal, err := storage.NewRunStore(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open run journal", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer journal.Close()

	var notifier *publish.Notifier
	if cfg.AMQPURL != "" {
		notifier, err = publish.NewNotifier(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP notifier", "error", err)
			os.Exit(1)
		}
		defer notifier.Close()
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	ethRPC := chain.NewRPC(cfg.EthRPCURL, nil)
	baseRPC := chain.NewRPC(cfg.BaseRPCURL, nil)
	scanner := chain.NewEtherscan("", cfg.EtherscanAPIKey, nil)

	jobs := []services.ChainJob{
		{
			Name:           "eth",
			ChainID:        1,
			NativeSymbol:   "ETH",
			ExplorerBase:   "https://etherscan.io",
			RPC:            ethRPC,
			Scanner:        scanner,
			TokenContracts: []string{usdtEthereum},
			RPCSourceName:  "eth-rpc",
			ScanSourceName: "etherscan",
		},
		{
			Name:           "base",
			ChainID:        8453,
			NativeSymbol:   "ETH",
			ExplorerBase:   "https://basescan.org",
			RPC:            baseRPC,
			TokenContracts: []string{eqtyBase},
			RPCSourceName:  "base-rpc",
			ScanSourceName: "alchemy",
		},
	}

	writer := publish.NewWriter(cfg.OutputDir)

	exporter := services.NewOnchainExporter(jobs, writer, notifier, journal, services.OnchainOptions{
		TreasuryAddress: cfg.TreasuryAddress,
		TransferLimit:   cfg.TransferLimit,
	})

	if err := exporter.Run(ctx); err != nil {
		logger.Error("Onchain export failed", "error", err)
		os.Exit(1)
	}
}
