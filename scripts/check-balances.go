//go:build ignore

// Prints the agent's USDC on both chains and its gas balance on each.
// Run with: go run scripts/check-balances.go -config config.yaml

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/chainsafe/copytrade-relayer/pkg/config"
	"github.com/chainsafe/copytrade-relayer/pkg/ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "Path to configuration file")
	address := flag.String("address", "", "address to check (defaults to the configured agent)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Println("=== Copy-trade agent balances ===")
	for _, chain := range []*config.ChainConfig{&cfg.HomeChain, &cfg.ExecutionChain} {
		client, err := ethereum.NewClient(chain, cfg.Agent.PrivateKey, zap.NewNop())
		if err != nil {
			fmt.Printf("✗ %s: %v\n", chain.Name, err)
			continue
		}

		owner := client.Address()
		if *address != "" {
			owner = common.HexToAddress(*address)
		}

		native, err := client.NativeBalance(ctx, owner)
		if err != nil {
			fmt.Printf("✗ %s native: %v\n", chain.Name, err)
		} else {
			fmt.Printf("✓ %s (%s) native: %s\n", chain.Name, owner.Hex(), ethereum.FormatUnits(native, 18))
		}

		usdc, err := client.BalanceOf(ctx, client.USDC(), owner)
		if err != nil {
			fmt.Printf("✗ %s USDC: %v\n", chain.Name, err)
		} else {
			fmt.Printf("✓ %s (%s) USDC: %s\n", chain.Name, owner.Hex(), ethereum.FormatUnits(usdc, cfg.Agent.USDCDecimals))
		}
		client.Close()
	}
}
