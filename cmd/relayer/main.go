package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chainsafe/copytrade-relayer/pkg/app/relayer"
	"github.com/chainsafe/copytrade-relayer/pkg/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := relayer.NewServer(cfg).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Relayer exited: %v\n", err)
		os.Exit(1)
	}
}
