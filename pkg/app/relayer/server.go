// Package relayer implements app.Runner for the copy-trade relayer process.
package relayer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/chainsafe/copytrade-relayer/pkg/app"
	apphttp "github.com/chainsafe/copytrade-relayer/pkg/app/http"
	"github.com/chainsafe/copytrade-relayer/pkg/attestation"
	"github.com/chainsafe/copytrade-relayer/pkg/backend"
	"github.com/chainsafe/copytrade-relayer/pkg/bridge"
	"github.com/chainsafe/copytrade-relayer/pkg/config"
	"github.com/chainsafe/copytrade-relayer/pkg/db"
	"github.com/chainsafe/copytrade-relayer/pkg/ethereum"
	"github.com/chainsafe/copytrade-relayer/pkg/oracle"
	"github.com/chainsafe/copytrade-relayer/pkg/orchestrator"
	"github.com/chainsafe/copytrade-relayer/pkg/pgutil"
	"github.com/chainsafe/copytrade-relayer/pkg/relayer"
	"github.com/chainsafe/copytrade-relayer/pkg/swap"
)

// runStore is everything the process persists
type runStore interface {
	relayer.ProcessedStore
	orchestrator.RunRecorder
	RunReader
}

// Server holds configuration for the relayer process.
type Server struct {
	cfg *config.Config
}

var _ app.Runner = (*Server)(nil)

// NewServer initializes a new relayer Server.
func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

// Run starts the relayer engine and the operational HTTP server.
// It blocks until an OS shutdown signal is received or a fatal server error occurs.
func (s *Server) Run() error {
	if s.cfg == nil {
		return errors.New("nil config")
	}
	cfg := s.cfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting copy-trade relayer")

	store, closeStore, err := openStore(ctx, &cfg.Database, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	home, err := ethereum.NewClient(&cfg.HomeChain, cfg.Agent.PrivateKey, logger)
	if err != nil {
		return fmt.Errorf("initialize %s client: %w", cfg.HomeChain.Name, err)
	}
	defer home.Close()

	exec, err := ethereum.NewClient(&cfg.ExecutionChain, cfg.Agent.PrivateKey, logger)
	if err != nil {
		return fmt.Errorf("initialize %s client: %w", cfg.ExecutionChain.Name, err)
	}
	defer exec.Close()

	deps := relayer.Dependencies{
		Backend: backend.NewClient(cfg.Backend, logger),
		Oracle:  oracle.New(cfg.Oracle, logger),
		Store:   store,
		Home:    home,
		Exec:    exec,
		Agent:   home.Address(),
	}

	if cfg.Venue.Hook != "" {
		hook, err := relayer.NewChainHook(exec, common.HexToAddress(cfg.Venue.Hook), logger)
		if err != nil {
			return err
		}
		deps.Hook = hook
	}

	if home.CanSign() && exec.CanSign() {
		runner, err := newOrchestrator(cfg, home, exec, store, logger)
		if err != nil {
			return err
		}
		deps.Runner = runner
	} else {
		logger.Warn("No agent private key configured; pending orders will not be executed")
	}

	engine := relayer.NewEngine(cfg, deps, logger)
	if err := engine.Start(ctx); err != nil {
		return fmt.Errorf("start relayer engine: %w", err)
	}
	defer engine.Stop()

	router := NewRouter(cfg, engine, store, logger)
	srv := apphttp.NewServer(&cfg.Server, router)
	return apphttp.ServeAndWait(ctx, srv, cfg.Server.ShutdownTimeout, logger)
}

// openStore connects to Postgres when the database is enabled and falls back
// to process-lifetime memory sets otherwise
func openStore(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (runStore, func(), error) {
	if !cfg.Enabled {
		logger.Info("Database disabled; processed sets are kept in memory")
		return db.NewMemoryStore(), func() {}, nil
	}

	bunDB, err := pgutil.ConnectDB(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect relayer db: %w", err)
	}
	logger.Info("Database connection established", zap.String("database", cfg.Database))

	store := db.NewStore(bunDB)
	return store, func() { _ = store.Close() }, nil
}

func newOrchestrator(cfg *config.Config, home, exec *ethereum.Client, recorder orchestrator.RunRecorder, logger *zap.Logger) (*orchestrator.Orchestrator, error) {
	homeLeg, err := bridge.NewLeg(home, &cfg.HomeChain, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize %s bridge: %w", cfg.HomeChain.Name, err)
	}
	execLeg, err := bridge.NewLeg(exec, &cfg.ExecutionChain, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize %s bridge: %w", cfg.ExecutionChain.Name, err)
	}
	swapper, err := swap.NewExecutor(exec, common.HexToAddress(cfg.Venue.PoolSwapTest), logger)
	if err != nil {
		return nil, fmt.Errorf("initialize swap executor: %w", err)
	}

	return orchestrator.New(
		homeLeg,
		execLeg,
		attestation.NewPoller(cfg.Attestation, logger),
		swapper,
		exec,
		exec.Address(),
		recorder,
		logger,
	), nil
}
