package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/conf/v3/yaml"
	"github.com/minichain/node/app/services/node/handlers"
	"github.com/minichain/node/foundation/blockchain/peer"
	"github.com/minichain/node/foundation/blockchain/state"
	"github.com/minichain/node/foundation/blockchain/worker"
	"github.com/minichain/node/foundation/events"
	"github.com/minichain/node/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in
// the makefile.
var build = "develop"

func main() {
	log, err := logger.New("NODE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		ConfigFile string `conf:"default:node.yaml"`
		Web        struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
		}
		Node struct {
			TCPAddress              string `conf:"default:0.0.0.0:9080" yaml:"tcpAddress"`
			HTTPAddress             string `conf:"default:0.0.0.0:8080" yaml:"httpAddress"`
			BootstrapAddress        string `yaml:"bootstrapAddress"`
			NodeID                  string `conf:"default:node1" yaml:"nodeId"`
			MinerWalletAddress      string `yaml:"minerWalletAddress"`
			DBPath                  string `conf:"default:database/blockchain-db" yaml:"dbPath"`
			Difficulty              int    `conf:"default:5" yaml:"difficulty"`
			MineWithoutTransactions bool   `conf:"default:true" yaml:"mineWithoutTransactions"`
			DevReset                bool   `conf:"default:false" yaml:"devReset"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "educational proof-of-work blockchain node",
		},
	}

	const prefix = "NODE"

	// The config file location itself comes from env/flags; the file then
	// provides the per-node settings, which env/flags may still override.
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	if data, err := os.ReadFile(cfg.ConfigFile); err == nil {
		help, err := conf.Parse(prefix, &cfg, yaml.WithData(data))
		if err != nil {
			if errors.Is(err, conf.ErrHelpWanted) {
				fmt.Println(help)
				return nil
			}
			return fmt.Errorf("parsing config file %q: %w", cfg.ConfigFile, err)
		}
	}

	if cfg.Node.MinerWalletAddress == "" {
		return errors.New("config: minerWalletAddress is required")
	}

	// =========================================================================
	// App Starting

	log.Infow("starting node", "version", build)
	defer log.Infow("shutdown complete")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Blockchain Support

	// A peer set is the collection of known nodes so transactions and blocks
	// can be shared. The set starts with this node and, when configured, the
	// bootstrap node the discoverer introduces itself to.
	peerSet := peer.NewPeerSet()
	peerSet.Add(cfg.Node.TCPAddress)
	if cfg.Node.BootstrapAddress != "" {
		peerSet.Add(cfg.Node.BootstrapAddress)
	}

	// The core packages accept a function of this signature for logging.
	// The raw messages also feed any websocket client connected through the
	// events package.
	evts := events.New()
	defer evts.Shutdown()

	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	dbPath := fmt.Sprintf("%s-%s", cfg.Node.DBPath, cfg.Node.NodeID)

	if cfg.Node.DevReset {
		log.Infow("startup", "status", "dev reset, wiping database", "path", dbPath)
		if err := os.RemoveAll(dbPath); err != nil {
			return fmt.Errorf("wiping database: %w", err)
		}
	}

	st, err := state.New(state.Config{
		NodeID:       cfg.Node.NodeID,
		Host:         cfg.Node.TCPAddress,
		MinerAddress: cfg.Node.MinerWalletAddress,
		DBPath:       dbPath,
		Difficulty:   cfg.Node.Difficulty,
		KnownPeers:   peerSet,
		EvHandler:    ev,
	})
	if err != nil {
		return err
	}
	defer st.Shutdown()

	// The worker package binds the peer server socket and starts the
	// background actors: peer server, miner, synchronizer, discoverer, and
	// broadcaster. The worker registers itself with the state.
	if _, err := worker.Run(st, worker.Config{MineWithoutTransactions: cfg.Node.MineWithoutTransactions}, ev); err != nil {
		return err
	}

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug router started", "host", cfg.Web.DebugHost)

	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, handlers.DebugMux(build, log)); err != nil {
			log.Errorw("shutdown", "status", "debug router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Start Public Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	mux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		State:    st,
		Evts:     evts,
	})

	api := http.Server{
		Addr:         cfg.Node.HTTPAddress,
		Handler:      mux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
	}

	serverErrors := make(chan error, 1)

	go func() {
		log.Infow("startup", "status", "api router started", "host", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}
