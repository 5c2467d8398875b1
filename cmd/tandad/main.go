package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tandachain/config"
	"tandachain/core/events"
	tandacrypto "tandachain/crypto"
	"tandachain/core/state"
	"tandachain/native/auction"
	"tandachain/native/automation"
	"tandachain/native/circle"
	"tandachain/native/governance"
	"tandachain/native/insurance"
	"tandachain/native/revenue"
	"tandachain/native/trust"
	"tandachain/observability/logging"
	"tandachain/rpc"
	"tandachain/storage"
)

// keystorePassphraseEnv names the environment variable holding the keystore
// passphrase, kept out of the config file.
const keystorePassphraseEnv = "TANDAD_KEYSTORE_PASSPHRASE"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "tandad:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "./config.toml", "path to the TOML configuration file")
		env        = flag.String("env", "dev", "deployment environment label")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	envLabel := cfg.Environment
	if envLabel == "" {
		envLabel = *env
	}
	logger := logging.Setup("tandad", envLabel)

	authority, err := resolveAuthority(cfg, logger)
	if err != nil {
		return fmt.Errorf("resolve authority: %w", err)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	manager := state.NewManager(db)
	emitter := events.NewLogEmitter(logger)

	trustEngine := trust.NewEngine()
	trustEngine.SetState(manager)
	trustEngine.SetEmitter(emitter)

	revenueEngine := revenue.NewEngine()
	revenueEngine.SetState(manager)
	revenueEngine.SetCircles(manager)
	revenueEngine.SetEmitter(emitter)

	circleEngine := circle.NewEngine()
	circleEngine.SetState(manager)
	circleEngine.SetTrust(trustEngine)
	circleEngine.SetEmitter(emitter)
	// The fee bridge stays unwired until a treasury can exist; otherwise
	// every fee-bearing distribution would fail against the missing record.
	if authority != ([20]byte{}) {
		circleEngine.SetFees(revenueEngine)
	} else {
		logger.Warn("no authority configured; fee collection disabled")
	}

	insuranceEngine := insurance.NewEngine()
	insuranceEngine.SetState(manager)
	insuranceEngine.SetCircles(manager)
	insuranceEngine.SetEmitter(emitter)

	governanceEngine := governance.NewEngine()
	governanceEngine.SetState(manager)
	governanceEngine.SetCircles(manager)
	governanceEngine.SetEmitter(emitter)

	auctionEngine := auction.NewEngine()
	auctionEngine.SetState(manager)
	auctionEngine.SetCircles(circleEngine)
	auctionEngine.SetEmitter(emitter)

	automationEngine := automation.NewEngine()
	automationEngine.SetState(manager)
	automationEngine.SetCircles(circleEngine)
	automationEngine.SetInsurance(insuranceEngine)
	automationEngine.SetEmitter(emitter)

	if err := bootstrap(cfg, authority, automationEngine, revenueEngine); err != nil {
		return fmt.Errorf("bootstrap state: %w", err)
	}

	server := rpc.NewServer(
		circleEngine,
		trustEngine,
		insuranceEngine,
		governanceEngine,
		auctionEngine,
		automationEngine,
		revenueEngine,
		logger,
	)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "address", cfg.ListenAddress, "network", cfg.NetworkName)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// resolveAuthority determines the daemon's administrative identity. A
// configured keystore path wins over the hex Authority field; a missing
// keystore file is populated with a fresh key on first start.
func resolveAuthority(cfg *config.Config, logger *slog.Logger) ([20]byte, error) {
	if cfg.KeystorePath != "" {
		passphrase := os.Getenv(keystorePassphraseEnv)
		if _, err := os.Stat(cfg.KeystorePath); errors.Is(err, os.ErrNotExist) {
			key, err := tandacrypto.GeneratePrivateKey()
			if err != nil {
				return [20]byte{}, err
			}
			if err := tandacrypto.SaveToKeystore(cfg.KeystorePath, key, passphrase); err != nil {
				return [20]byte{}, err
			}
			id, err := key.Identity()
			if err != nil {
				return [20]byte{}, err
			}
			logger.Info("generated authority keystore", "path", cfg.KeystorePath, "identity", id.String())
			return id, nil
		}
		key, err := tandacrypto.LoadFromKeystore(cfg.KeystorePath, passphrase)
		if err != nil {
			return [20]byte{}, err
		}
		id, err := key.Identity()
		if err != nil {
			return [20]byte{}, err
		}
		return id, nil
	}
	return parseAuthority(cfg.Authority)
}

// bootstrap seeds the treasury, fee params, and automation state from the
// configuration on first start. Reruns against an initialized store are
// no-ops.
func bootstrap(cfg *config.Config, authority [20]byte, automationEngine *automation.Engine, revenueEngine *revenue.Engine) error {
	if authority == ([20]byte{}) {
		return nil
	}
	if _, err := automationEngine.InitializeState(authority, cfg.TriggerMinInterval); err != nil && !errors.Is(err, automation.ErrAlreadyInitialized) {
		return err
	}
	if _, err := revenueEngine.InitializeTreasury(authority); err != nil && !errors.Is(err, revenue.ErrTreasuryExists) {
		return err
	}
	_, err := revenueEngine.InitializeParams(authority)
	switch {
	case errors.Is(err, revenue.ErrParamsExist):
		return nil
	case err != nil:
		return err
	}
	var distribution, yield, management *uint32
	if cfg.DistributionFeeBps > 0 {
		distribution = &cfg.DistributionFeeBps
	}
	if cfg.YieldFeeBps > 0 {
		yield = &cfg.YieldFeeBps
	}
	if cfg.ManagementFeeBps > 0 {
		management = &cfg.ManagementFeeBps
	}
	if distribution == nil && yield == nil && management == nil {
		return nil
	}
	_, err = revenueEngine.UpdateParams(authority, distribution, yield, management, nil)
	return err
}

func parseAuthority(value string) ([20]byte, error) {
	var authority [20]byte
	cleaned := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	if cleaned == "" {
		return authority, nil
	}
	raw, err := hex.DecodeString(cleaned)
	if err != nil || len(raw) != len(authority) {
		return authority, fmt.Errorf("invalid authority %q", value)
	}
	copy(authority[:], raw)
	return authority, nil
}
