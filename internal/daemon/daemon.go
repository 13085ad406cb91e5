package daemon

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/e-serbisyo/engage/internal/api"
	"github.com/e-serbisyo/engage/internal/app/ledger"
	"github.com/e-serbisyo/engage/internal/app/validator"
	"github.com/e-serbisyo/engage/internal/domain"
	"github.com/e-serbisyo/engage/internal/infra/observability"
	"github.com/e-serbisyo/engage/internal/infra/sqlite"
)

// Daemon is the running engagement service.
type Daemon struct {
	cfg    Config
	db     *sqlite.DB
	server *http.Server
}

// New wires the store, services, and HTTP API from the config.
func New(cfg Config) (*Daemon, error) {
	db, err := sqlite.Open(cfg.StorageDir())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	metrics := observability.New(prometheus.DefaultRegisterer)

	led := ledger.New(buildLedgerConfig(cfg.Ledger), db)
	led.SetMetrics(metrics)

	val := validator.New(buildValidatorConfig(cfg.Validator), db)
	val.SetMetrics(metrics)
	val.SetLedger(led)

	srv := api.NewServer(led, val, db)
	if cfg.API.Metrics {
		srv.EnableMetrics()
	}

	feed := api.NewFeed()
	srv.SetFeed(feed)
	led.SetNotifier(feed)

	return &Daemon{
		cfg: cfg,
		db:  db,
		server: &http.Server{
			Addr:              cfg.API.Addr(),
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Run serves until the context is cancelled or a termination signal
// arrives, then shuts down gracefully.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[daemon] listening on http://%s", d.cfg.API.Addr())
		if err := d.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		d.db.Close()
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.Printf("[daemon] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.server.Shutdown(shutdownCtx); err != nil {
		d.db.Close()
		return fmt.Errorf("shutdown: %w", err)
	}
	return d.db.Close()
}

// buildLedgerConfig merges the file config over the ledger defaults.
func buildLedgerConfig(lc LedgerConfig) ledger.Config {
	cfg := ledger.DefaultConfig()
	if lc.LevelSize > 0 {
		cfg.LevelSize = lc.LevelSize
	}
	if lc.Timezone != "" {
		if loc, err := time.LoadLocation(lc.Timezone); err == nil {
			cfg.Location = loc
		} else {
			log.Printf("[daemon] unknown timezone %q, using %s", lc.Timezone, cfg.Location)
		}
	}
	for name, pts := range lc.Points {
		cfg.Points[domain.ActivityType(name)] = pts
	}
	return cfg
}

// buildValidatorConfig merges the file config over the validator defaults.
// A missing signing key is replaced with an ephemeral one: previously
// issued QR codes stop verifying on restart, so production deployments
// should always configure one.
func buildValidatorConfig(vc ValidatorConfig) validator.Config {
	cfg := validator.DefaultConfig()
	if vc.WindowSeconds > 0 {
		cfg.Window = vc.Window()
	}
	if vc.MaxAttempts > 0 {
		cfg.MaxAttempts = vc.MaxAttempts
	}
	if vc.MaxQRAgeHours > 0 {
		cfg.MaxQRAge = vc.MaxQRAge()
	}
	if vc.SigningKey != "" {
		cfg.SigningKey = []byte(vc.SigningKey)
	} else {
		key := make([]byte, 32)
		rand.Read(key)
		cfg.SigningKey = key
		log.Printf("[daemon] no signing key configured, generated ephemeral key %s…", hex.EncodeToString(key[:4]))
	}
	if vc.SealKey != "" {
		if len(vc.SealKey) == 32 {
			cfg.SealKey = []byte(vc.SealKey)
		} else {
			log.Printf("[daemon] seal key must be exactly 32 bytes, sealed QR payloads disabled")
		}
	}
	return cfg
}
