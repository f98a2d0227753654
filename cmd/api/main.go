package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"

	"github.com/swissborg/galactica-credential-ledger/config"
	"github.com/swissborg/galactica-credential-ledger/internal/api"
	"github.com/swissborg/galactica-credential-ledger/internal/bank"
	"github.com/swissborg/galactica-credential-ledger/internal/credential"
	"github.com/swissborg/galactica-credential-ledger/internal/identity"
	"github.com/swissborg/galactica-credential-ledger/internal/metrics"
	"github.com/swissborg/galactica-credential-ledger/internal/store"
	"github.com/swissborg/galactica-credential-ledger/internal/taskqueue"
)

func main() {
	log.SetFormatter(&log.JSONFormatter{})

	log.Info("api service init...")
	defer log.Info("api service stop")

	ctx, cancelCancel := context.WithCancel(context.Background())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	if err := godotenv.Load(".env"); err != nil {
		var pathError *fs.PathError
		if !errors.As(err, &pathError) {
			log.Fatalf("parsing .env file: %v", err)
		}
	}

	configPath := os.Getenv("CONFIG_PATH")

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	checker, closeChecker, err := identity.New(ctx, cfg.Identity)
	if err != nil {
		log.Fatalf("failed to create identity checker %v", err)
	}
	defer closeChecker()

	log.WithField("mode", cfg.Identity.Mode).Info("identity checker ready")

	db, err := store.OpenBadger(cfg.Storage.Path)
	if err != nil {
		log.Fatalf("failed to open badger %v", err)
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	queue := taskqueue.NewQueue()
	defer queue.Close()

	ledger := bank.New(db, queue)
	service := credential.NewService(db, checker, ledger, queue,
		credential.WithMetrics(metrics.New(reg)),
	)

	server := api.NewServer(service, ledger, reg)

	go func() {
		if err := server.Start(cfg.APIConf); err != nil && (!errors.Is(err, http.ErrServerClosed)) {
			log.WithError(err).Fatal("shutting down the server")
		}
	}()

	waiting := make(chan struct{})
	go func() {
		defer close(waiting)
		select {
		case <-quit:
			log.Info("Gracefully stopping…")
			cancelCancel()

			if err := server.Stop(); err != nil {
				log.WithError(err).Fatal()
			}
		case <-ctx.Done():
			return
		}
	}()
	<-waiting
	log.Info("🏁 finished.")
}
