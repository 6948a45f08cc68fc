package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/LocDev21/AgroData/internal/config"
	"github.com/LocDev21/AgroData/internal/db"
	httpapi "github.com/LocDev21/AgroData/internal/http"
	"github.com/LocDev21/AgroData/internal/repository"
	"github.com/LocDev21/AgroData/internal/scheduler"
	"github.com/LocDev21/AgroData/internal/service"
	"github.com/LocDev21/AgroData/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zlog := logger.Must(logger.New(cfg.Server.Debug))
	defer func() { _ = zlog.Sync() }()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DB.URL)
	if err != nil {
		zlog.Fatal("database error", zap.Error(err))
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool); err != nil {
		zlog.Fatal("migration error", zap.Error(err))
	}

	repo := repository.New(pool)
	svc := service.New(repo, logger.Named(zlog, "service"), cfg.Sales.RestoreStockOnDelete)
	handler := httpapi.NewHandler(svc)
	router := httpapi.NewRouter(handler, logger.Named(zlog, "http"))

	audit := scheduler.New(cfg.Audit, svc, logger.Named(zlog, "audit"))
	audit.Start()
	defer audit.Stop()

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		zlog.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			zlog.Error("force close failed", zap.Error(closeErr))
		}
	}
}
