package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"trusthire/internal/config"
	"trusthire/internal/logger"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = config.DefaultPath
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	addr := flag.String("addr", cfg.Server.Address, "HTTP network address")
	debug := flag.Bool("debug", false, "development logging")
	flag.Parse()

	zl, err := logger.New(*debug)
	if err != nil {
		log.Fatal(err)
	}
	defer zl.Sync()

	if err := cfg.Validate(); err != nil {
		zl.Fatal("invalid configuration", zap.Error(err))
	}

	db, err := openDB(cfg.Database.Driver, cfg.Database.URL, zl)
	if err != nil {
		zl.Fatal("database unavailable", zap.Error(err))
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := initializeApp(ctx, cfg, db, zl)
	if err != nil {
		zl.Fatal("initialize application", zap.Error(err))
	}
	defer app.close()

	go app.hub.Run(ctx)
	startOrderCleaner(ctx, app.orderRepo, cfg.Payments.OrderTTL, cfg.Payments.CleanupInterval, app.log)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: true,
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Refresh-Token"},
		ExposedHeaders:   []string{"Authorization"},
	})

	srv := &http.Server{
		Addr:         *addr,
		ErrorLog:     logger.StdLog(zl),
		Handler:      c.Handler(app.routes()),
		IdleTimeout:  time.Minute,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("starting server", zap.String("addr", *addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server stopped", zap.Error(err))
		}
	case <-ctx.Done():
		zl.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zl.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}

func openDB(driver, dsn string, zl *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxIdleConns(35)
	db.SetConnMaxLifetime(5 * time.Minute)
	zl.Info("successfully connected to database", zap.String("driver", driver))
	return db, nil
}
