package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shinyyama/harvest-market-backend/internal/config"
	"github.com/shinyyama/harvest-market-backend/internal/db"
	"github.com/shinyyama/harvest-market-backend/internal/dispatch"
	"github.com/shinyyama/harvest-market-backend/internal/lock"
	"github.com/shinyyama/harvest-market-backend/internal/logger"
	"github.com/shinyyama/harvest-market-backend/internal/server"
)

var (
	gitSHA    = "dev"
	buildTime = ""
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "json").WithError(err).Fatal("config load error")
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := server.Options{
		AuthMode:                cfg.AuthMode,
		FirebaseProjectID:       cfg.FirebaseProjectID,
		FirebaseCredentialsFile: cfg.FirebaseCredentialsFile,
		SHA:                     gitSHA,
		BuildTime:               buildTime,
	}

	if cfg.RedisAddress != "" {
		rdb, err := lock.ConnectRedis(ctx, cfg.RedisAddress)
		if err != nil {
			log.WithError(err).Warn("redis unavailable, using in-process locks")
		} else {
			defer rdb.Close()
			opts.Locker = lock.NewRedisLocker(rdb, 10*time.Second)
		}
	}

	if cfg.PubSubProjectID != "" && cfg.PubSubTopic != "" {
		pub, err := dispatch.NewPubSubPublisher(ctx, cfg.PubSubProjectID, cfg.PubSubTopic)
		if err != nil {
			log.WithError(err).Warn("pubsub unavailable, notifications will not be dispatched")
		} else {
			defer pub.Close()
			opts.Publisher = pub
		}
	}

	srv, err := server.New(nil, log, opts)
	if err != nil {
		log.WithError(err).Fatal("server init error")
	}

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)

	go func() {
		log.WithField("addr", addr).Info("starting server")
		errCh <- srv.Start(addr)
	}()

	go func() {
		conn, err := db.Connect(cfg)
		if err != nil {
			log.WithError(err).Error("db connect error")
			return
		}
		if err := db.Migrate(conn); err != nil {
			log.WithError(err).Error("auto migrate error")
			return
		}
		srv.SetDB(conn)
		log.WithField("driver", cfg.DBDriver).Info("database ready")
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("shutdown error")
		}
	}
}
