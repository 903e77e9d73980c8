package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/steinkopfgrant/fantasy-draft-sub002/internal/audit"
	"github.com/steinkopfgrant/fantasy-draft-sub002/internal/board"
	"github.com/steinkopfgrant/fantasy-draft-sub002/internal/config"
	"github.com/steinkopfgrant/fantasy-draft-sub002/internal/httpapi"
	"github.com/steinkopfgrant/fantasy-draft-sub002/internal/hub"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store audit.Store
	if cfg.DatabaseURL != "" {
		db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
		if err != nil {
			logger.Fatal("postgres open failed", zap.Error(err))
		}
		store, err = audit.NewGormStore(db)
		if err != nil {
			logger.Fatal("audit migration failed", zap.Error(err))
		}
	} else {
		logger.Warn("DATABASE_URL not set, audit log is in-memory only")
		store = audit.NewMemoryStore()
	}

	h := hub.NewHub(ctx, hub.Config{
		Logger:     logger,
		Audit:      store,
		Boards:     board.New(),
		TurnLimit:  cfg.TurnLimit,
		QueueBound: cfg.QueueBound,
		Retention:  cfg.Retention,
	})

	srv := &http.Server{Addr: cfg.Addr, Handler: httpapi.SetupRoutes(h)}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		h.Inbox() <- hub.ShutdownHub{}
		return srv.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
