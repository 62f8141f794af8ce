package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/billbatista/acasinha-splits/api"
	"github.com/billbatista/acasinha-splits/config"
	"github.com/billbatista/acasinha-splits/database"
	"github.com/billbatista/acasinha-splits/eventlogger"
	"github.com/billbatista/acasinha-splits/group"
	"github.com/billbatista/acasinha-splits/ledger"
	"github.com/billbatista/acasinha-splits/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		printErrorAndExit("loading config", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	db, err := database.Connect(cfg)
	if err != nil {
		printErrorAndExit("database connection", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		printErrorAndExit("running migrations", err)
	}

	evtlogger := eventlogger.NewSqlEventLogger(db)
	worker := eventlogger.NewWorker(evtlogger, cfg.EventBufferSize)
	worker.Start()
	defer worker.Shutdown()

	svc := group.NewService(
		group.NewRepository(db),
		user.NewRepository(db),
		ledger.NewRepository(db),
		worker,
		database.NewResetter(db),
	)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.NewRouter(svc, evtlogger, cfg.AdminTokenHash),
	}
	if cfg.AdminTokenHash == "" {
		slog.Warn("ADMIN_TOKEN_HASH not set, admin routes disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shut down server", "error", err)
		}
	}()

	slog.Info("server starting", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
	}
	slog.Info("server stopped, dropped activity events", "dropped", worker.Dropped())
}

func printErrorAndExit(msg string, e error) {
	slog.Error(msg, "error", e)
	os.Exit(1)
}
