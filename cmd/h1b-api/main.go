package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"h1b-statistics/internal/api"
	"h1b-statistics/internal/api/handler"
	"h1b-statistics/internal/model"
	"h1b-statistics/internal/pipeline"
	"h1b-statistics/internal/store"
	"h1b-statistics/pkg/router"
)

var (
	addr   = flag.String("addr", ":8080", "Listen address")
	dbPath = flag.String("db", "h1b.db", "Run history sqlite database")
)

func main() {
	flag.Parse()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, *addr, *dbPath)
	stop()
	if err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, addr, dbPath string) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open run history %s: %w", dbPath, err)
	}
	defer st.Close()

	r := router.New()
	api.RegisterRoutes(r, handler.New(pipeline.New(st), st, model.DefaultConfig()))
	return r.Start(ctx, addr)
}
