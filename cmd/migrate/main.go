package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samirrijal/barrierfree/internal/pkg/config"
	"github.com/samirrijal/barrierfree/internal/pkg/logging"
)

var migrations = []string{
	"migrations/001_nodes",
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down>")
	}

	cfg, err := config.Load("barrierfree-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup("barrierfree-migrate", cfg.Log.Level, "text")

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	switch os.Args[1] {
	case "up":
		for _, m := range migrations {
			apply(ctx, pool, m+".up.sql")
		}
	case "down":
		for i := len(migrations) - 1; i >= 0; i-- {
			apply(ctx, pool, migrations[i]+".down.sql")
		}
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}

	slog.Info("migrations applied", "direction", os.Args[1], "count", len(migrations))
}

func apply(ctx context.Context, pool *pgxpool.Pool, file string) {
	data, err := os.ReadFile(file)
	if err != nil {
		log.Fatalf("read %s: %v", file, err)
	}
	if _, err := pool.Exec(ctx, string(data)); err != nil {
		log.Fatalf("exec %s: %v", file, err)
	}
	slog.Info("OK", "file", file)
}
