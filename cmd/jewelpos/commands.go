package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/Ayushchauha111/jewelpos/cmd/jewelpos/cli"
	"github.com/Ayushchauha111/jewelpos/internal/app"
	"github.com/Ayushchauha111/jewelpos/internal/platform/db"
	"github.com/Ayushchauha111/jewelpos/internal/rates"
	"github.com/Ayushchauha111/jewelpos/migrations"
)

// runCommand executes an operator subcommand and returns the process exit code.
func runCommand(ctx context.Context, cfg *app.Config, logger *slog.Logger, args []string) int {
	switch args[0] {
	case "migrate":
		pool, err := db.New(ctx, cfg.PGDSN, 2)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			return 1
		}
		defer pool.Close()
		if err := db.Migrate(ctx, pool, migrations.Files, logger); err != nil {
			logger.Error("migrate", slog.Any("error", err))
			return 1
		}
		return 0
	case "rates":
		pool, err := db.New(ctx, cfg.PGDSN, 2)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			return 1
		}
		defer pool.Close()
		ratesCLI, err := cli.NewRatesCLI(rates.NewService(rates.NewRepository(pool), logger))
		if err != nil {
			logger.Error("init rates cli", slog.Any("error", err))
			return 1
		}
		return cli.RunRates(ctx, ratesCLI, args[1:], os.Stdout, os.Stderr)
	case "jobs":
		jobsCLI, err := cli.NewJobsCLI(cfg.RedisAddr)
		if err != nil {
			logger.Error("init jobs cli", slog.Any("error", err))
			return 1
		}
		defer func() {
			if err := jobsCLI.Close(); err != nil {
				logger.Warn("jobs cli close", slog.Any("error", err))
			}
		}()
		return cli.RunJobs(ctx, jobsCLI.Runner(), args[1:], os.Stdout, os.Stderr)
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown command %q (want serve, migrate, rates or jobs)\n", args[0])
		return 2
	}
}
