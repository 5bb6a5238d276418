package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/forecourt-hq/forecourt/cmd/forecourt/cli"
	"github.com/forecourt-hq/forecourt/internal/ap"
	"github.com/forecourt-hq/forecourt/internal/app"
	"github.com/forecourt-hq/forecourt/internal/ledger/accounts"
	"github.com/forecourt-hq/forecourt/internal/ledger/roles"
	"github.com/forecourt-hq/forecourt/internal/notify"
	"github.com/forecourt-hq/forecourt/internal/platform/db"
	"github.com/forecourt-hq/forecourt/internal/shared"
)

// runSubcommand handles the operational commands that share the server's
// configuration but run to completion instead of serving.
func runSubcommand(ctx context.Context, cfg *app.Config, logger *slog.Logger, name string, args []string) int {
	switch name {
	case "seed":
		return runSeed(ctx, cfg, logger, args)
	case "import-purchases":
		return runImportPurchases(ctx, cfg, logger, args)
	case "jobs":
		return runJobs(ctx, cfg, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q (expected seed, import-purchases or jobs)\n", name)
		return 2
	}
}

func runSeed(ctx context.Context, cfg *app.Config, logger *slog.Logger, args []string) int {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	mode := fs.String("mode", "dry", "dry previews the chart, apply creates missing accounts")
	jsonOut := fs.Bool("json", false, "emit JSON instead of human-readable output")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		return 1
	}
	defer pool.Close()

	seeder := cli.NewSeedCLI(accounts.NewService(accounts.NewRepository(pool)))
	return seeder.SeedCommand(ctx, cli.SeedOptions{
		Mode:       cli.SeedMode(*mode),
		JSONOutput: *jsonOut,
	})
}

func runImportPurchases(ctx context.Context, cfg *app.Config, logger *slog.Logger, args []string) int {
	fs := flag.NewFlagSet("import-purchases", flag.ContinueOnError)
	mode := fs.String("mode", "dry", "dry previews the rows, apply records them")
	source := fs.String("source", "", "CSV file with supplier_id, date and total columns, or - for stdin")
	jsonOut := fs.Bool("json", false, "emit JSON instead of human-readable output")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		return 1
	}
	defer pool.Close()

	rolesTable := roles.Defaults().WithOverrides(roleOverrides(cfg))
	// Backfills skip notifications and report-cache bumps; the nightly
	// integrity sweep picks up the recomputed balances.
	apService := ap.NewService(ap.NewRepository(pool), rolesTable, notify.NopNotifier{},
		shared.NewAuditLogger(pool), nil, nil, nil, logger)

	importer := cli.NewPurchaseImportCLI(apService)
	return importer.ImportCommand(ctx, cli.ImportOptions{
		Mode:       cli.ImportMode(*mode),
		Source:     *source,
		JSONOutput: *jsonOut,
	})
}

func runJobs(ctx context.Context, cfg *app.Config, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "jobs: expected trigger, inspect or scheduled")
		return 2
	}

	jobsCLI, err := cli.NewJobsCLI(cfg.RedisAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jobs: %v\n", err)
		return 1
	}
	defer jobsCLI.Close()

	switch args[0] {
	case "trigger":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "jobs trigger: job name required")
			return 2
		}
		info, err := jobsCLI.Trigger(ctx, args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "jobs trigger: %v\n", err)
			return 1
		}
		fmt.Printf("enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
		return 0
	case "inspect":
		stats, err := jobsCLI.InspectQueues(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "jobs inspect: %v\n", err)
			return 1
		}
		for _, q := range stats {
			fmt.Printf("%s: pending=%d active=%d scheduled=%d retry=%d\n",
				q.Queue, q.Pending, q.Active, q.Scheduled, q.Retry)
		}
		return 0
	case "scheduled":
		tasks, err := jobsCLI.ListScheduled(ctx, 20)
		if err != nil {
			fmt.Fprintf(os.Stderr, "jobs scheduled: %v\n", err)
			return 1
		}
		for _, task := range tasks {
			fmt.Printf("%s id=%s next=%s\n", task.Type, task.ID, task.NextProcessAt.Format("2006-01-02 15:04:05"))
		}
		return 0
	default:
		fmt.Fprintf(os.Stderr, "jobs: unknown action %q\n", args[0])
		return 2
	}
}
