package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"stockfolio-backend/bootstrap"
	"stockfolio-backend/internal/application/ledger"
	"stockfolio-backend/internal/config"
	"stockfolio-backend/internal/infrastructure/database"
	"stockfolio-backend/internal/interfaces/router"
	"stockfolio-backend/internal/pkg/logging"

	"github.com/google/subcommands"
)

// Register the subcommands.
func Register(c *subcommands.Commander) {
	c.Register(&migrateCmd{}, "database")
	c.Register(&seedCmd{}, "database")
	c.Register(&revalueCmd{}, "portfolios")
	c.Register(&quoteCmd{}, "prices")
}

var stdout io.Writer = os.Stdout

// connect loads configuration and wires the ledger the way the API does.
func connect(ctx context.Context) (*router.Deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg.SeedData = false
	logging.Setup(cfg.LogLevel, cfg.Env)
	return bootstrap.Connect(ctx, cfg)
}

type migrateCmd struct{}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "create or update the portfolio tables" }
func (*migrateCmd) Usage() string    { return "portfolioctl migrate\n" }
func (*migrateCmd) SetFlags(*flag.FlagSet) {}
func (*migrateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 0 {
		fmt.Fprintln(stdout, "no arguments expected")
		return subcommands.ExitUsageError
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stdout, err)
		return subcommands.ExitFailure
	}
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintln(stdout, err)
		return subcommands.ExitFailure
	}
	if err := database.AutoMigrate(db.WithContext(ctx)); err != nil {
		fmt.Fprintln(stdout, "migration failed:", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintln(stdout, "tables migrated")
	return subcommands.ExitSuccess
}

type seedCmd struct {
	userID string
}

func (*seedCmd) Name() string     { return "seed" }
func (*seedCmd) Synopsis() string { return "create the starter portfolio for a user without one" }
func (*seedCmd) Usage() string    { return "portfolioctl seed [-user id]\n" }
func (c *seedCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.userID, "user", "", "owning user id (default-user when empty)")
}
func (c *seedCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	deps, err := connect(ctx)
	if err != nil {
		fmt.Fprintln(stdout, err)
		return subcommands.ExitFailure
	}
	return runSeed(ctx, deps.Ledger, c.userID)
}

func runSeed(ctx context.Context, svc *ledger.Service, userID string) subcommands.ExitStatus {
	p, created, err := svc.Seed(ctx, userID)
	if err != nil {
		fmt.Fprintln(stdout, "seed failed:", err)
		return subcommands.ExitFailure
	}
	if !created {
		fmt.Fprintf(stdout, "user %s already has portfolio %s\n", p.UserID, p.PortfolioID)
		return subcommands.ExitSuccess
	}
	fmt.Fprintf(stdout, "created %q (%s) worth %.2f\n", p.Name, p.PortfolioID, p.TotalValue)
	return subcommands.ExitSuccess
}

type revalueCmd struct{}

func (*revalueCmd) Name() string     { return "revalue" }
func (*revalueCmd) Synopsis() string { return "refresh every portfolio at current prices" }
func (*revalueCmd) Usage() string    { return "portfolioctl revalue\n" }
func (*revalueCmd) SetFlags(*flag.FlagSet) {}
func (*revalueCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	deps, err := connect(ctx)
	if err != nil {
		fmt.Fprintln(stdout, err)
		return subcommands.ExitFailure
	}
	return runRevalue(ctx, deps.Ledger)
}

func runRevalue(ctx context.Context, svc *ledger.Service) subcommands.ExitStatus {
	n, err := svc.RefreshAll(ctx)
	fmt.Fprintf(stdout, "%d portfolios revalued\n", n)
	if err != nil {
		fmt.Fprintln(stdout, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type quoteCmd struct{}

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "print the current price of symbols" }
func (*quoteCmd) Usage() string    { return "portfolioctl quote SYMBOL...\n" }
func (*quoteCmd) SetFlags(*flag.FlagSet) {}
func (*quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(stdout, "at least one symbol expected")
		return subcommands.ExitUsageError
	}
	deps, err := connect(ctx)
	if err != nil {
		fmt.Fprintln(stdout, err)
		return subcommands.ExitFailure
	}
	return runQuote(ctx, deps, f.Args())
}

func runQuote(ctx context.Context, deps *router.Deps, symbols []string) subcommands.ExitStatus {
	enc := json.NewEncoder(stdout)
	status := subcommands.ExitSuccess
	for _, sym := range symbols {
		q, err := deps.Oracle.CurrentPrice(ctx, ledger.CanonicalSymbol(sym))
		if err != nil {
			fmt.Fprintf(stdout, "%s: %v\n", sym, err)
			status = subcommands.ExitFailure
			continue
		}
		_ = enc.Encode(q)
	}
	return status
}
