package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spendlog/spendlog/internal/commands"
	"github.com/spendlog/spendlog/internal/config"
	"github.com/spendlog/spendlog/internal/database"
	"github.com/spendlog/spendlog/internal/database/repository"
	"github.com/spendlog/spendlog/internal/logging"
	"github.com/spendlog/spendlog/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "spendlog: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := logging.Init(cfg.Log.Level)

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return fmt.Errorf("mkdir db dir: %w", err)
	}

	if err := database.RunEmbeddedMigrations(cfg.Database.Path); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	if err := database.SeedDefaults(ctx, db); err != nil {
		return fmt.Errorf("seed defaults: %w", err)
	}

	accounts := repository.NewAccountRepo(db)
	categories := repository.NewCategoryRepo(db)
	transactions := repository.NewTransactionRepo(db)
	rules := repository.NewRuleRepo(db)

	ledger := service.NewLedger(db)
	matcher := &service.Matcher{Rules: rules}
	pipeline := &service.Pipeline{
		Ledger:       ledger,
		Matcher:      matcher,
		Rules:        rules,
		Transactions: transactions,
		Categories:   categories,
		Log:          log,
	}
	reporter := &service.Reporter{
		Transactions:  transactions,
		Categories:    categories,
		MonthStartDay: cfg.Report.MonthStartDay,
	}

	app := &commands.App{
		Config:       cfg,
		DB:           db,
		Accounts:     accounts,
		Categories:   categories,
		Transactions: transactions,
		Rules:        rules,
		Ledger:       ledger,
		Pipeline:     pipeline,
		Reporter:     reporter,
	}

	root := commands.NewRootCommand(app)
	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, service.ErrResolutionCanceled) {
			return nil
		}
		return err
	}
	return nil
}
