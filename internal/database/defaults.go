package database

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spendlog/spendlog/internal/database/repository"
)

// SeedDefaults ensures baseline categories and a main account exist for
// new databases. It is idempotent and safe to run on every startup.
func SeedDefaults(ctx context.Context, db *sql.DB) error {
	catRepo := repository.NewCategoryRepo(db)
	existing, err := catRepo.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		defaults := []string{
			"Salary",
			"Food",
			"Social Life",
			"Self Development",
			"Transportation",
			"Culture",
			"Household",
			"Apparel",
			"Health",
			"Education",
			"Gift",
			"Tech",
			"Services",
			"Holidays",
			"Investing",
			"Donation",
			"Entertainment",
			"Corrections",
			"Inserted",
			"Other",
		}
		for _, name := range defaults {
			cat := repository.Category{ID: deterministicID("cat:" + name), Name: name}
			if err := catRepo.Insert(ctx, cat); err != nil {
				return err
			}
		}
	}

	acctRepo := repository.NewAccountRepo(db)
	accounts, err := acctRepo.List(ctx)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		main := repository.Account{
			ID:          deterministicID("acct:Main"),
			Name:        "Main",
			IsMain:      true,
			Balance:     decimal.Zero,
			Description: "Primary account",
		}
		if err := acctRepo.Insert(ctx, main); err != nil {
			return err
		}
	}
	return nil
}

func deterministicID(key string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}
