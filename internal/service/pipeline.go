package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spendlog/spendlog/internal/database/repository"
)

// Record is one already-parsed statement row. Bank-dialect parsing happens
// upstream; the pipeline assumes records arrive oldest first.
type Record struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	IsCredit    bool
	Reference   string
}

// Resolution is a manual decision for a record no rule matched. At most
// one of CategoryID / CounterpartyID may be set. A non-empty Pattern
// additionally saves an indicator rule — the only path that creates rules.
type Resolution struct {
	Skip            bool
	CategoryID      string
	CounterpartyID  string
	Pattern         string
	PatternAmount   *decimal.Decimal // category rules only
	PatternIsCredit *bool            // category rules only
}

// Resolver supplies manual decisions when classification comes up empty.
// residentAccountID is the account the record belongs to, so transfer
// pickers can exclude it. Returning ErrResolutionCanceled (or Skip) leaves
// the record uncategorized; state stays unchanged and the run is safe to
// resume.
type Resolver interface {
	Resolve(ctx context.Context, rec Record, residentAccountID string, suggestion *Suggestion) (Resolution, error)
}

// ErrResolutionCanceled signals the user backed out of a prompt. Treated
// as skip, not as an error.
var ErrResolutionCanceled = errors.New("resolution canceled")

// ImportResult counts one batch run.
type ImportResult struct {
	Imported int
	Skipped  int
}

// CategorizeResult counts one categorization pass over the backlog.
type CategorizeResult struct {
	Categorized int
	Skipped     int
}

// Pipeline drives statement records through duplicate detection, the
// matcher and the ledger.
type Pipeline struct {
	Ledger       *Ledger
	Matcher      *Matcher
	Rules        *repository.RuleRepo
	Transactions *repository.TransactionRepo
	Categories   *repository.CategoryRepo
	Log          *slog.Logger
}

// ImportBatch commits records against residentAccountID. Exact duplicates
// are skipped; unmatched records go to resolver, or stay uncategorized
// when resolver is nil.
func (p *Pipeline) ImportBatch(ctx context.Context, records []Record, residentAccountID string, resolver Resolver) (ImportResult, error) {
	var res ImportResult
	for _, rec := range records {
		dup, err := p.Ledger.DuplicateExists(ctx, rec.Date, rec.Description, rec.Amount)
		if err != nil {
			return res, err
		}
		if dup {
			res.Skipped++
			p.log().Debug("skipping duplicate", "date", rec.Date.Format(time.DateOnly), "description", rec.Description)
			continue
		}

		t := repository.Transaction{
			Date:        rec.Date,
			Description: rec.Description,
			Amount:      rec.Amount,
			IsCredit:    rec.IsCredit,
			Reference:   rec.Reference,
			AccountID:   residentAccountID,
		}

		match, err := p.Matcher.Classify(ctx, rec.Description, rec.Amount, rec.IsCredit, residentAccountID)
		if err != nil {
			return res, err
		}
		switch match.Kind {
		case MatchTransfer:
			sourceID, targetID := transferEndpoints(residentAccountID, match.CounterpartyID, rec.IsCredit)
			t.IsTransfer = true
			t.AccountID = sourceID
			t.TargetAccountID = &targetID
		case MatchCategory:
			catID := match.CategoryID
			t.CategoryID = &catID
		case MatchNone:
			if resolver != nil {
				resolution, err := p.resolve(ctx, rec, residentAccountID, resolver)
				if err != nil {
					return res, err
				}
				if !resolution.Skip {
					if err := p.applyResolution(ctx, &t, rec, residentAccountID, resolution); err != nil {
						return res, err
					}
				}
			}
		}

		if _, err := p.Ledger.Record(ctx, t); err != nil {
			return res, err
		}
		res.Imported++
	}
	return res, nil
}

// Classify resolves a single prospective transaction without committing
// anything.
func (p *Pipeline) Classify(ctx context.Context, description string, amount decimal.Decimal, isCredit bool, residentAccountID string) (Match, error) {
	return p.Matcher.Classify(ctx, description, amount, isCredit, residentAccountID)
}

// CategorizeUncategorized replays the uncategorized backlog, oldest first,
// through the same classify-then-ask flow used at import time. Rules
// created since import get a chance to fire before the resolver is asked.
func (p *Pipeline) CategorizeUncategorized(ctx context.Context, resolver Resolver) (CategorizeResult, error) {
	var res CategorizeResult
	backlog, err := p.Transactions.List(ctx, repository.TransactionFilters{Uncategorized: true, OrderAsc: true})
	if err != nil {
		return res, err
	}
	for _, t := range backlog {
		residentAccountID := t.AccountID
		match, err := p.Matcher.Classify(ctx, t.Description, t.Amount, t.IsCredit, residentAccountID)
		if err != nil {
			return res, err
		}
		switch match.Kind {
		case MatchTransfer:
			sourceID, targetID := transferEndpoints(residentAccountID, match.CounterpartyID, t.IsCredit)
			if err := p.Ledger.MarkTransfer(ctx, t.ID, sourceID, targetID); err != nil {
				return res, err
			}
			res.Categorized++
		case MatchCategory:
			if err := p.Ledger.Recategorize(ctx, t.ID, match.CategoryID); err != nil {
				return res, err
			}
			res.Categorized++
		case MatchNone:
			if resolver == nil {
				res.Skipped++
				continue
			}
			rec := Record{Date: t.Date, Description: t.Description, Amount: t.Amount, IsCredit: t.IsCredit, Reference: t.Reference}
			resolution, err := p.resolve(ctx, rec, residentAccountID, resolver)
			if err != nil {
				return res, err
			}
			if resolution.Skip {
				res.Skipped++
				continue
			}
			if err := p.applyResolutionToExisting(ctx, t, residentAccountID, resolution); err != nil {
				return res, err
			}
			res.Categorized++
		}
	}
	return res, nil
}

func (p *Pipeline) resolve(ctx context.Context, rec Record, residentAccountID string, resolver Resolver) (Resolution, error) {
	suggestion, err := p.Suggest(ctx, rec.Description)
	if err != nil {
		return Resolution{}, err
	}
	resolution, err := resolver.Resolve(ctx, rec, residentAccountID, suggestion)
	if errors.Is(err, ErrResolutionCanceled) {
		return Resolution{Skip: true}, nil
	}
	if err != nil {
		return Resolution{}, err
	}
	if resolution.CategoryID != "" && resolution.CounterpartyID != "" {
		return Resolution{}, fmt.Errorf("resolution cannot name both a category and a transfer target: %w", repository.ErrValidation)
	}
	return resolution, nil
}

// applyResolution shapes a new transaction before it is recorded, and
// saves a rule when the user supplied a pattern.
func (p *Pipeline) applyResolution(ctx context.Context, t *repository.Transaction, rec Record, residentAccountID string, r Resolution) error {
	switch {
	case r.CounterpartyID != "":
		sourceID, targetID := transferEndpoints(residentAccountID, r.CounterpartyID, rec.IsCredit)
		t.IsTransfer = true
		t.AccountID = sourceID
		t.TargetAccountID = &targetID
		if r.Pattern != "" {
			if _, err := p.Rules.AddTransferRule(ctx, r.Pattern, residentAccountID, r.CounterpartyID); err != nil {
				return err
			}
		}
	case r.CategoryID != "":
		catID := r.CategoryID
		t.CategoryID = &catID
		if r.Pattern != "" {
			if _, err := p.Rules.AddCategoryRule(ctx, r.Pattern, r.CategoryID, r.PatternAmount, r.PatternIsCredit); err != nil {
				return err
			}
		}
	}
	return nil
}

// applyResolutionToExisting mutates an already-recorded transaction
// through the ledger so balances stay reconciled.
func (p *Pipeline) applyResolutionToExisting(ctx context.Context, t repository.Transaction, residentAccountID string, r Resolution) error {
	switch {
	case r.CounterpartyID != "":
		sourceID, targetID := transferEndpoints(residentAccountID, r.CounterpartyID, t.IsCredit)
		if err := p.Ledger.MarkTransfer(ctx, t.ID, sourceID, targetID); err != nil {
			return err
		}
		if r.Pattern != "" {
			if _, err := p.Rules.AddTransferRule(ctx, r.Pattern, residentAccountID, r.CounterpartyID); err != nil {
				return err
			}
		}
	case r.CategoryID != "":
		if err := p.Ledger.Recategorize(ctx, t.ID, r.CategoryID); err != nil {
			return err
		}
		if r.Pattern != "" {
			if _, err := p.Rules.AddCategoryRule(ctx, r.Pattern, r.CategoryID, r.PatternAmount, r.PatternIsCredit); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Pipeline) log() *slog.Logger {
	if p.Log != nil {
		return p.Log
	}
	return slog.Default()
}
