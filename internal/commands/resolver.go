package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/spendlog/spendlog/internal/database/repository"
	"github.com/spendlog/spendlog/internal/service"
)

// promptResolver asks the user on a terminal how to classify a
// transaction no rule matched. It can create categories and rules
// on the fly.
type promptResolver struct {
	in         *bufio.Scanner
	out        io.Writer
	categories *repository.CategoryRepo
	accounts   *repository.AccountRepo
	currency   string
}

func newPromptResolver(in io.Reader, out io.Writer, app *App) *promptResolver {
	return &promptResolver{
		in:         bufio.NewScanner(in),
		out:        out,
		categories: app.Categories,
		accounts:   app.Accounts,
		currency:   app.Config.UI.Currency,
	}
}

func (r *promptResolver) Resolve(ctx context.Context, rec service.Record, residentID string, suggestion *service.Suggestion) (service.Resolution, error) {
	sign := "-"
	if rec.IsCredit {
		sign = "+"
	}
	fmt.Fprintf(r.out, "\n%s  %s%s %s  %s\n",
		rec.Date.Format("02.01.2006"), sign, rec.Amount.StringFixed(2), r.currency, rec.Description)
	if suggestion != nil {
		fmt.Fprintf(r.out, "Similar to %q, previously %s\n", suggestion.Description, suggestion.CategoryName)
	}

	cats, err := r.categories.List(ctx)
	if err != nil {
		return service.Resolution{}, err
	}
	for i, c := range cats {
		fmt.Fprintf(r.out, "  %2d. %s\n", i+1, c.Name)
	}
	fmt.Fprintf(r.out, "  %2d. <new category>\n", len(cats)+1)
	fmt.Fprintf(r.out, "  %2d. transfer\n", len(cats)+2)
	fmt.Fprintf(r.out, "   0. skip\n")

	choice, err := r.promptInt("Category", 0, len(cats)+2)
	if err != nil {
		return service.Resolution{}, err
	}

	switch {
	case choice == 0:
		return service.Resolution{Skip: true}, nil
	case choice == len(cats)+2:
		return r.resolveTransfer(ctx, residentID)
	case choice == len(cats)+1:
		cat, err := r.createCategory(ctx)
		if err != nil {
			return service.Resolution{}, err
		}
		return r.resolveCategory(ctx, rec, cat.ID)
	default:
		return r.resolveCategory(ctx, rec, cats[choice-1].ID)
	}
}

func (r *promptResolver) resolveCategory(ctx context.Context, rec service.Record, categoryID string) (service.Resolution, error) {
	res := service.Resolution{CategoryID: categoryID}

	pattern, err := r.promptLine("Pattern to match in future (empty for none)")
	if err != nil {
		return service.Resolution{}, err
	}
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return res, nil
	}
	res.Pattern = pattern

	exact, err := r.promptYesNo(fmt.Sprintf("Only when amount is %s", rec.Amount.StringFixed(2)))
	if err != nil {
		return service.Resolution{}, err
	}
	if exact {
		amount := rec.Amount
		res.PatternAmount = &amount
	}

	direction, err := r.promptYesNo(fmt.Sprintf("Only when direction is %s", directionLabel(rec.IsCredit)))
	if err != nil {
		return service.Resolution{}, err
	}
	if direction {
		isCredit := rec.IsCredit
		res.PatternIsCredit = &isCredit
	}
	return res, nil
}

func (r *promptResolver) resolveTransfer(ctx context.Context, residentID string) (service.Resolution, error) {
	accounts, err := r.accounts.List(ctx)
	if err != nil {
		return service.Resolution{}, err
	}
	var others []repository.Account
	for _, a := range accounts {
		if a.ID != residentID {
			others = append(others, a)
		}
	}
	if len(others) == 0 {
		fmt.Fprintln(r.out, "No other account to transfer with; skipping.")
		return service.Resolution{Skip: true}, nil
	}

	for i, a := range others {
		fmt.Fprintf(r.out, "  %2d. %s\n", i+1, a.Name)
	}
	choice, err := r.promptInt("Other account", 1, len(others))
	if err != nil {
		return service.Resolution{}, err
	}
	res := service.Resolution{CounterpartyID: others[choice-1].ID}

	pattern, err := r.promptLine("Pattern to match in future (empty for none)")
	if err != nil {
		return service.Resolution{}, err
	}
	if pattern = strings.TrimSpace(pattern); pattern != "" {
		res.Pattern = pattern
	}
	return res, nil
}

func (r *promptResolver) createCategory(ctx context.Context) (*repository.Category, error) {
	name, err := r.promptLine("New category name")
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("category name: %w", repository.ErrValidation)
	}
	if existing, err := r.categories.GetByName(ctx, name); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}
	cat := repository.Category{ID: uuid.NewString(), Name: name}
	if err := r.categories.Insert(ctx, cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

func (r *promptResolver) promptLine(label string) (string, error) {
	fmt.Fprintf(r.out, "%s: ", label)
	if !r.in.Scan() {
		if err := r.in.Err(); err != nil {
			return "", err
		}
		return "", service.ErrResolutionCanceled
	}
	return r.in.Text(), nil
}

func (r *promptResolver) promptInt(label string, min, max int) (int, error) {
	for {
		line, err := r.promptLine(fmt.Sprintf("%s [%d-%d]", label, min, max))
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(line))
		if err == nil && n >= min && n <= max {
			return n, nil
		}
		fmt.Fprintln(r.out, "Invalid choice.")
	}
}

func (r *promptResolver) promptYesNo(label string) (bool, error) {
	line, err := r.promptLine(label + " [y/N]")
	if err != nil {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// resolverOrNil avoids handing the pipeline a non-nil interface wrapping
// a nil pointer.
func resolverOrNil(r *promptResolver) service.Resolver {
	if r == nil {
		return nil
	}
	return r
}

func directionLabel(isCredit bool) string {
	if isCredit {
		return "credit"
	}
	return "debit"
}
