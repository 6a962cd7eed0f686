package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/spendlog/spendlog/internal/database/repository"
)

// amountTolerance absorbs rounding differences between statement amounts
// and amount-qualified rules.
var amountTolerance = decimal.New(1, -2) // 0.01

// MatchKind tags a classification result.
type MatchKind int

const (
	MatchNone MatchKind = iota
	MatchCategory
	MatchTransfer
)

// Match is the outcome of classifying one transaction: at most one
// category or one transfer counterparty, never both.
type Match struct {
	Kind MatchKind

	// CategoryID is set iff Kind == MatchCategory.
	CategoryID string

	// CounterpartyID is set iff Kind == MatchTransfer. It names the "other"
	// account; the caller assigns true source/target from is_credit.
	CounterpartyID string
}

// Matcher resolves transactions against the stored indicator rules.
// Matching itself is pure; callers decide what to do with a match.
type Matcher struct {
	Rules *repository.RuleRepo
}

// Classify attempts transfer resolution first, then category resolution.
func (m *Matcher) Classify(ctx context.Context, description string, amount decimal.Decimal, isCredit bool, residentAccountID string) (Match, error) {
	transferRules, err := m.Rules.ListTransferRulesFor(ctx, residentAccountID)
	if err != nil {
		return Match{}, err
	}
	if rule := matchTransferRules(transferRules, description); rule != nil {
		return Match{Kind: MatchTransfer, CounterpartyID: rule.TargetAccountID}, nil
	}

	categoryRules, err := m.Rules.ListCategoryRules(ctx)
	if err != nil {
		return Match{}, err
	}
	if rule := matchCategoryRules(categoryRules, description, amount, isCredit); rule != nil {
		return Match{Kind: MatchCategory, CategoryID: rule.CategoryID}, nil
	}
	return Match{Kind: MatchNone}, nil
}

// matchTransferRules picks the rule with the longest pattern appearing in
// the description. Rules arrive pre-sorted (longest first, insertion order
// on ties), so the first hit wins.
func matchTransferRules(rules []repository.TransferRule, description string) *repository.TransferRule {
	upper := strings.ToUpper(description)
	for i := range rules {
		if strings.Contains(upper, rules[i].Pattern) {
			return &rules[i]
		}
	}
	return nil
}

// matchCategoryRules scans rules in priority order: amount-qualified rules
// outrank unqualified ones regardless of pattern length, then longer
// patterns win. A rule matches when its pattern is a substring of the
// description, its amount qualifier (if any) is within tolerance, and its
// credit qualifier (if any) agrees.
func matchCategoryRules(rules []repository.CategoryRule, description string, amount decimal.Decimal, isCredit bool) *repository.CategoryRule {
	upper := strings.ToUpper(description)
	for i := range rules {
		rule := &rules[i]
		if !strings.Contains(upper, rule.Pattern) {
			continue
		}
		if rule.Amount != nil && amount.Sub(*rule.Amount).Abs().GreaterThan(amountTolerance) {
			continue
		}
		if rule.IsCredit != nil && *rule.IsCredit != isCredit {
			continue
		}
		return rule
	}
	return nil
}

// transferEndpoints assigns true source and target for a transfer. For a
// debit the resident account is where the money leaves; for a credit the
// resident account is the recipient and the counterparty funds it.
func transferEndpoints(residentAccountID, counterpartyID string, isCredit bool) (sourceID, targetID string) {
	if isCredit {
		return counterpartyID, residentAccountID
	}
	return residentAccountID, counterpartyID
}
