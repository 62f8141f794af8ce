package ledger

import (
	"strings"

	"github.com/billbatista/acasinha-splits/money"
	"github.com/shopspring/decimal"
)

// Policy selects how an expense total is divided among participants.
type Policy string

const (
	PolicyEqual   Policy = "EQUAL"
	PolicyExact   Policy = "EXACT"
	PolicyPercent Policy = "PERCENT"
)

var (
	oneHundred = decimal.NewFromInt(100)
	percentTol = decimal.New(1, -money.Places)
)

// ParsePolicy accepts a policy name in any case.
func ParsePolicy(s string) (Policy, error) {
	p := Policy(strings.ToUpper(strings.TrimSpace(s)))
	switch p {
	case PolicyEqual, PolicyExact, PolicyPercent:
		return p, nil
	}
	return "", &UnsupportedPolicyError{Policy: Policy(s)}
}

// Participant is one person taking part in an expense.
// Weight is ignored for Equal, an absolute amount for Exact and a percentage for Percent.
type Participant struct {
	UserID string
	Weight decimal.Decimal
}

// Share is what one participant owes for an expense.
type Share struct {
	UserID string      `json:"userId"`
	Amount money.Money `json:"amount"`
}

// Shares keeps participant input order.
type Shares []Share

// Total sums every share.
func (s Shares) Total() money.Money {
	total := money.Zero()
	for _, sh := range s {
		total = total.Add(sh.Amount)
	}
	return total
}

// ByUser indexes shares by participant.
func (s Shares) ByUser() map[string]money.Money {
	out := make(map[string]money.Money, len(s))
	for _, sh := range s {
		out[sh.UserID] = sh.Amount
	}
	return out
}

// ComputeShares divides amount among participants according to policy.
// The returned shares always sum to amount (rounded to cents) exactly: for Equal
// and Percent the last participant in input order absorbs the rounding residual.
func ComputeShares(amount money.Money, policy Policy, participants []Participant) (Shares, error) {
	if !amount.IsPositive() {
		return nil, invalid("amount", "amount must be a positive number, got %s", amount)
	}
	if len(participants) == 0 {
		return nil, invalid("participants", "at least one participant required")
	}
	seen := make(map[string]struct{}, len(participants))
	for _, p := range participants {
		if _, dup := seen[p.UserID]; dup {
			return nil, invalid("participants", "duplicate participant %q", p.UserID)
		}
		seen[p.UserID] = struct{}{}
	}

	switch policy {
	case PolicyEqual:
		return equalShares(amount, participants), nil
	case PolicyExact:
		return exactShares(amount, participants)
	case PolicyPercent:
		return percentShares(amount, participants)
	default:
		return nil, &UnsupportedPolicyError{Policy: policy}
	}
}

func equalShares(amount money.Money, participants []Participant) Shares {
	each := amount.Div(int64(len(participants)))
	shares := make(Shares, len(participants))
	for i, p := range participants {
		shares[i] = Share{UserID: p.UserID, Amount: each}
	}
	absorbResidual(amount, shares)
	return shares
}

func exactShares(amount money.Money, participants []Participant) (Shares, error) {
	shares := make(Shares, len(participants))
	for i, p := range participants {
		if p.Weight.IsNegative() {
			return nil, invalid("splits", "negative amount for %q", p.UserID)
		}
		shares[i] = Share{UserID: p.UserID, Amount: money.New(p.Weight)}
	}
	if total := shares.Total(); !total.NearlyEqual(amount) {
		return nil, invalid("splits", "splits must sum to total %s, got %s", amount, total)
	}
	return shares, nil
}

func percentShares(amount money.Money, participants []Participant) (Shares, error) {
	totalPercent := decimal.Zero
	for _, p := range participants {
		if p.Weight.IsNegative() {
			return nil, invalid("splits", "negative percentage for %q", p.UserID)
		}
		totalPercent = totalPercent.Add(p.Weight.Round(money.Places))
	}
	if totalPercent.Sub(oneHundred).Abs().GreaterThanOrEqual(percentTol) {
		return nil, invalid("splits", "percent splits must sum to 100, got %s", totalPercent)
	}

	shares := make(Shares, len(participants))
	for i, p := range participants {
		shares[i] = Share{UserID: p.UserID, Amount: amount.Percent(p.Weight)}
	}
	absorbResidual(amount, shares)
	return shares, nil
}

// absorbResidual makes shares sum to amount by adjusting the last share.
func absorbResidual(amount money.Money, shares Shares) {
	last := len(shares) - 1
	others := shares[:last].Total()
	shares[last].Amount = amount.Sub(others)
}
