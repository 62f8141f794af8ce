package ledger

import (
	"sort"

	"github.com/billbatista/acasinha-splits/money"
)

// SettlementPlan is an ordered list of payments that zeroes every balance.
type SettlementPlan []OwesEdge

// Total is the amount of money moved by the plan.
func (p SettlementPlan) Total() money.Money {
	total := money.Zero()
	for _, e := range p {
		total = total.Add(e.Amount)
	}
	return total
}

type position struct {
	id        string
	remaining money.Money
}

// SimplifyDebts pairs the largest debtor with the largest creditor until every
// balance is within epsilon of zero.
//
// This is a greedy minimum-cash-flow heuristic. It always moves exactly the
// sum of positive balances and usually needs the fewest payments, but it is
// not an exact minimum-transaction solver; that problem is NP-hard and would
// be a separate algorithm.
func SimplifyDebts(balances NetBalance) SettlementPlan {
	var creditors, debtors []position
	for id, amt := range balances {
		switch {
		case amt.IsPositive():
			creditors = append(creditors, position{id: id, remaining: amt})
		case amt.IsNegative():
			debtors = append(debtors, position{id: id, remaining: amt.Neg()})
		}
	}
	sortLargestFirst(creditors)
	sortLargestFirst(debtors)

	plan := SettlementPlan{}
	ci, di := 0, 0
	for ci < len(creditors) && di < len(debtors) {
		c, d := &creditors[ci], &debtors[di]
		payment := c.remaining.Min(d.remaining)
		if !payment.NearZero() {
			plan = append(plan, OwesEdge{From: d.id, To: c.id, Amount: payment})
		}
		c.remaining = c.remaining.Sub(payment)
		d.remaining = d.remaining.Sub(payment)
		if c.remaining.NearZero() {
			ci++
		}
		if d.remaining.NearZero() {
			di++
		}
	}
	return plan
}

// sortLargestFirst orders by descending amount, ties by ascending id.
func sortLargestFirst(ps []position) {
	sort.Slice(ps, func(i, j int) bool {
		if c := ps[i].remaining.Cmp(ps[j].remaining); c != 0 {
			return c > 0
		}
		return ps[i].id < ps[j].id
	})
}
