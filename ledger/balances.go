package ledger

import (
	"fmt"
	"sort"

	"github.com/billbatista/acasinha-splits/money"
)

// NetBalance maps a participant to a signed amount: positive is owed money,
// negative owes money.
type NetBalance map[string]money.Money

// Sum adds every balance. For any ledger it is zero.
func (nb NetBalance) Sum() money.Money {
	ids := make([]string, 0, len(nb))
	for id := range nb {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	total := money.Zero()
	for _, id := range ids {
		total = total.Add(nb[id])
	}
	return total
}

// Apply returns a copy of nb with every payment in plan made: the payer's
// balance rises and the payee's falls.
func (nb NetBalance) Apply(plan SettlementPlan) NetBalance {
	out := make(NetBalance, len(nb))
	for id, amt := range nb {
		out[id] = amt
	}
	for _, p := range plan {
		out[p.From] = out[p.From].Add(p.Amount)
		out[p.To] = out[p.To].Sub(p.Amount)
	}
	return out
}

func (nb NetBalance) add(id string, delta money.Money) {
	nb[id] = nb[id].Add(delta)
}

// OwesEdge states that From owes To Amount.
type OwesEdge struct {
	From   string      `json:"fromUserId"`
	To     string      `json:"toUserId"`
	Amount money.Money `json:"amount"`
}

// BalanceSummary is everything derived from one group's ledger.
type BalanceSummary struct {
	GroupID    string         `json:"groupId"`
	Totals     NetBalance     `json:"totalsByUser"`
	Edges      []OwesEdge     `json:"edges"`
	Simplified SettlementPlan `json:"simplified"`
}

// ComputeBalances folds the events belonging to groupID into net balances,
// the combined owes-graph and a simplified settlement plan. Events of other
// groups are skipped. The result does not depend on event order.
//
// Edges are combined per ordered (from, to) pair only; A→B and B→A are
// reported separately. Netting them is left to SimplifyDebts.
func ComputeBalances(groupID string, events []Event) BalanceSummary {
	totals := make(NetBalance)
	var raw []OwesEdge

	for _, ev := range events {
		ev, ok := deref(ev)
		if !ok || ev.EventHeader().GroupID != groupID {
			continue
		}
		switch e := ev.(type) {
		case ExpenseSplit:
			raw = append(raw, OwesEdge{From: e.From, To: e.To, Amount: e.Amount})
			totals.add(e.From, e.Amount.Neg())
			totals.add(e.To, e.Amount)
		case Settlement:
			raw = append(raw, OwesEdge{From: e.From, To: e.To, Amount: e.Amount.Neg()})
			totals.add(e.From, e.Amount)
			totals.add(e.To, e.Amount.Neg())
		default:
			panic(fmt.Sprintf("ledger: unhandled event type %T", ev))
		}
	}

	return BalanceSummary{
		GroupID:    groupID,
		Totals:     totals,
		Edges:      combineEdges(raw),
		Simplified: SimplifyDebts(totals),
	}
}

// deref turns pointer variants into values. Nil events are reported as
// not ok.
func deref(ev Event) (Event, bool) {
	switch e := ev.(type) {
	case nil:
		return nil, false
	case *ExpenseSplit:
		if e == nil {
			return nil, false
		}
		return *e, true
	case *Settlement:
		if e == nil {
			return nil, false
		}
		return *e, true
	}
	return ev, true
}

type pair struct{ from, to string }

// combineEdges sums edges per ordered pair, drops settled pairs and returns
// the rest sorted by (from, to).
func combineEdges(raw []OwesEdge) []OwesEdge {
	sums := make(map[pair]money.Money)
	for _, e := range raw {
		k := pair{e.From, e.To}
		sums[k] = sums[k].Add(e.Amount)
	}

	out := make([]OwesEdge, 0, len(sums))
	for k, amt := range sums {
		if amt.NearZero() {
			continue
		}
		out = append(out, OwesEdge{From: k.from, To: k.to, Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}
