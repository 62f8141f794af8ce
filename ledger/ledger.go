// Package ledger is the accounting core: it splits expenses into shares,
// folds a group's ledger events into net balances and an owes-graph, and
// reduces those balances to a short settlement plan.
//
// ComputeShares, ComputeBalances and SimplifyDebts are pure functions over
// their arguments and are safe for concurrent use.
package ledger

import (
	"time"

	"github.com/billbatista/acasinha-splits/money"
	"github.com/google/uuid"
)

// ExpenseEvents turns computed shares into ExpenseSplit events, one per
// participant owing the payer. The payer's own share produces no event.
func ExpenseEvents(groupID, expenseID, payerID string, shares Shares, metadata map[string]string, now time.Time) []Event {
	events := make([]Event, 0, len(shares))
	for _, sh := range shares {
		if sh.UserID == payerID {
			continue
		}
		events = append(events, ExpenseSplit{
			Header: Header{
				ID:        uuid.NewString(),
				GroupID:   groupID,
				CreatedAt: now,
				Metadata:  metadata,
			},
			ExpenseID: expenseID,
			From:      sh.UserID,
			To:        payerID,
			Amount:    sh.Amount,
		})
	}
	return events
}

// SettlementEvent records a payment from one participant to another.
func SettlementEvent(groupID, settlementID, fromID, toID string, amount money.Money, metadata map[string]string, now time.Time) Event {
	return Settlement{
		Header: Header{
			ID:        uuid.NewString(),
			GroupID:   groupID,
			CreatedAt: now,
			Metadata:  metadata,
		},
		SettlementID: settlementID,
		From:         fromID,
		To:           toID,
		Amount:       amount,
	}
}
