package ledger

import (
	"time"

	"github.com/billbatista/acasinha-splits/money"
)

// Kind names an event variant in storage and JSON.
type Kind string

const (
	KindExpenseSplit Kind = "EXPENSE_SPLIT"
	KindSettlement   Kind = "SETTLEMENT"
)

// Header is shared by every ledger event. CreatedAt only orders events for
// display; it never influences balances.
type Header struct {
	ID        string            `json:"id"`
	GroupID   string            `json:"groupId"`
	CreatedAt time.Time         `json:"createdAt"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Event is an immutable, append-only ledger record. The set of implementations
// is closed: ExpenseSplit and Settlement.
type Event interface {
	EventHeader() Header
	Kind() Kind
	sealed()
}

// ExpenseSplit records that From owes To Amount for one expense.
type ExpenseSplit struct {
	Header
	ExpenseID string      `json:"expenseId"`
	From      string      `json:"fromUserId"`
	To        string      `json:"toUserId"`
	Amount    money.Money `json:"amount"`
}

// Settlement records that From paid To Amount, reducing debt.
type Settlement struct {
	Header
	SettlementID string      `json:"settlementId"`
	From         string      `json:"fromUserId"`
	To           string      `json:"toUserId"`
	Amount       money.Money `json:"amount"`
}

func (e ExpenseSplit) EventHeader() Header { return e.Header }
func (e ExpenseSplit) Kind() Kind          { return KindExpenseSplit }
func (ExpenseSplit) sealed()               {}

func (e Settlement) EventHeader() Header { return e.Header }
func (e Settlement) Kind() Kind          { return KindSettlement }
func (Settlement) sealed()               {}
