package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/billbatista/acasinha-splits/money"
)

type repository struct {
	db *sql.DB
}

// NewRepository stores ledger events in the ledger_entries table.
func NewRepository(db *sql.DB) *repository {
	return &repository{db: db}
}

// Append writes events atomically: either all of them land or none.
func (r *repository) Append(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO ledger_entries
		(id, group_id, kind, expense_id, settlement_id, from_user_id, to_user_id, amount, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	for _, ev := range events {
		var (
			expenseID, settlementID sql.NullString
			from, to                string
			amount                  money.Money
		)
		switch e := ev.(type) {
		case ExpenseSplit:
			expenseID = sql.NullString{String: e.ExpenseID, Valid: true}
			from, to, amount = e.From, e.To, e.Amount
		case Settlement:
			settlementID = sql.NullString{String: e.SettlementID, Valid: true}
			from, to, amount = e.From, e.To, e.Amount
		default:
			return fmt.Errorf("appending ledger entry: unhandled event type %T", ev)
		}

		h := ev.EventHeader()
		metadata, err := json.Marshal(h.Metadata)
		if err != nil {
			return fmt.Errorf("encoding metadata: %w", err)
		}

		_, err = tx.ExecContext(ctx, query,
			h.ID,
			h.GroupID,
			string(ev.Kind()),
			expenseID,
			settlementID,
			from,
			to,
			amount,
			metadata,
			h.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting ledger entry: %w", err)
		}
	}

	return tx.Commit()
}

// ListByGroup returns a group's events oldest first.
func (r *repository) ListByGroup(ctx context.Context, groupID string) ([]Event, error) {
	query := `SELECT id, group_id, kind, COALESCE(expense_id, ''), COALESCE(settlement_id, ''),
              from_user_id, to_user_id, amount, metadata, created_at
              FROM ledger_entries
              WHERE group_id = $1
              ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]Event, 0)
	for rows.Next() {
		var (
			h                       Header
			kind                    string
			expenseID, settlementID string
			from, to                string
			amount                  money.Money
			metadata                []byte
		)
		err := rows.Scan(&h.ID, &h.GroupID, &kind, &expenseID, &settlementID, &from, &to, &amount, &metadata, &h.CreatedAt)
		if err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &h.Metadata); err != nil {
				return nil, fmt.Errorf("decoding metadata of entry %s: %w", h.ID, err)
			}
		}

		switch Kind(kind) {
		case KindExpenseSplit:
			events = append(events, ExpenseSplit{Header: h, ExpenseID: expenseID, From: from, To: to, Amount: amount})
		case KindSettlement:
			events = append(events, Settlement{Header: h, SettlementID: settlementID, From: from, To: to, Amount: amount})
		default:
			return nil, fmt.Errorf("ledger entry %s: unknown kind %q", h.ID, kind)
		}
	}

	return events, rows.Err()
}

// DeleteByGroup wipes one group's ledger.
func (r *repository) DeleteByGroup(ctx context.Context, groupID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM ledger_entries WHERE group_id = $1`, groupID)
	return err
}
