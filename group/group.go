package group

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/billbatista/acasinha-splits/ledger"
	"github.com/billbatista/acasinha-splits/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyName      = errors.New("name can't be empty")
	ErrNoMembers      = errors.New("at least one member required")
	ErrGroupNotFound  = errors.New("group not found")
	ErrGroupNameTaken = errors.New("group name already exists")
	ErrUserNotFound   = errors.New("user not found")
	ErrNotMember      = errors.New("user not in group")
	ErrInvalidAmount  = errors.New("amount must be positive")
	ErrSelfSettlement = errors.New("cannot settle with yourself")
)

// Group is a set of users sharing one ledger.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	MemberIDs []string  `json:"memberIds"`
	CreatedAt time.Time `json:"createdAt"`
}

func (g Group) HasMember(userID string) bool {
	for _, id := range g.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

type Repository interface {
	Create(ctx context.Context, g Group) error
	List(ctx context.Context) ([]Group, error)
	GetByID(ctx context.Context, id string) (*Group, error)
	GetByName(ctx context.Context, name string) (*Group, error)
	AddMembers(ctx context.Context, groupID string, userIDs []string) error
}

func NewGroup(name string, memberIDs []string) (Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Group{}, ErrEmptyName
	}
	if len(memberIDs) == 0 {
		return Group{}, ErrNoMembers
	}

	return Group{
		ID:        uuid.NewString(),
		Name:      name,
		MemberIDs: dedupe(memberIDs),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// dedupe keeps the first occurrence of every id.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// SplitInput is one participant of an expense. Value is ignored for EQUAL,
// an amount for EXACT and a percentage for PERCENT.
type SplitInput struct {
	UserID string          `json:"userId"`
	Value  decimal.Decimal `json:"value"`
}

type ExpenseInput struct {
	GroupID     string        `json:"groupId"`
	PayerID     string        `json:"payerId"`
	Amount      money.Money   `json:"amount"`
	Description string        `json:"description,omitempty"`
	SplitType   ledger.Policy `json:"splitType"`
	Splits      []SplitInput  `json:"splits"`
}

// Expense is the result of recording an expense: the input plus the computed shares.
type Expense struct {
	ExpenseInput
	ID        string        `json:"id"`
	Shares    ledger.Shares `json:"shares"`
	CreatedAt time.Time     `json:"createdAt"`
}

type SettlementInput struct {
	GroupID    string      `json:"groupId"`
	FromUserID string      `json:"fromUserId"`
	ToUserID   string      `json:"toUserId"`
	Amount     money.Money `json:"amount"`
	Note       string      `json:"note,omitempty"`
}

type Settlement struct {
	SettlementInput
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}
