package group

import (
	"context"
	"fmt"
	"time"

	"github.com/billbatista/acasinha-splits/eventlogger"
	"github.com/billbatista/acasinha-splits/ledger"
	"github.com/billbatista/acasinha-splits/user"
	chimiddleware "github.com/go-chi/chi/middleware"
	"github.com/google/uuid"
)

// EventStore persists the append-only ledger of every group.
type EventStore interface {
	Append(ctx context.Context, events ...ledger.Event) error
	ListByGroup(ctx context.Context, groupID string) ([]ledger.Event, error)
	DeleteByGroup(ctx context.Context, groupID string) error
}

// Resetter wipes every user, group, ledger and activity record at once.
type Resetter interface {
	ResetAll(ctx context.Context) error
}

// ActivityLog receives a record of every successful change.
type ActivityLog interface {
	Log(event eventlogger.Event) bool
}

// Service validates who may take part in an expense or settlement, turns
// requests into ledger events and derives balances from them on every read.
type Service struct {
	groups   Repository
	users    user.Repository
	events   EventStore
	activity ActivityLog
	reset    Resetter
	now      func() time.Time
}

func NewService(groups Repository, users user.Repository, events EventStore, activity ActivityLog, reset Resetter) *Service {
	return &Service{
		groups:   groups,
		users:    users,
		events:   events,
		activity: activity,
		reset:    reset,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) CreateUser(ctx context.Context, name string) (user.User, error) {
	u, err := user.NewUser(name)
	if err != nil {
		return user.User{}, err
	}
	if err := s.users.Create(ctx, u); err != nil {
		return user.User{}, err
	}

	s.record(ctx,
		eventlogger.WithType(eventlogger.TypeUserCreated),
		eventlogger.WithData(map[string]string{"user_id": u.ID, "name": u.Name}),
	)
	return u, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]user.User, error) {
	return s.users.List(ctx)
}

func (s *Service) CreateGroup(ctx context.Context, name string, memberIDs []string) (Group, error) {
	g, err := NewGroup(name, memberIDs)
	if err != nil {
		return Group{}, err
	}
	if err := s.ensureUsers(ctx, g.MemberIDs); err != nil {
		return Group{}, err
	}

	existing, err := s.groups.GetByName(ctx, g.Name)
	if err != nil {
		return Group{}, fmt.Errorf("looking up group name: %w", err)
	}
	if existing != nil {
		return Group{}, fmt.Errorf("%w: %s", ErrGroupNameTaken, g.Name)
	}

	if err := s.groups.Create(ctx, g); err != nil {
		return Group{}, err
	}

	s.record(ctx,
		eventlogger.WithType(eventlogger.TypeGroupCreated),
		eventlogger.WithGroup(g.ID),
		eventlogger.WithData(map[string]any{"name": g.Name, "member_ids": g.MemberIDs}),
	)
	return g, nil
}

func (s *Service) ListGroups(ctx context.Context) ([]Group, error) {
	return s.groups.List(ctx)
}

func (s *Service) GetGroup(ctx context.Context, groupID string) (Group, error) {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return Group{}, fmt.Errorf("fetching group: %w", err)
	}
	if g == nil {
		return Group{}, fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
	}
	return *g, nil
}

// AddMembers adds users to a group; users already in it are left alone.
func (s *Service) AddMembers(ctx context.Context, groupID string, userIDs []string) (Group, error) {
	if len(userIDs) == 0 {
		return Group{}, ErrNoMembers
	}
	g, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return Group{}, err
	}
	if err := s.ensureUsers(ctx, userIDs); err != nil {
		return Group{}, err
	}

	var added []string
	for _, id := range dedupe(userIDs) {
		if !g.HasMember(id) {
			added = append(added, id)
		}
	}
	if len(added) == 0 {
		return g, nil
	}

	if err := s.groups.AddMembers(ctx, groupID, added); err != nil {
		return Group{}, err
	}
	g.MemberIDs = append(g.MemberIDs, added...)

	s.record(ctx,
		eventlogger.WithType(eventlogger.TypeMembersAdded),
		eventlogger.WithGroup(g.ID),
		eventlogger.WithData(map[string]any{"user_ids": added}),
	)
	return g, nil
}

// CreateExpense splits an expense and appends one ledger event per
// participant who owes the payer. Split errors from the ledger package are
// returned unchanged.
func (s *Service) CreateExpense(ctx context.Context, in ExpenseInput) (Expense, error) {
	g, err := s.GetGroup(ctx, in.GroupID)
	if err != nil {
		return Expense{}, err
	}

	ids := make([]string, 0, len(in.Splits)+1)
	ids = append(ids, in.PayerID)
	participants := make([]ledger.Participant, 0, len(in.Splits))
	for _, sp := range in.Splits {
		ids = append(ids, sp.UserID)
		participants = append(participants, ledger.Participant{UserID: sp.UserID, Weight: sp.Value})
	}
	if err := s.ensureMembers(ctx, g, ids); err != nil {
		return Expense{}, err
	}

	shares, err := ledger.ComputeShares(in.Amount, in.SplitType, participants)
	if err != nil {
		return Expense{}, err
	}

	expense := Expense{
		ExpenseInput: in,
		ID:           uuid.NewString(),
		Shares:       shares,
		CreatedAt:    s.now(),
	}
	metadata := map[string]string{
		"description": in.Description,
		"total":       in.Amount.String(),
		"splitType":   string(in.SplitType),
	}
	events := ledger.ExpenseEvents(g.ID, expense.ID, in.PayerID, shares, metadata, expense.CreatedAt)
	if err := s.events.Append(ctx, events...); err != nil {
		return Expense{}, fmt.Errorf("appending expense events: %w", err)
	}

	s.record(ctx,
		eventlogger.WithType(eventlogger.TypeExpenseCreated),
		eventlogger.WithGroup(g.ID),
		eventlogger.WithData(expense),
	)
	return expense, nil
}

// CreateSettlement records that one member paid another.
func (s *Service) CreateSettlement(ctx context.Context, in SettlementInput) (Settlement, error) {
	if !in.Amount.IsPositive() {
		return Settlement{}, ErrInvalidAmount
	}
	if in.FromUserID == in.ToUserID {
		return Settlement{}, ErrSelfSettlement
	}
	g, err := s.GetGroup(ctx, in.GroupID)
	if err != nil {
		return Settlement{}, err
	}
	if err := s.ensureMembers(ctx, g, []string{in.FromUserID, in.ToUserID}); err != nil {
		return Settlement{}, err
	}

	settlement := Settlement{
		SettlementInput: in,
		ID:              uuid.NewString(),
		CreatedAt:       s.now(),
	}
	metadata := map[string]string{"note": in.Note}
	event := ledger.SettlementEvent(g.ID, settlement.ID, in.FromUserID, in.ToUserID, in.Amount, metadata, settlement.CreatedAt)
	if err := s.events.Append(ctx, event); err != nil {
		return Settlement{}, fmt.Errorf("appending settlement event: %w", err)
	}

	s.record(ctx,
		eventlogger.WithType(eventlogger.TypeSettlementCreated),
		eventlogger.WithGroup(g.ID),
		eventlogger.WithData(settlement),
	)
	return settlement, nil
}

// Balances recomputes the group's summary from its full ledger.
func (s *Service) Balances(ctx context.Context, groupID string) (ledger.BalanceSummary, error) {
	if _, err := s.GetGroup(ctx, groupID); err != nil {
		return ledger.BalanceSummary{}, err
	}
	events, err := s.events.ListByGroup(ctx, groupID)
	if err != nil {
		return ledger.BalanceSummary{}, fmt.Errorf("loading ledger: %w", err)
	}
	return ledger.ComputeBalances(groupID, events), nil
}

// Ledger lists a group's events oldest first.
func (s *Service) Ledger(ctx context.Context, groupID string) ([]ledger.Event, error) {
	if _, err := s.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return s.events.ListByGroup(ctx, groupID)
}

// ResetGroup deletes a group's ledger; the group and its members stay.
func (s *Service) ResetGroup(ctx context.Context, groupID string) error {
	if _, err := s.GetGroup(ctx, groupID); err != nil {
		return err
	}
	if err := s.events.DeleteByGroup(ctx, groupID); err != nil {
		return fmt.Errorf("deleting ledger: %w", err)
	}

	s.record(ctx,
		eventlogger.WithType(eventlogger.TypeGroupReset),
		eventlogger.WithGroup(groupID),
	)
	return nil
}

// ResetAll deletes every ledger, group, user and activity record in one
// step: either everything is cleared or nothing is.
func (s *Service) ResetAll(ctx context.Context) error {
	if err := s.reset.ResetAll(ctx); err != nil {
		return fmt.Errorf("resetting store: %w", err)
	}

	s.record(ctx, eventlogger.WithType(eventlogger.TypeAllReset))
	return nil
}

// record sends an activity event, tagged with the request id when ctx
// carries one.
func (s *Service) record(ctx context.Context, opts ...eventlogger.EventOption) {
	if reqID := chimiddleware.GetReqID(ctx); reqID != "" {
		opts = append(opts, eventlogger.WithMetadata("request_id", reqID))
	}
	s.activity.Log(eventlogger.NewEvent(opts...))
}

func (s *Service) ensureUsers(ctx context.Context, userIDs []string) error {
	for _, id := range userIDs {
		u, err := s.users.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("fetching user: %w", err)
		}
		if u == nil {
			return fmt.Errorf("%w: %s", ErrUserNotFound, id)
		}
	}
	return nil
}

func (s *Service) ensureMembers(ctx context.Context, g Group, userIDs []string) error {
	if err := s.ensureUsers(ctx, userIDs); err != nil {
		return err
	}
	for _, id := range userIDs {
		if !g.HasMember(id) {
			return fmt.Errorf("%w: %s", ErrNotMember, id)
		}
	}
	return nil
}
