package group

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/billbatista/acasinha-splits/eventlogger"
	"github.com/billbatista/acasinha-splits/ledger"
	"github.com/billbatista/acasinha-splits/money"
	"github.com/billbatista/acasinha-splits/user"
	chimiddleware "github.com/go-chi/chi/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUsers struct {
	mu    sync.Mutex
	users []user.User
}

func (m *memUsers) Create(_ context.Context, u user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = append(m.users, u)
	return nil
}

func (m *memUsers) List(_ context.Context) ([]user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]user.User(nil), m.users...), nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, nil
}

type memGroups struct {
	mu     sync.Mutex
	groups []Group
}

func (m *memGroups) Create(_ context.Context, g Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g.MemberIDs = append([]string(nil), g.MemberIDs...)
	m.groups = append(m.groups, g)
	return nil
}

func (m *memGroups) List(_ context.Context) ([]Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Group(nil), m.groups...), nil
}

func (m *memGroups) find(match func(Group) bool) *Group {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.groups {
		if match(g) {
			g.MemberIDs = append([]string(nil), g.MemberIDs...)
			return &g
		}
	}
	return nil
}

func (m *memGroups) GetByID(_ context.Context, id string) (*Group, error) {
	return m.find(func(g Group) bool { return g.ID == id }), nil
}

func (m *memGroups) GetByName(_ context.Context, name string) (*Group, error) {
	return m.find(func(g Group) bool { return strings.EqualFold(g.Name, name) }), nil
}

func (m *memGroups) AddMembers(_ context.Context, groupID string, userIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.groups {
		if m.groups[i].ID == groupID {
			for _, id := range userIDs {
				if !m.groups[i].HasMember(id) {
					m.groups[i].MemberIDs = append(m.groups[i].MemberIDs, id)
				}
			}
		}
	}
	return nil
}

type memEvents struct {
	mu     sync.Mutex
	events []ledger.Event
	err    error
}

func (m *memEvents) Append(_ context.Context, events ...ledger.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, events...)
	return nil
}

func (m *memEvents) ListByGroup(_ context.Context, groupID string) ([]ledger.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ledger.Event
	for _, e := range m.events {
		if e.EventHeader().GroupID == groupID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EventHeader().CreatedAt.Before(out[j].EventHeader().CreatedAt)
	})
	return out, nil
}

func (m *memEvents) DeleteByGroup(_ context.Context, groupID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.events[:0]
	for _, e := range m.events {
		if e.EventHeader().GroupID != groupID {
			kept = append(kept, e)
		}
	}
	m.events = kept
	return nil
}

// memStore clears every fake at once, or none of them when err is set.
type memStore struct {
	users    *memUsers
	groups   *memGroups
	events   *memEvents
	activity *recordingActivity
	err      error
}

func (m *memStore) ResetAll(_ context.Context) error {
	if m.err != nil {
		return m.err
	}
	m.users.mu.Lock()
	m.users.users = nil
	m.users.mu.Unlock()
	m.groups.mu.Lock()
	m.groups.groups = nil
	m.groups.mu.Unlock()
	m.events.mu.Lock()
	m.events.events = nil
	m.events.mu.Unlock()
	m.activity.mu.Lock()
	m.activity.events = nil
	m.activity.mu.Unlock()
	return nil
}

type recordingActivity struct {
	mu     sync.Mutex
	events []eventlogger.Event
}

func (r *recordingActivity) Log(e eventlogger.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return true
}

func (r *recordingActivity) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	svc      *Service
	store    *memStore
	events   *memEvents
	activity *recordingActivity
	alice    user.User
	bob      user.User
	cara     user.User
	group    Group
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{events: &memEvents{}, activity: &recordingActivity{}}
	f.store = &memStore{users: &memUsers{}, groups: &memGroups{}, events: f.events, activity: f.activity}
	f.svc = NewService(f.store.groups, f.store.users, f.events, f.activity, f.store)

	var err error
	f.alice, err = f.svc.CreateUser(ctx, "Alice")
	require.NoError(t, err)
	f.bob, err = f.svc.CreateUser(ctx, "Bob")
	require.NoError(t, err)
	f.cara, err = f.svc.CreateUser(ctx, "Cara")
	require.NoError(t, err)

	f.group, err = f.svc.CreateGroup(ctx, "Trip", []string{f.alice.ID, f.bob.ID, f.cara.ID})
	require.NoError(t, err)
	return f
}

func (f *fixture) equalExpense(payer user.User, cents int64, among ...user.User) ExpenseInput {
	splits := make([]SplitInput, len(among))
	for i, u := range among {
		splits[i] = SplitInput{UserID: u.ID, Value: decimal.NewFromInt(1)}
	}
	return ExpenseInput{
		GroupID:     f.group.ID,
		PayerID:     payer.ID,
		Amount:      money.Cents(cents),
		Description: "Dinner",
		SplitType:   ledger.PolicyEqual,
		Splits:      splits,
	}
}

func assertTotals(t *testing.T, want map[string]int64, got ledger.NetBalance) {
	t.Helper()
	for id, cents := range want {
		assert.True(t, got[id].Equal(money.Cents(cents)), "%s: got %s, want %s", id, got[id], money.Cents(cents))
	}
}

func TestServiceExpenseThenSettlement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	expense, err := f.svc.CreateExpense(ctx, f.equalExpense(f.alice, 9000, f.alice, f.bob, f.cara))
	require.NoError(t, err)
	assert.NotEmpty(t, expense.ID)
	assert.Len(t, expense.Shares, 3)
	require.Len(t, f.events.events, 2, "payer's own share must not produce an event")

	summary, err := f.svc.Balances(ctx, f.group.ID)
	require.NoError(t, err)
	assertTotals(t, map[string]int64{f.alice.ID: 6000, f.bob.ID: -3000, f.cara.ID: -3000}, summary.Totals)
	assert.Len(t, summary.Simplified, 2)

	_, err = f.svc.CreateSettlement(ctx, SettlementInput{
		GroupID:    f.group.ID,
		FromUserID: f.bob.ID,
		ToUserID:   f.alice.ID,
		Amount:     money.Cents(3000),
	})
	require.NoError(t, err)

	summary, err = f.svc.Balances(ctx, f.group.ID)
	require.NoError(t, err)
	assertTotals(t, map[string]int64{f.alice.ID: 3000, f.bob.ID: 0, f.cara.ID: -3000}, summary.Totals)
	require.Len(t, summary.Simplified, 1)
	assert.Equal(t, f.cara.ID, summary.Simplified[0].From)
	assert.Equal(t, f.alice.ID, summary.Simplified[0].To)
	assert.True(t, summary.Totals.Sum().NearZero())

	entries, err := f.svc.Ledger(ctx, f.group.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	assert.Equal(t, []string{
		eventlogger.TypeUserCreated,
		eventlogger.TypeUserCreated,
		eventlogger.TypeUserCreated,
		eventlogger.TypeGroupCreated,
		eventlogger.TypeExpenseCreated,
		eventlogger.TypeSettlementCreated,
	}, f.activity.types())
}

func TestServiceCreateExpenseErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	outsider, err := f.svc.CreateUser(ctx, "Dan")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(in *ExpenseInput)
		check  func(t *testing.T, err error)
	}{
		{
			name:   "unknown group",
			mutate: func(in *ExpenseInput) { in.GroupID = "nope" },
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrGroupNotFound) },
		},
		{
			name:   "unknown payer",
			mutate: func(in *ExpenseInput) { in.PayerID = "ghost" },
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrUserNotFound) },
		},
		{
			name:   "participant outside group",
			mutate: func(in *ExpenseInput) { in.Splits = append(in.Splits, SplitInput{UserID: outsider.ID}) },
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrNotMember) },
		},
		{
			name: "exact splits short of total",
			mutate: func(in *ExpenseInput) {
				in.Amount = money.Cents(10000)
				in.SplitType = ledger.PolicyExact
				in.Splits = []SplitInput{
					{UserID: f.alice.ID, Value: decimal.NewFromInt(40)},
					{UserID: f.bob.ID, Value: decimal.NewFromInt(50)},
				}
			},
			check: func(t *testing.T, err error) { assert.True(t, ledger.IsValidation(err)) },
		},
		{
			name:   "unsupported policy",
			mutate: func(in *ExpenseInput) { in.SplitType = "SHARES" },
			check:  func(t *testing.T, err error) { assert.True(t, ledger.IsUnsupportedPolicy(err)) },
		},
		{
			name:   "zero amount",
			mutate: func(in *ExpenseInput) { in.Amount = money.Zero() },
			check:  func(t *testing.T, err error) { assert.True(t, ledger.IsValidation(err)) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := f.equalExpense(f.alice, 9000, f.alice, f.bob)
			tt.mutate(&in)

			_, err := f.svc.CreateExpense(ctx, in)
			require.Error(t, err)
			tt.check(t, err)
			assert.Empty(t, f.events.events, "no event may be appended on failure")
		})
	}
}

func TestServiceCreateExpenseStoreFailure(t *testing.T) {
	f := newFixture(t)
	f.events.err = errors.New("connection reset")

	_, err := f.svc.CreateExpense(context.Background(), f.equalExpense(f.alice, 9000, f.alice, f.bob))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NotContains(t, f.activity.types(), eventlogger.TypeExpenseCreated)
}

func TestServicePercentExpense(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	expense, err := f.svc.CreateExpense(ctx, ExpenseInput{
		GroupID:   f.group.ID,
		PayerID:   f.cara.ID,
		Amount:    money.Cents(20000),
		SplitType: ledger.PolicyPercent,
		Splits: []SplitInput{
			{UserID: f.alice.ID, Value: decimal.NewFromInt(25)},
			{UserID: f.bob.ID, Value: decimal.NewFromInt(75)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "50.00", expense.Shares[0].Amount.String())
	assert.Equal(t, "150.00", expense.Shares[1].Amount.String())

	summary, err := f.svc.Balances(ctx, f.group.ID)
	require.NoError(t, err)
	assertTotals(t, map[string]int64{f.alice.ID: -5000, f.bob.ID: -15000, f.cara.ID: 20000}, summary.Totals)
}

func TestServiceCreateSettlementErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateSettlement(ctx, SettlementInput{GroupID: f.group.ID, FromUserID: f.bob.ID, ToUserID: f.alice.ID})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = f.svc.CreateSettlement(ctx, SettlementInput{GroupID: f.group.ID, FromUserID: f.bob.ID, ToUserID: f.bob.ID, Amount: money.Cents(100)})
	assert.ErrorIs(t, err, ErrSelfSettlement)

	_, err = f.svc.CreateSettlement(ctx, SettlementInput{GroupID: f.group.ID, FromUserID: f.bob.ID, ToUserID: "ghost", Amount: money.Cents(100)})
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.svc.CreateSettlement(ctx, SettlementInput{GroupID: "nope", FromUserID: f.bob.ID, ToUserID: f.alice.ID, Amount: money.Cents(100)})
	assert.ErrorIs(t, err, ErrGroupNotFound)

	assert.Empty(t, f.events.events)
}

func TestServiceCreateGroup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateGroup(ctx, "trip", []string{f.alice.ID})
	assert.ErrorIs(t, err, ErrGroupNameTaken)

	_, err = f.svc.CreateGroup(ctx, "Flat", []string{f.alice.ID, "ghost"})
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.svc.CreateGroup(ctx, " ", []string{f.alice.ID})
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = f.svc.CreateGroup(ctx, "Flat", nil)
	assert.ErrorIs(t, err, ErrNoMembers)

	g, err := f.svc.CreateGroup(ctx, "Flat", []string{f.bob.ID, f.alice.ID, f.bob.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{f.bob.ID, f.alice.ID}, g.MemberIDs)

	groups, err := f.svc.ListGroups(ctx)
	require.NoError(t, err)
	assert.Len(t, groups, 2)
}

func TestServiceAddMembers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dan, err := f.svc.CreateUser(ctx, "Dan")
	require.NoError(t, err)

	g, err := f.svc.AddMembers(ctx, f.group.ID, []string{dan.ID, f.alice.ID, dan.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{f.alice.ID, f.bob.ID, f.cara.ID, dan.ID}, g.MemberIDs)

	again, err := f.svc.AddMembers(ctx, f.group.ID, []string{dan.ID})
	require.NoError(t, err)
	assert.Equal(t, g.MemberIDs, again.MemberIDs)

	_, err = f.svc.AddMembers(ctx, f.group.ID, []string{"ghost"})
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.svc.AddMembers(ctx, "nope", []string{dan.ID})
	assert.ErrorIs(t, err, ErrGroupNotFound)

	_, err = f.svc.AddMembers(ctx, f.group.ID, nil)
	assert.ErrorIs(t, err, ErrNoMembers)

	stored, err := f.svc.GetGroup(ctx, f.group.ID)
	require.NoError(t, err)
	assert.True(t, stored.HasMember(dan.ID))
}

func TestServiceResets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateExpense(ctx, f.equalExpense(f.alice, 9000, f.alice, f.bob, f.cara))
	require.NoError(t, err)

	require.NoError(t, f.svc.ResetGroup(ctx, f.group.ID))
	summary, err := f.svc.Balances(ctx, f.group.ID)
	require.NoError(t, err)
	assert.Empty(t, summary.Totals)
	assert.Empty(t, summary.Simplified)

	assert.ErrorIs(t, f.svc.ResetGroup(ctx, "nope"), ErrGroupNotFound)

	require.NoError(t, f.svc.ResetAll(ctx))
	users, err := f.svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	_, err = f.svc.Balances(ctx, f.group.ID)
	assert.ErrorIs(t, err, ErrGroupNotFound)
	assert.Empty(t, f.events.events)
	assert.Equal(t, []string{eventlogger.TypeAllReset}, f.activity.types())
}

func TestServiceResetAllFailureKeepsEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateExpense(ctx, f.equalExpense(f.alice, 9000, f.alice, f.bob))
	require.NoError(t, err)
	f.store.err = errors.New("lock timeout")

	err = f.svc.ResetAll(ctx)
	require.ErrorContains(t, err, "lock timeout")

	users, err := f.svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 3)
	_, err = f.svc.GetGroup(ctx, f.group.ID)
	assert.NoError(t, err)
	assert.Len(t, f.events.events, 1)
	assert.NotContains(t, f.activity.types(), eventlogger.TypeAllReset)
}

func TestServiceTagsActivityWithRequestID(t *testing.T) {
	f := newFixture(t)
	ctx := context.WithValue(context.Background(), chimiddleware.RequestIDKey, "req-42")

	_, err := f.svc.CreateExpense(ctx, f.equalExpense(f.alice, 9000, f.alice, f.bob))
	require.NoError(t, err)

	f.activity.mu.Lock()
	defer f.activity.mu.Unlock()
	last := f.activity.events[len(f.activity.events)-1]
	assert.Equal(t, eventlogger.TypeExpenseCreated, last.Type)
	assert.Equal(t, "req-42", last.Metadata["request_id"])

	first := f.activity.events[0]
	assert.NotContains(t, first.Metadata, "request_id")
}
