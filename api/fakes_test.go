package api

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/billbatista/acasinha-splits/eventlogger"
	"github.com/billbatista/acasinha-splits/group"
	"github.com/billbatista/acasinha-splits/ledger"
	"github.com/billbatista/acasinha-splits/user"
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
	return append(make([]user.User, 0, len(m.users)), m.users...), nil
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
	groups []group.Group
}

func (m *memGroups) Create(_ context.Context, g group.Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g.MemberIDs = append([]string(nil), g.MemberIDs...)
	m.groups = append(m.groups, g)
	return nil
}

func (m *memGroups) List(_ context.Context) ([]group.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append(make([]group.Group, 0, len(m.groups)), m.groups...), nil
}

func (m *memGroups) find(match func(group.Group) bool) *group.Group {
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

func (m *memGroups) GetByID(_ context.Context, id string) (*group.Group, error) {
	return m.find(func(g group.Group) bool { return g.ID == id }), nil
}

func (m *memGroups) GetByName(_ context.Context, name string) (*group.Group, error) {
	return m.find(func(g group.Group) bool { return strings.EqualFold(g.Name, name) }), nil
}

func (m *memGroups) AddMembers(_ context.Context, groupID string, userIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.groups {
		if m.groups[i].ID != groupID {
			continue
		}
		for _, id := range userIDs {
			if !m.groups[i].HasMember(id) {
				m.groups[i].MemberIDs = append(m.groups[i].MemberIDs, id)
			}
		}
	}
	return nil
}

type memLedger struct {
	mu     sync.Mutex
	events []ledger.Event
	broken bool
}

func (m *memLedger) Append(_ context.Context, events ...ledger.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.broken {
		return errors.New("disk full")
	}
	m.events = append(m.events, events...)
	return nil
}

func (m *memLedger) ListByGroup(_ context.Context, groupID string) ([]ledger.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ledger.Event, 0)
	for _, e := range m.events {
		if e.EventHeader().GroupID == groupID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memLedger) DeleteByGroup(_ context.Context, groupID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := make([]ledger.Event, 0, len(m.events))
	for _, e := range m.events {
		if e.EventHeader().GroupID != groupID {
			kept = append(kept, e)
		}
	}
	m.events = kept
	return nil
}

type memStore struct {
	users    *memUsers
	groups   *memGroups
	ledger   *memLedger
	activity *memActivity
}

func (m *memStore) ResetAll(_ context.Context) error {
	for _, mu := range []*sync.Mutex{&m.users.mu, &m.groups.mu, &m.ledger.mu, &m.activity.mu} {
		mu.Lock()
		defer mu.Unlock()
	}
	m.users.users = nil
	m.groups.groups = nil
	m.ledger.events = nil
	m.activity.events = nil
	return nil
}

// memActivity stores activity synchronously, newest last.
type memActivity struct {
	mu     sync.Mutex
	events []eventlogger.Event
}

func (m *memActivity) Log(e eventlogger.Event) bool {
	return m.Save(context.Background(), e) == nil
}

func (m *memActivity) Save(_ context.Context, e eventlogger.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *memActivity) ListByGroup(_ context.Context, groupID string, limit int) ([]eventlogger.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]eventlogger.Event, 0)
	for i := len(m.events) - 1; i >= 0 && len(out) < limit; i-- {
		if m.events[i].GroupID == groupID {
			out = append(out, m.events[i])
		}
	}
	return out, nil
}
