// Package eventlogger keeps an activity log of what happened in each group:
// expenses recorded, settlements made, members added, ledgers reset.
// It is an audit trail for people, never an input to balance computation.
package eventlogger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	TypeUserCreated       = "user.created"
	TypeGroupCreated      = "group.created"
	TypeMembersAdded      = "group.members_added"
	TypeExpenseCreated    = "expense.created"
	TypeSettlementCreated = "settlement.created"
	TypeGroupReset        = "group.reset"
	TypeAllReset          = "all.reset"
)

type Event struct {
	ID        uuid.UUID         `json:"id"`
	Type      string            `json:"eventType"`
	GroupID   string            `json:"groupId,omitempty"`
	Data      any               `json:"eventData,omitempty"`
	Metadata  map[string]string `json:"eventMetadata,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

type EventOption func(*Event)

func WithType(eventType string) EventOption {
	return func(e *Event) {
		e.Type = eventType
	}
}

func WithGroup(groupID string) EventOption {
	return func(e *Event) {
		e.GroupID = groupID
	}
}

func WithData(data any) EventOption {
	return func(e *Event) {
		e.Data = data
	}
}

func WithMetadata(key, value string) EventOption {
	return func(e *Event) {
		e.Metadata[key] = value
	}
}

func NewEvent(opts ...EventOption) Event {
	e := Event{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		Metadata:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

type EventLogger interface {
	Save(ctx context.Context, e Event) error
	ListByGroup(ctx context.Context, groupID string, limit int) ([]Event, error)
}
