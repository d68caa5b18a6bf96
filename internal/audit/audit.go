package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Kind selects the stream an event is appended to
type Kind string

const (
	KindLoginRegister Kind = "login_register"
	KindProfileChange Kind = "profile_change"
)

// Event is an append-only (who, what, when) record
type Event struct {
	ID       string    `json:"id"`
	Kind     Kind      `json:"kind"`
	UserID   int64     `json:"user_id"`
	Username string    `json:"username"`
	UserType string    `json:"user_type"`
	Schema   string    `json:"schema,omitempty"`
	Action   string    `json:"action"`
	Fields   []string  `json:"fields,omitempty"`
	IP       string    `json:"ip,omitempty"`
	At       time.Time `json:"at"`
}

// NewEvent stamps id and time
func NewEvent(kind Kind, action string) Event {
	return Event{ID: uuid.NewString(), Kind: kind, Action: action, At: time.Now().UTC()}
}

// Sink accepts audit events. Callers ignore the error of Record on the request path.
type Sink interface {
	Record(ctx context.Context, e Event) error
}

// NopSink discards events
type NopSink struct{}

func (NopSink) Record(context.Context, Event) error { return nil }
