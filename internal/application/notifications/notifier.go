package notifications

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Recipient is the counterparty told about a transition.
type Recipient struct {
	UserID   uuid.UUID `json:"user_id"`
	Email    string    `json:"email"`
	Fullname string    `json:"fullname"`
}

// Event describes one successful negotiation transition.
type Event struct {
	Type         string          `json:"type"`
	InvestmentID uuid.UUID       `json:"investment_id"`
	ProjectID    uuid.UUID       `json:"project_id"`
	ProjectName  string          `json:"project_name"`
	ActorRole    string          `json:"actor_role"`
	Amount       decimal.Decimal `json:"amount"`
	Status       string          `json:"status"`
	Stage        string          `json:"stage"`
	TxHash       string          `json:"tx_hash,omitempty"`
	Recipient    Recipient       `json:"recipient"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

// Subject is the NATS subject an event is published on.
func (e Event) Subject() string {
	return "ideanest.investments." + strings.ToLower(e.Type)
}

// Notifier delivers transition events. Callers treat delivery as best-effort.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Fanout delivers to every notifier and joins their failures.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, n := range f {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards events.
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }
