package core

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventContributionCreated     = "contribution.created"
	EventContributionPaid        = "contribution.paid"
	EventContributionReopened    = "contribution.reopened"
	EventContributionTypeCreated = "contribution_type.created"
	EventContributionTypeUpdated = "contribution_type.updated"
	EventTemplateApplied         = "contribution_template.applied"
	EventPaymentRecorded         = "contribution_payment.recorded"
)

// Event is a fact recorded by an aggregate. Services drain events with
// PullEvents after persisting and hand them to a publisher.
type Event struct {
	Name        string         `json:"name"`
	AggregateID uuid.UUID      `json:"aggregateId"`
	OccurredAt  time.Time      `json:"occurredAt"`
	Data        map[string]any `json:"data,omitempty"`
}

type eventRecorder struct {
	events []Event
}

func (r *eventRecorder) record(name string, id uuid.UUID, at time.Time, data map[string]any) {
	r.events = append(r.events, Event{Name: name, AggregateID: id, OccurredAt: at.UTC(), Data: data})
}

// PullEvents returns the recorded events and clears them.
func (r *eventRecorder) PullEvents() []Event {
	events := r.events
	r.events = nil
	return events
}

// PaymentRecorded is emitted by the payment service, which owns no aggregate
// that could record it.
func PaymentRecorded(p ContributionPayment) Event {
	return Event{
		Name:        EventPaymentRecorded,
		AggregateID: p.ContributionID,
		OccurredAt:  p.CreatedAt.UTC(),
		Data: map[string]any{
			"paymentId": p.ID.String(),
			"amount":    p.Amount.Minor,
			"currency":  string(p.Amount.Currency),
			"method":    string(p.Method),
		},
	}
}
