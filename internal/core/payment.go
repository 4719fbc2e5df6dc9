package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentCard         PaymentMethod = "card"
	PaymentPayPal       PaymentMethod = "paypal"
	PaymentOther        PaymentMethod = "other"
)

// ParsePaymentMethod accepts an empty string as "unspecified".
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case "", PaymentCash, PaymentBankTransfer, PaymentCard, PaymentPayPal, PaymentOther:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMethod, s)
}

// ContributionPayment is a possibly partial payment toward a contribution.
type ContributionPayment struct {
	ID             uuid.UUID
	ContributionID uuid.UUID
	Amount         Money
	Method         PaymentMethod
	Reference      string
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PaymentDetails are the editable fields of a payment.
type PaymentDetails struct {
	Amount    Money
	Method    PaymentMethod
	Reference string
	Notes     string
}

func (d PaymentDetails) validate() error {
	if d.Amount.Minor <= 0 {
		return fmt.Errorf("%w: payment must be positive", ErrInvalidAmount)
	}
	if err := d.Amount.Validate(); err != nil {
		return err
	}
	if _, err := ParsePaymentMethod(string(d.Method)); err != nil {
		return err
	}
	return nil
}

func NewContributionPayment(contributionID uuid.UUID, d PaymentDetails, now time.Time) (*ContributionPayment, error) {
	if contributionID == uuid.Nil {
		return nil, fmt.Errorf("%w: contribution", ErrMissingReference)
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	p := &ContributionPayment{ID: uuid.New(), ContributionID: contributionID, CreatedAt: now}
	p.set(d, now)
	return p, nil
}

func (p *ContributionPayment) Update(d PaymentDetails, now time.Time) error {
	if err := d.validate(); err != nil {
		return err
	}
	p.set(d, now)
	return nil
}

func (p *ContributionPayment) set(d PaymentDetails, now time.Time) {
	p.Amount = d.Amount
	p.Method = d.Method
	p.Reference = strings.TrimSpace(d.Reference)
	p.Notes = strings.TrimSpace(d.Notes)
	p.UpdatedAt = now
}

// PaymentSummary compares the sum of payments with the contribution amount.
type PaymentSummary struct {
	Total       Money
	Outstanding Money
	Settled     bool
}

// SummarizePayments totals payments in the contribution's currency. Overpayment
// leaves Outstanding at zero.
func SummarizePayments(c *Contribution, payments []ContributionPayment) (PaymentSummary, error) {
	total := Zero(c.Amount.Currency)
	for _, p := range payments {
		var err error
		if total, err = total.Add(p.Amount); err != nil {
			return PaymentSummary{}, fmt.Errorf("payment %s: %w", p.ID, err)
		}
	}
	outstanding, _ := c.Amount.Subtract(total)
	if outstanding.Minor < 0 {
		outstanding = Zero(c.Amount.Currency)
	}
	return PaymentSummary{
		Total:       total,
		Outstanding: outstanding,
		Settled:     len(payments) > 0 && total.Minor >= c.Amount.Minor,
	}, nil
}
