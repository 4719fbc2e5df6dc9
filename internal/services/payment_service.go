package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"teamfin/internal/core"
	"teamfin/internal/storage"
)

// PaymentService records partial payments and keeps the paid state of the
// contribution in line with their sum.
type PaymentService struct {
	Deps
}

func NewPaymentService(d Deps) *PaymentService {
	return &PaymentService{Deps: d}
}

// PaymentResult is the payment together with the contribution state after
// settlement.
type PaymentResult struct {
	Payment      *core.ContributionPayment
	Contribution *core.Contribution
	Summary      core.PaymentSummary
}

func (s *PaymentService) Add(ctx context.Context, contributionID uuid.UUID, d core.PaymentDetails) (PaymentResult, error) {
	var res PaymentResult
	err := s.Store.InTx(ctx, func(ctx context.Context, tx storage.Store) error {
		c, err := tx.GetContribution(ctx, contributionID)
		if err != nil {
			return err
		}
		if d.Amount.Currency != c.Amount.Currency {
			return fmt.Errorf("%w: payment in %s for contribution in %s", core.ErrCurrencyMismatch, d.Amount.Currency, c.Amount.Currency)
		}
		if err := checkPaymentsOpen(ctx, tx, c); err != nil {
			return err
		}
		p, err := core.NewContributionPayment(c.ID, d, s.now())
		if err != nil {
			return err
		}
		if err := tx.SavePayment(ctx, p); err != nil {
			return fmt.Errorf("save payment: %w", err)
		}
		res.Payment = p
		res.Contribution = c
		res.Summary, err = s.settle(ctx, tx, c)
		return err
	})
	if err != nil {
		return PaymentResult{}, err
	}

	slog.InfoContext(ctx, "Payment recorded",
		"payment_id", res.Payment.ID,
		"contribution_id", contributionID,
		"amount", res.Payment.Amount.Format(),
		"outstanding", res.Summary.Outstanding.Format())

	events := append([]core.Event{core.PaymentRecorded(*res.Payment)}, res.Contribution.PullEvents()...)
	publish(ctx, s.Publisher, events)
	return res, nil
}

// List returns the payments of a contribution and their summary.
func (s *PaymentService) List(ctx context.Context, contributionID uuid.UUID) ([]core.ContributionPayment, core.PaymentSummary, error) {
	c, err := s.Store.GetContribution(ctx, contributionID)
	if err != nil {
		return nil, core.PaymentSummary{}, err
	}
	payments, err := s.Store.ListPayments(ctx, contributionID)
	if err != nil {
		return nil, core.PaymentSummary{}, err
	}
	summary, err := core.SummarizePayments(c, payments)
	if err != nil {
		return nil, core.PaymentSummary{}, err
	}
	return payments, summary, nil
}

func (s *PaymentService) Update(ctx context.Context, paymentID uuid.UUID, d core.PaymentDetails) (PaymentResult, error) {
	var res PaymentResult
	err := s.Store.InTx(ctx, func(ctx context.Context, tx storage.Store) error {
		p, err := tx.GetPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		c, err := tx.GetContribution(ctx, p.ContributionID)
		if err != nil {
			return err
		}
		if d.Amount.Currency != c.Amount.Currency {
			return fmt.Errorf("%w: payment in %s for contribution in %s", core.ErrCurrencyMismatch, d.Amount.Currency, c.Amount.Currency)
		}
		if err := checkPaymentsOpen(ctx, tx, c); err != nil {
			return err
		}
		if err := p.Update(d, s.now()); err != nil {
			return err
		}
		if err := tx.SavePayment(ctx, p); err != nil {
			return fmt.Errorf("save payment: %w", err)
		}
		res.Payment = p
		res.Contribution = c
		res.Summary, err = s.settle(ctx, tx, c)
		return err
	})
	if err != nil {
		return PaymentResult{}, err
	}
	publish(ctx, s.Publisher, res.Contribution.PullEvents())
	return res, nil
}

func (s *PaymentService) Delete(ctx context.Context, paymentID uuid.UUID) (PaymentResult, error) {
	var res PaymentResult
	err := s.Store.InTx(ctx, func(ctx context.Context, tx storage.Store) error {
		p, err := tx.GetPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		c, err := tx.GetContribution(ctx, p.ContributionID)
		if err != nil {
			return err
		}
		if err := checkPaymentsOpen(ctx, tx, c); err != nil {
			return err
		}
		if err := tx.DeletePayment(ctx, paymentID); err != nil {
			return err
		}
		res.Contribution = c
		res.Summary, err = s.settle(ctx, tx, c)
		return err
	})
	if err != nil {
		return PaymentResult{}, err
	}
	slog.InfoContext(ctx, "Payment deleted", "payment_id", paymentID, "contribution_id", res.Contribution.ID)
	publish(ctx, s.Publisher, res.Contribution.PullEvents())
	return res, nil
}

// checkPaymentsOpen fails with core.ErrAlreadyPaid when the contribution was
// marked paid without its payments covering the amount (Pay or an imported
// paid_at). Its payments are then frozen so settlement cannot reopen it.
func checkPaymentsOpen(ctx context.Context, tx storage.Store, c *core.Contribution) error {
	if !c.IsPaid() {
		return nil
	}
	payments, err := tx.ListPayments(ctx, c.ID)
	if err != nil {
		return err
	}
	summary, err := core.SummarizePayments(c, payments)
	if err != nil {
		return err
	}
	if !summary.Settled {
		return fmt.Errorf("%w: %s was paid outside its payments", core.ErrAlreadyPaid, c.ID)
	}
	return nil
}

// settle recomputes the payment summary and saves the contribution when its
// paid state changed.
func (s *PaymentService) settle(ctx context.Context, tx storage.Store, c *core.Contribution) (core.PaymentSummary, error) {
	payments, err := tx.ListPayments(ctx, c.ID)
	if err != nil {
		return core.PaymentSummary{}, err
	}
	summary, err := core.SummarizePayments(c, payments)
	if err != nil {
		return core.PaymentSummary{}, err
	}
	if c.Settle(summary, s.now()) {
		if err := tx.SaveContribution(ctx, c); err != nil {
			return core.PaymentSummary{}, fmt.Errorf("save contribution: %w", err)
		}
	}
	return summary, nil
}
