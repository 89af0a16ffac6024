package repository

import (
	"fmt"

	"github.com/ManuelReschke/EduPay/app/models"
)

// applyPayment checks that plan accepts payment and moves the amount onto the
// plan. Both records are validated before anything is persisted.
func applyPayment(plan *models.InstallmentPlan, payment *models.Payment) error {
	if err := plan.AcceptsPayment(payment.PaymentType); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	payment.InstallmentID = plan.ID
	payment.Amount = models.RoundAmount(payment.Amount)
	payment.ApplyDefaults()
	if err := payment.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := plan.ApplyPayment(payment.Amount); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := plan.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}
