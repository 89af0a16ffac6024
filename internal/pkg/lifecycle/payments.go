package lifecycle

import (
	"context"
	"math"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/EduPay/app/models"
	"github.com/ManuelReschke/EduPay/internal/pkg/resource"
)

const msgInvalidAmount = "Invalid payment amount"

// validAmount rejects zero, negative, NaN and amounts above limit.
func validAmount(amount, limit float64) bool {
	return amount > 0 && amount <= limit && !math.IsInf(amount, 0)
}

// ProcessDownPayment checks out an approved application of the caller. The
// installment plan becomes active, or completed when amount covers the total.
// The application itself is kept; its checkout state is its plan's status.
func (l *Lifecycle) ProcessDownPayment(ctx context.Context, caller Caller, applicationID, planID string, amount float64) (_ *models.PaymentReceipt, err error) {
	defer l.observe("process_down_payment", &err)

	if err := requireSignedIn(caller, "Unauthorized"); err != nil {
		return nil, err
	}

	app, err := l.svc.Applications.Get(ctx, applicationID)
	if resource.IsNotFound(err) || (err == nil && app.UserID != caller.UserID) {
		return nil, newError(KindNotFound, "Application not found or access denied")
	}
	if err != nil {
		return nil, err
	}
	if app.Status != models.ApplicationStatusApproved {
		return nil, newError(KindValidation, "Application must be approved before payment")
	}
	if planID != app.PlanID {
		return nil, newError(KindValidation, "Plan does not belong to this application")
	}

	plan, err := l.svc.Plans.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	amount = models.RoundAmount(amount)
	if !validAmount(amount, plan.TotalAmount) {
		return nil, newError(KindValidation, msgInvalidAmount)
	}

	ip, err := l.ensureInstallmentPlan(ctx, app, plan)
	if err != nil {
		return nil, err
	}

	receipt, err := l.recordPayment(ctx, ip, amount, models.PaymentTypeDownPayment, func(p *models.InstallmentPlan) error {
		if p.Status != models.InstallmentStatusAwaitingCheckout {
			return newError(KindConflict, "Down payment has already been made")
		}
		if !validAmount(amount, p.RemainingBalance) {
			return newError(KindValidation, msgInvalidAmount)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Infof("[Lifecycle] Down payment of %.2f on installment plan %s", amount, receipt.InstallmentPlan.ID)
	return receipt, nil
}

// ProcessMonthlyPayment pays amount towards an active installment plan of the caller.
func (l *Lifecycle) ProcessMonthlyPayment(ctx context.Context, caller Caller, installmentPlanID string, amount float64) (_ *models.PaymentReceipt, err error) {
	defer l.observe("process_monthly_payment", &err)

	if err := requireSignedIn(caller, "Unauthorized"); err != nil {
		return nil, err
	}

	ip, err := l.svc.Installments.Get(ctx, installmentPlanID)
	if err != nil {
		return nil, err
	}
	if ip == nil {
		return nil, newError(KindNotFound, "Installment plan not found")
	}
	if ip.UserID != caller.UserID {
		return nil, newError(KindForbidden, "Access denied")
	}

	amount = models.RoundAmount(amount)
	return l.recordPayment(ctx, ip, amount, models.PaymentTypeMonthly, func(p *models.InstallmentPlan) error {
		if p.Status != models.InstallmentStatusActive {
			return newError(KindValidation, "Plan is not active")
		}
		if !validAmount(amount, p.RemainingBalance) {
			return newError(KindValidation, msgInvalidAmount)
		}
		return nil
	})
}

// recordPayment checks ip with check and books the payment conditionally on
// the plan version. After a version conflict the plan is re-read and checked
// again, so a concurrent payment can never push the balance below zero.
func (l *Lifecycle) recordPayment(ctx context.Context, ip *models.InstallmentPlan, amount float64, paymentType models.PaymentType, check func(*models.InstallmentPlan) error) (*models.PaymentReceipt, error) {
	var receipt *models.PaymentReceipt
	current := ip
	first := true

	err := l.retryStale(ctx, func() error {
		if !first {
			fresh, err := l.svc.Installments.Get(ctx, ip.ID)
			if err != nil {
				return err
			}
			if fresh == nil {
				return newError(KindNotFound, "Installment plan not found")
			}
			current = fresh
		}
		first = false

		if err := check(current); err != nil {
			return err
		}
		r, err := l.svc.Installments.RecordPayment(ctx, current.ID, current.Version, amount, paymentType)
		if err != nil {
			return err
		}
		receipt = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.metrics.Payment(string(paymentType), amount)
	l.planCompleted(ctx, receipt.InstallmentPlan)
	return receipt, nil
}
