package lifecycle

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/EduPay/app/models"
	"github.com/ManuelReschke/EduPay/internal/pkg/lock"
	"github.com/ManuelReschke/EduPay/internal/pkg/resource"
	"github.com/ManuelReschke/EduPay/internal/pkg/services"
)

// Approval is the result of ApproveApplication.
type Approval struct {
	Application     *models.Application     `json:"application"`
	InstallmentPlan *models.InstallmentPlan `json:"installment_plan"`
}

// CreateApplication files a pending application of the caller for a plan of an institution.
func (l *Lifecycle) CreateApplication(ctx context.Context, caller Caller, institutionID, planID string) (_ *models.Application, err error) {
	defer l.observe("create_application", &err)

	if err := requireSignedIn(caller, "You must be signed in to apply for a plan"); err != nil {
		return nil, err
	}

	plan, err := l.svc.Plans.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.InstitutionID != institutionID {
		return nil, newError(KindValidation, "Plan does not belong to this institution")
	}

	return l.svc.Applications.Create(ctx, &models.Application{
		UserID:        caller.UserID,
		InstitutionID: institutionID,
		PlanID:        plan.ID,
		Status:        models.ApplicationStatusPending,
		TuitionAmount: plan.TotalAmount,
	})
}

// ApproveApplication approves an application and makes sure exactly one
// installment plan exists for it.
func (l *Lifecycle) ApproveApplication(ctx context.Context, caller Caller, applicationID string) (_ *Approval, err error) {
	defer l.observe("approve_application", &err)

	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	var (
		app  *models.Application
		plan *models.PlanTemplate
	)
	err = l.retryStale(ctx, func() error {
		current, err := l.svc.Applications.Get(ctx, applicationID)
		if err != nil {
			return err
		}
		if current.Status == models.ApplicationStatusApproved {
			return newError(KindConflict, "Application is already approved")
		}
		plan, err = l.svc.Plans.Get(ctx, current.PlanID)
		if err != nil {
			return err
		}
		app, err = l.svc.Applications.Update(ctx, current.ID, services.Changes{
			"status":           models.ApplicationStatusApproved,
			"rejection_reason": nil,
		}, current.Version)
		return err
	})
	if err != nil {
		return nil, err
	}

	ip, err := l.ensureInstallmentPlan(ctx, app, plan)
	if err != nil {
		return nil, err
	}
	log.Infof("[Lifecycle] Application %s approved, installment plan %s", app.ID, ip.ID)
	return &Approval{Application: app, InstallmentPlan: ip}, nil
}

// RejectApplication rejects a pending or rejected application with a reason.
// Approved applications cannot be rejected and installment plans are never touched.
func (l *Lifecycle) RejectApplication(ctx context.Context, caller Caller, applicationID, reason string) (_ *models.Application, err error) {
	defer l.observe("reject_application", &err)

	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, newError(KindValidation, "Rejection reason is required")
	}

	var app *models.Application
	err = l.retryStale(ctx, func() error {
		current, err := l.svc.Applications.Get(ctx, applicationID)
		if err != nil {
			return err
		}
		if current.Status == models.ApplicationStatusApproved {
			return newError(KindConflict, "Application is already approved")
		}
		app, err = l.svc.Applications.Update(ctx, current.ID, services.Changes{
			"status":           models.ApplicationStatusRejected,
			"rejection_reason": reason,
		}, current.Version)
		return err
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// ensureInstallmentPlan returns the installment plan of app, creating it when
// missing. Creation runs under a lock keyed by the application and the ledger
// enforces one plan per application, so concurrent callers converge on one plan.
func (l *Lifecycle) ensureInstallmentPlan(ctx context.Context, app *models.Application, plan *models.PlanTemplate) (*models.InstallmentPlan, error) {
	existing, err := l.svc.Installments.GetByApplication(ctx, app.ID)
	if err != nil || existing != nil {
		return existing, err
	}

	release, err := l.locker.Lock(ctx, "application:"+app.ID)
	switch {
	case err == nil:
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				log.Warnf("[Lifecycle] Failed to release lock for application %s: %v", app.ID, err)
			}
		}()
	case errors.Is(err, lock.ErrNotObtained):
		// the unique index still guards against duplicates
		log.Warnf("[Lifecycle] Lock for application %s not obtained, relying on unique index", app.ID)
	default:
		return nil, err
	}

	existing, err = l.svc.Installments.GetByApplication(ctx, app.ID)
	if err != nil || existing != nil {
		return existing, err
	}

	created, err := l.svc.Installments.Create(ctx, models.NewInstallmentPlan(app, plan))
	if resource.IsConflict(err) {
		existing, err = l.svc.Installments.GetByApplication(ctx, app.ID)
		if err == nil && existing == nil {
			err = newError(KindConflict, msgConflict)
		}
		return existing, err
	}
	return created, err
}

// retryStale runs fn again while it fails with a stale version, up to maxAttempts times.
func (l *Lifecycle) retryStale(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= l.maxAttempts; attempt++ {
		err = fn()
		if !resource.IsStale(err) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Debugf("[Lifecycle] Version conflict, attempt %d/%d", attempt, l.maxAttempts)
	}
	return err
}
