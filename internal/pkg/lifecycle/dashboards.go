package lifecycle

import (
	"context"

	"github.com/ManuelReschke/EduPay/app/models"
	"github.com/ManuelReschke/EduPay/internal/pkg/resource"
)

// InstallmentView is the detail page of one installment plan.
type InstallmentView struct {
	models.InstallmentPlanDetails
	Payments         []models.Payment `json:"payments"`
	SuggestedPayment float64          `json:"suggested_payment"`
}

// CheckoutView is what a customer sees before paying the down payment.
type CheckoutView struct {
	Application     *models.ApplicationDetails `json:"application"`
	InstallmentPlan *models.InstallmentPlan    `json:"installment_plan,omitempty"`
	MonthlyPayment  float64                    `json:"monthly_payment"`
}

func (l *Lifecycle) ListMyApplications(ctx context.Context, caller Caller) (_ []models.ApplicationDetails, err error) {
	defer l.observe("list_my_applications", &err)

	if err := requireSignedIn(caller, "You must be signed in"); err != nil {
		return nil, err
	}
	return l.svc.Applications.ListByUser(ctx, caller.UserID)
}

func (l *Lifecycle) ListMyInstallments(ctx context.Context, caller Caller) (_ []models.InstallmentPlanDetails, err error) {
	defer l.observe("list_my_installments", &err)

	if err := requireSignedIn(caller, "You must be signed in"); err != nil {
		return nil, err
	}
	return l.svc.Installments.ListByUser(ctx, caller.UserID)
}

func (l *Lifecycle) ListMyPayments(ctx context.Context, caller Caller) (_ []models.Payment, err error) {
	defer l.observe("list_my_payments", &err)

	if err := requireSignedIn(caller, "You must be signed in"); err != nil {
		return nil, err
	}
	return l.svc.Payments.ListByUser(ctx, caller.UserID)
}

// GetInstallment returns a plan with its payments to its owner or an admin.
func (l *Lifecycle) GetInstallment(ctx context.Context, caller Caller, installmentPlanID string) (_ *InstallmentView, err error) {
	defer l.observe("get_installment", &err)

	if err := requireSignedIn(caller, "You must be signed in"); err != nil {
		return nil, err
	}
	details, err := l.svc.Installments.GetWithDetails(ctx, installmentPlanID)
	if err != nil {
		return nil, err
	}
	if details == nil {
		return nil, newError(KindNotFound, "Installment plan not found")
	}
	if details.UserID != caller.UserID && !caller.IsAdmin() {
		return nil, newError(KindForbidden, "Access denied")
	}

	payments, err := l.svc.Payments.ListByInstallment(ctx, details.ID)
	if err != nil {
		return nil, err
	}
	return &InstallmentView{
		InstallmentPlanDetails: *details,
		Payments:               payments,
		SuggestedPayment:       SuggestedPayment(l.policy, &details.InstallmentPlan, payments),
	}, nil
}

// GetCheckout returns an application of the caller with its installment plan, if any.
func (l *Lifecycle) GetCheckout(ctx context.Context, caller Caller, applicationID string) (_ *CheckoutView, err error) {
	defer l.observe("get_checkout", &err)

	if err := requireSignedIn(caller, "Unauthorized"); err != nil {
		return nil, err
	}
	app, err := l.svc.Applications.GetWithDetails(ctx, applicationID)
	if resource.IsNotFound(err) || (err == nil && app.UserID != caller.UserID) {
		return nil, newError(KindNotFound, "Application not found or access denied")
	}
	if err != nil {
		return nil, err
	}

	ip, err := l.svc.Installments.GetByApplication(ctx, app.ID)
	if err != nil {
		return nil, err
	}
	view := &CheckoutView{Application: app, InstallmentPlan: ip}
	if app.Plan != nil {
		view.MonthlyPayment = MonthlyPayment(app.Plan.TotalAmount, app.Plan.InstallmentCount)
	}
	return view, nil
}

// ListAllApplications lists applications for admins, filtered by status when given.
func (l *Lifecycle) ListAllApplications(ctx context.Context, caller Caller, status models.ApplicationStatus) (_ []models.ApplicationDetails, err error) {
	defer l.observe("list_all_applications", &err)

	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if status == "" {
		return l.svc.Applications.ListAll(ctx)
	}
	return l.svc.Applications.ListByStatus(ctx, status)
}

// ListAllInstallments lists installment plans for admins, filtered by status when given.
func (l *Lifecycle) ListAllInstallments(ctx context.Context, caller Caller, status models.InstallmentPlanStatus) (_ []models.InstallmentPlanDetails, err error) {
	defer l.observe("list_all_installments", &err)

	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if status == "" {
		return l.svc.Installments.ListAll(ctx)
	}
	return l.svc.Installments.ListByStatus(ctx, status)
}
