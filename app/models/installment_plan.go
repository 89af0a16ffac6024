package models

import (
	"fmt"

	"gorm.io/gorm"
)

// InstallmentPlanStatus is the lifecycle state of an installment plan
type InstallmentPlanStatus string

const (
	InstallmentStatusAwaitingCheckout InstallmentPlanStatus = "approved_awaiting_checkout"
	InstallmentStatusActive           InstallmentPlanStatus = "active"
	InstallmentStatusCompleted        InstallmentPlanStatus = "completed"
	InstallmentStatusCancelled        InstallmentPlanStatus = "cancelled"
)

// InstallmentPlan is the ledger of one approved application.
// PaidAmount + RemainingBalance == TotalAmount holds after every payment.
type InstallmentPlan struct {
	Base
	UserID           string                `gorm:"type:varchar(64);not null;index:idx_installment_user" json:"userId" validate:"required"`
	InstitutionID    string                `gorm:"type:varchar(64);not null;index:idx_installment_institution" json:"institutionId" validate:"required"`
	PlanID           string                `gorm:"type:varchar(64);not null;index:idx_installment_plan" json:"planId" validate:"required"`
	ApplicationID    string                `gorm:"type:varchar(64);not null;uniqueIndex:uniq_installment_application" json:"applicationId" validate:"required"`
	TotalAmount      float64               `gorm:"type:decimal(15,2);not null" json:"total_amount" validate:"gt=0"`
	PaidAmount       float64               `gorm:"type:decimal(15,2);not null;default:0" json:"paid_amount" validate:"gte=0"`
	RemainingBalance float64               `gorm:"type:decimal(15,2);not null" json:"remaining_balance" validate:"gte=0"`
	InstallmentCount int                   `gorm:"not null" json:"installment_count" validate:"gte=1"`
	Status           InstallmentPlanStatus `gorm:"type:varchar(32);not null;index:idx_installment_status" json:"status" validate:"oneof=approved_awaiting_checkout active completed cancelled"`
}

func (InstallmentPlan) TableName() string {
	return "installment_plans"
}

// Validate checks field constraints and the balance invariant.
func (p *InstallmentPlan) Validate() error {
	if err := validate.Struct(p); err != nil {
		return err
	}
	if RoundAmount(p.PaidAmount+p.RemainingBalance) != RoundAmount(p.TotalAmount) {
		return fmt.Errorf("%w: paid %.2f + remaining %.2f != total %.2f",
			ErrBalanceMismatch, p.PaidAmount, p.RemainingBalance, p.TotalAmount)
	}
	return nil
}

func (p *InstallmentPlan) BeforeCreate(tx *gorm.DB) error {
	p.ApplyDefaults()
	return nil
}

func (p *InstallmentPlan) ApplyDefaults() {
	if p.Status == "" {
		p.Status = InstallmentStatusAwaitingCheckout
	}
}

// NewInstallmentPlan opens the ledger for an approved application.
func NewInstallmentPlan(app *Application, plan *PlanTemplate) *InstallmentPlan {
	return &InstallmentPlan{
		UserID:           app.UserID,
		InstitutionID:    app.InstitutionID,
		PlanID:           plan.ID,
		ApplicationID:    app.ID,
		TotalAmount:      plan.TotalAmount,
		PaidAmount:       0,
		RemainingBalance: plan.TotalAmount,
		InstallmentCount: plan.InstallmentCount,
		Status:           InstallmentStatusAwaitingCheckout,
	}
}

// AcceptsPayment reports whether a payment of the given type may be applied in the current state.
// Down payments are only taken at checkout, monthly payments only on active plans.
func (p *InstallmentPlan) AcceptsPayment(paymentType PaymentType) error {
	switch paymentType {
	case PaymentTypeDownPayment:
		if p.Status != InstallmentStatusAwaitingCheckout {
			return fmt.Errorf("%w: plan is %s", ErrPlanNotAwaitingCheckout, p.Status)
		}
	case PaymentTypeMonthly:
		if p.Status != InstallmentStatusActive {
			return fmt.Errorf("%w: plan is %s", ErrPlanNotActive, p.Status)
		}
	default:
		return fmt.Errorf("unsupported payment type %q", paymentType)
	}
	return nil
}

// ApplyPayment moves amount from the remaining balance to the paid amount and
// completes the plan once nothing is left. The plan is unchanged on error.
func (p *InstallmentPlan) ApplyPayment(amount float64) error {
	amount = RoundAmount(amount)
	if amount <= 0 || amount > RoundAmount(p.RemainingBalance) {
		return ErrInvalidPaymentAmount
	}
	p.PaidAmount = RoundAmount(p.PaidAmount + amount)
	p.RemainingBalance = RoundAmount(p.TotalAmount - p.PaidAmount)
	if p.RemainingBalance <= 0 {
		p.RemainingBalance = 0
		p.Status = InstallmentStatusCompleted
	} else {
		p.Status = InstallmentStatusActive
	}
	return nil
}

// InstallmentPlanDetails is an installment plan with its institution and plan embedded.
type InstallmentPlanDetails struct {
	InstallmentPlan
	Institution *Institution  `json:"institution,omitempty"`
	Plan        *PlanTemplate `json:"plan,omitempty"`
}
