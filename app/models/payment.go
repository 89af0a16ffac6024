package models

import "gorm.io/gorm"

// PaymentType tells down payments from monthly installments
type PaymentType string

const (
	PaymentTypeDownPayment PaymentType = "down_payment"
	PaymentTypeMonthly     PaymentType = "monthly"
)

// PaymentStatus of a transfer. Simulated payments are always completed.
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
)

// Payment is an append-only ledger entry against an installment plan.
type Payment struct {
	Base
	InstallmentID string        `gorm:"type:varchar(64);not null;index:idx_payment_installment" json:"installmentId" validate:"required"`
	Amount        float64       `gorm:"type:decimal(15,2);not null" json:"amount" validate:"gt=0"`
	PaymentType   PaymentType   `gorm:"type:varchar(20);not null;index:idx_payment_type" json:"payment_type" validate:"oneof=down_payment monthly"`
	Status        PaymentStatus `gorm:"type:varchar(20);not null;default:'completed';index:idx_payment_status" json:"status" validate:"oneof=completed"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) Validate() error {
	return validate.Struct(p)
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	p.ApplyDefaults()
	return nil
}

func (p *Payment) ApplyDefaults() {
	if p.Status == "" {
		p.Status = PaymentStatusCompleted
	}
}

// PaymentReceipt is the outcome of recording a payment: the updated plan and the new ledger entry.
type PaymentReceipt struct {
	InstallmentPlan *InstallmentPlan `json:"installment_plan"`
	Payment         *Payment         `json:"payment"`
}
