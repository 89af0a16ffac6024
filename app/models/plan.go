package models

// PlanTemplate is a tuition offering of one institution: a total amount
// split into a number of installments. Templates are not updated after creation.
type PlanTemplate struct {
	Base
	InstitutionID    string          `gorm:"type:varchar(64);not null;index:idx_plan_institution" json:"institutionId" validate:"required"`
	Name             LocalizedString `gorm:"embedded;embeddedPrefix:name_" json:"name"`
	TotalAmount      float64         `gorm:"type:decimal(15,2);not null" json:"total_amount" validate:"gt=0"`
	InstallmentCount int             `gorm:"not null" json:"installment_count" validate:"gte=1"`
}

func (PlanTemplate) TableName() string {
	return "plans"
}

func (p *PlanTemplate) Validate() error {
	return validate.Struct(p)
}
