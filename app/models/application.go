package models

import "gorm.io/gorm"

// ApplicationStatus is the review state of an application
type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusApproved ApplicationStatus = "approved"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

// Application is a customer's request to finance a plan template.
// TuitionAmount is a snapshot of the plan total at the time of applying.
type Application struct {
	Base
	UserID          string            `gorm:"type:varchar(64);not null;index:idx_application_user" json:"userId" validate:"required"`
	InstitutionID   string            `gorm:"type:varchar(64);not null;index:idx_application_institution" json:"institutionId" validate:"required"`
	PlanID          string            `gorm:"type:varchar(64);not null;index:idx_application_plan" json:"planId" validate:"required"`
	Status          ApplicationStatus `gorm:"type:varchar(20);not null;default:'pending';index:idx_application_status" json:"status" validate:"oneof=pending approved rejected"`
	TuitionAmount   float64           `gorm:"type:decimal(15,2);not null" json:"tuition_amount" validate:"gt=0"`
	RejectionReason *string           `gorm:"type:text" json:"rejection_reason"`
}

func (Application) TableName() string {
	return "applications"
}

// Validate checks field constraints and that a rejection always carries a reason.
func (a *Application) Validate() error {
	if err := validate.Struct(a); err != nil {
		return err
	}
	if a.Status == ApplicationStatusRejected && (a.RejectionReason == nil || *a.RejectionReason == "") {
		return ErrRejectionReasonRequired
	}
	if a.Status != ApplicationStatusRejected && a.RejectionReason != nil {
		return ErrUnexpectedRejectionReason
	}
	return nil
}

func (a *Application) BeforeCreate(tx *gorm.DB) error {
	a.ApplyDefaults()
	return nil
}

func (a *Application) ApplyDefaults() {
	if a.Status == "" {
		a.Status = ApplicationStatusPending
	}
}

// ApplicationDetails is an application with its institution and plan embedded.
type ApplicationDetails struct {
	Application
	Institution *Institution  `json:"institution,omitempty"`
	Plan        *PlanTemplate `json:"plan,omitempty"`
}
