// Package services wraps the ledger REST resources in typed per-resource operations.
package services

import (
	"github.com/ManuelReschke/EduPay/internal/pkg/resource"
)

// Changes is a partial update sent as PATCH body.
type Changes map[string]interface{}

// Services bundles one service per ledger resource.
type Services struct {
	Institutions *InstitutionService
	Plans        *PlanService
	Applications *ApplicationService
	Installments *InstallmentService
	Payments     *PaymentService
	Users        *UserService
}

// New creates all services on top of one resource client.
func New(client *resource.Client) *Services {
	installments := &InstallmentService{client: client}
	return &Services{
		Institutions: &InstitutionService{client: client},
		Plans:        &PlanService{client: client},
		Applications: &ApplicationService{client: client},
		Installments: installments,
		Payments:     &PaymentService{client: client, installments: installments},
		Users:        &UserService{client: client},
	}
}

var embedDetails = []string{"institution", "plan"}
