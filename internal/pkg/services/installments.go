package services

import (
	"context"
	"net/url"

	"github.com/ManuelReschke/EduPay/app/models"
	"github.com/ManuelReschke/EduPay/internal/pkg/resource"
)

const installmentPlansPath = "installment_plans"

type InstallmentService struct {
	client *resource.Client
}

// ListByUser returns the user's installment plans with institution and plan embedded.
func (s *InstallmentService) ListByUser(ctx context.Context, userID string) ([]models.InstallmentPlanDetails, error) {
	q := url.Values{"userId": {userID}, "_embed": embedDetails}
	return resource.List[models.InstallmentPlanDetails](ctx, s.client, resource.Path(installmentPlansPath), q, resource.Options{
		AllowEmptyNotFound: true,
		ErrorContext:       "fetch user installments",
	})
}

// GetByApplication returns the plan created for an application, or nil if none exists yet.
func (s *InstallmentService) GetByApplication(ctx context.Context, applicationID string) (*models.InstallmentPlan, error) {
	plans, err := resource.List[models.InstallmentPlan](ctx, s.client, resource.Path(installmentPlansPath), url.Values{"applicationId": {applicationID}}, resource.Options{
		AllowEmptyNotFound: true,
		ErrorContext:       "fetch installment plan by application",
	})
	if err != nil || len(plans) == 0 {
		return nil, err
	}
	return &plans[0], nil
}

// Get returns nil when the installment plan does not exist.
func (s *InstallmentService) Get(ctx context.Context, id string) (*models.InstallmentPlan, error) {
	return resource.Get[models.InstallmentPlan](ctx, s.client, resource.Path(installmentPlansPath, id), nil, resource.Options{
		AllowNotFound: true,
		ErrorContext:  "fetch installment plan",
	})
}

func (s *InstallmentService) GetWithDetails(ctx context.Context, id string) (*models.InstallmentPlanDetails, error) {
	return resource.Get[models.InstallmentPlanDetails](ctx, s.client, resource.Path(installmentPlansPath, id), url.Values{"_embed": embedDetails}, resource.Options{
		AllowNotFound: true,
		ErrorContext:  "fetch installment plan with details",
	})
}

func (s *InstallmentService) ListAll(ctx context.Context) ([]models.InstallmentPlanDetails, error) {
	return s.list(ctx, nil, "fetch all installment plans")
}

func (s *InstallmentService) ListByStatus(ctx context.Context, status models.InstallmentPlanStatus) ([]models.InstallmentPlanDetails, error) {
	return s.list(ctx, url.Values{"status": {string(status)}}, "fetch installment plans by status")
}

func (s *InstallmentService) ListByInstitution(ctx context.Context, institutionID string) ([]models.InstallmentPlanDetails, error) {
	return s.list(ctx, url.Values{"institutionId": {institutionID}}, "fetch institution installment plans")
}

func (s *InstallmentService) ListByPlan(ctx context.Context, planID string) ([]models.InstallmentPlanDetails, error) {
	return s.list(ctx, url.Values{"planId": {planID}}, "fetch installment plans by plan")
}

func (s *InstallmentService) list(ctx context.Context, q url.Values, errorContext string) ([]models.InstallmentPlanDetails, error) {
	if q == nil {
		q = url.Values{}
	}
	q["_embed"] = embedDetails
	return resource.List[models.InstallmentPlanDetails](ctx, s.client, resource.Path(installmentPlansPath), q, resource.Options{
		AllowEmptyNotFound: true,
		ErrorContext:       errorContext,
	})
}

// Create stores a new installment plan. A second plan for the same
// application is answered with 409 by the ledger.
func (s *InstallmentService) Create(ctx context.Context, plan *models.InstallmentPlan) (*models.InstallmentPlan, error) {
	return resource.Post[models.InstallmentPlan](ctx, s.client, resource.Path(installmentPlansPath), plan, resource.Options{
		ErrorContext: "create installment plan",
	})
}

func (s *InstallmentService) Update(ctx context.Context, id string, changes Changes, version int64) (*models.InstallmentPlan, error) {
	return resource.Patch[models.InstallmentPlan](ctx, s.client, resource.Path(installmentPlansPath, id), changes, resource.Options{
		ErrorContext: "update installment plan",
		Resource:     "Installment plan",
		IfMatch:      version,
	})
}

func (s *InstallmentService) Delete(ctx context.Context, id string) error {
	return resource.Delete(ctx, s.client, resource.Path(installmentPlansPath, id), resource.Options{
		ErrorContext: "delete installment plan",
		Resource:     "Installment plan",
	})
}

type paymentRequest struct {
	Amount      float64            `json:"amount"`
	PaymentType models.PaymentType `json:"payment_type"`
}

// RecordPayment books a payment and updates the plan balance in one ledger call.
// The write is rejected with 412 when the plan version moved on.
func (s *InstallmentService) RecordPayment(ctx context.Context, planID string, version int64, amount float64, paymentType models.PaymentType) (*models.PaymentReceipt, error) {
	return resource.Post[models.PaymentReceipt](ctx, s.client, resource.Path(installmentPlansPath, planID, "payments"), paymentRequest{
		Amount:      amount,
		PaymentType: paymentType,
	}, resource.Options{
		ErrorContext: "record payment",
		Resource:     "Installment plan",
		IfMatch:      version,
	})
}
