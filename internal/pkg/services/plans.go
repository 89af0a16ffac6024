package services

import (
	"context"
	"net/url"

	"github.com/ManuelReschke/EduPay/app/models"
	"github.com/ManuelReschke/EduPay/internal/pkg/resource"
)

const plansPath = "plans"

type PlanService struct {
	client *resource.Client
}

func (s *PlanService) ListByInstitution(ctx context.Context, institutionID string) ([]models.PlanTemplate, error) {
	return resource.List[models.PlanTemplate](ctx, s.client, resource.Path(plansPath), url.Values{"institutionId": {institutionID}}, resource.Options{
		AllowEmptyNotFound: true,
		ErrorContext:       "fetch institution plans",
	})
}

// Get returns a *resource.NotFoundError when the plan does not exist.
func (s *PlanService) Get(ctx context.Context, id string) (*models.PlanTemplate, error) {
	return resource.Get[models.PlanTemplate](ctx, s.client, resource.Path(plansPath, id), nil, resource.Options{
		ErrorContext: "fetch plan",
		Resource:     "Plan",
	})
}

func (s *PlanService) Create(ctx context.Context, plan *models.PlanTemplate) (*models.PlanTemplate, error) {
	return resource.Post[models.PlanTemplate](ctx, s.client, resource.Path(plansPath), plan, resource.Options{
		ErrorContext: "create plan",
	})
}
