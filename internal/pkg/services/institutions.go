package services

import (
	"context"
	"net/url"

	"github.com/ManuelReschke/EduPay/app/models"
	"github.com/ManuelReschke/EduPay/internal/pkg/resource"
)

const institutionsPath = "institutions"

type InstitutionService struct {
	client *resource.Client
}

func (s *InstitutionService) List(ctx context.Context) ([]models.Institution, error) {
	return resource.List[models.Institution](ctx, s.client, resource.Path(institutionsPath), nil, resource.Options{
		AllowEmptyNotFound: true,
		ErrorContext:       "fetch institutions",
	})
}

// InstitutionFilter narrows the catalog. Empty fields match everything.
type InstitutionFilter struct {
	Type   models.InstitutionType
	Gender models.InstitutionGender
}

// ListVisible returns the institutions shown in the customer catalog.
func (s *InstitutionService) ListVisible(ctx context.Context, filter InstitutionFilter) ([]models.Institution, error) {
	query := url.Values{"is_visible": {"true"}}
	if filter.Type != "" {
		query.Set("type", string(filter.Type))
	}
	if filter.Gender != "" {
		query.Set("gender", string(filter.Gender))
	}
	return resource.List[models.Institution](ctx, s.client, resource.Path(institutionsPath), query, resource.Options{
		AllowEmptyNotFound: true,
		ErrorContext:       "fetch visible institutions",
	})
}

// Get returns nil when the institution does not exist.
func (s *InstitutionService) Get(ctx context.Context, id string) (*models.Institution, error) {
	return resource.Get[models.Institution](ctx, s.client, resource.Path(institutionsPath, id), nil, resource.Options{
		AllowNotFound: true,
		ErrorContext:  "fetch institution",
	})
}

func (s *InstitutionService) Create(ctx context.Context, inst *models.Institution) (*models.Institution, error) {
	return resource.Post[models.Institution](ctx, s.client, resource.Path(institutionsPath), inst, resource.Options{
		ErrorContext: "create institution",
	})
}

// Update patches an institution. A non-zero version makes the write conditional.
func (s *InstitutionService) Update(ctx context.Context, id string, changes Changes, version int64) (*models.Institution, error) {
	return resource.Patch[models.Institution](ctx, s.client, resource.Path(institutionsPath, id), changes, resource.Options{
		ErrorContext: "update institution",
		Resource:     "Institution",
		IfMatch:      version,
	})
}

func (s *InstitutionService) Delete(ctx context.Context, id string) error {
	return resource.Delete(ctx, s.client, resource.Path(institutionsPath, id), resource.Options{
		ErrorContext: "delete institution",
		Resource:     "Institution",
	})
}
