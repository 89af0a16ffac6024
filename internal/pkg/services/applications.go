package services

import (
	"context"
	"net/url"

	"github.com/ManuelReschke/EduPay/app/models"
	"github.com/ManuelReschke/EduPay/internal/pkg/resource"
)

const applicationsPath = "applications"

type ApplicationService struct {
	client *resource.Client
}

// ListByUser returns the user's applications with institution and plan embedded.
func (s *ApplicationService) ListByUser(ctx context.Context, userID string) ([]models.ApplicationDetails, error) {
	q := url.Values{"userId": {userID}, "_embed": embedDetails}
	return resource.List[models.ApplicationDetails](ctx, s.client, resource.Path(applicationsPath), q, resource.Options{
		AllowEmptyNotFound: true,
		ErrorContext:       "fetch applications",
	})
}

func (s *ApplicationService) ListAll(ctx context.Context) ([]models.ApplicationDetails, error) {
	return resource.List[models.ApplicationDetails](ctx, s.client, resource.Path(applicationsPath), url.Values{"_embed": embedDetails}, resource.Options{
		AllowEmptyNotFound: true,
		ErrorContext:       "fetch all applications",
	})
}

func (s *ApplicationService) ListByStatus(ctx context.Context, status models.ApplicationStatus) ([]models.ApplicationDetails, error) {
	q := url.Values{"status": {string(status)}, "_embed": embedDetails}
	return resource.List[models.ApplicationDetails](ctx, s.client, resource.Path(applicationsPath), q, resource.Options{
		AllowEmptyNotFound: true,
		ErrorContext:       "fetch applications by status",
	})
}

// Get returns a *resource.NotFoundError when the application does not exist.
func (s *ApplicationService) Get(ctx context.Context, id string) (*models.Application, error) {
	return resource.Get[models.Application](ctx, s.client, resource.Path(applicationsPath, id), nil, resource.Options{
		ErrorContext: "fetch application",
		Resource:     "Application",
	})
}

func (s *ApplicationService) GetWithDetails(ctx context.Context, id string) (*models.ApplicationDetails, error) {
	return resource.Get[models.ApplicationDetails](ctx, s.client, resource.Path(applicationsPath, id), url.Values{"_embed": embedDetails}, resource.Options{
		ErrorContext: "fetch application with details",
		Resource:     "Application",
	})
}

func (s *ApplicationService) Create(ctx context.Context, app *models.Application) (*models.Application, error) {
	return resource.Post[models.Application](ctx, s.client, resource.Path(applicationsPath), app, resource.Options{
		ErrorContext: "create application",
	})
}

// Update patches an application. A non-zero version makes the write conditional.
func (s *ApplicationService) Update(ctx context.Context, id string, changes Changes, version int64) (*models.Application, error) {
	return resource.Patch[models.Application](ctx, s.client, resource.Path(applicationsPath, id), changes, resource.Options{
		ErrorContext: "update application",
		Resource:     "Application",
		IfMatch:      version,
	})
}

func (s *ApplicationService) Delete(ctx context.Context, id string) error {
	return resource.Delete(ctx, s.client, resource.Path(applicationsPath, id), resource.Options{
		ErrorContext: "delete application",
		Resource:     "Application",
	})
}
