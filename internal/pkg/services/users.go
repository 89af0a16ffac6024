package services

import (
	"context"
	"net/url"

	"github.com/ManuelReschke/EduPay/app/models"
	"github.com/ManuelReschke/EduPay/internal/pkg/resource"
)

const usersPath = "users"

type UserService struct {
	client *resource.Client
}

// GetByEmail returns nil when no user has that address.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	users, err := resource.List[models.User](ctx, s.client, resource.Path(usersPath), url.Values{"email": {models.NormalizeEmail(email)}}, resource.Options{
		AllowEmptyNotFound: true,
		ErrorContext:       "fetch user",
	})
	if err != nil || len(users) == 0 {
		return nil, err
	}
	return &users[0], nil
}

// GetByID returns nil when the user does not exist.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	return resource.Get[models.User](ctx, s.client, resource.Path(usersPath, id), nil, resource.Options{
		AllowNotFound: true,
		ErrorContext:  "fetch user",
	})
}

func (s *UserService) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	return resource.List[models.User](ctx, s.client, resource.Path(usersPath), url.Values{"role": {string(role)}}, resource.Options{
		AllowEmptyNotFound: true,
		ErrorContext:       "fetch users",
	})
}

func (s *UserService) Create(ctx context.Context, user *models.User) (*models.User, error) {
	return resource.Post[models.User](ctx, s.client, resource.Path(usersPath), user, resource.Options{
		ErrorContext: "create user",
	})
}
