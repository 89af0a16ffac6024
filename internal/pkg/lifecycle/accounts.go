package lifecycle

import (
	"context"
	"strings"

	"github.com/ManuelReschke/EduPay/app/models"
	"github.com/ManuelReschke/EduPay/internal/pkg/resource"
)

const msgInvalidCredentials = "Invalid email or password"

// dummyHash is compared against when the email is unknown so both failure
// paths cost one bcrypt comparison.
var dummyHash, _ = models.HashPassword("edupay-dummy-password")

// SignUpInput is the self service registration form.
type SignUpInput struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp registers a customer account.
func (l *Lifecycle) SignUp(ctx context.Context, in SignUpInput) (_ *models.User, err error) {
	defer l.observe("sign_up", &err)

	return l.createUser(ctx, in, models.RoleCustomer)
}

// CreateUser registers an account with any role on behalf of an admin.
func (l *Lifecycle) CreateUser(ctx context.Context, caller Caller, in SignUpInput, role models.Role) (_ *models.User, err error) {
	defer l.observe("create_user", &err)

	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return l.createUser(ctx, in, role)
}

func (l *Lifecycle) createUser(ctx context.Context, in SignUpInput, role models.Role) (*models.User, error) {
	if strings.TrimSpace(in.FullName) == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, newError(KindValidation, "All fields are required")
	}

	existing, err := l.svc.Users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, newError(KindConflict, "Email already registered")
	}

	user, err := models.NewUser(in.FullName, in.Email, in.Password, role)
	if err != nil {
		return nil, invalid("account", err)
	}
	created, err := l.svc.Users.Create(ctx, user)
	if resource.IsConflict(err) {
		return nil, newError(KindConflict, "Email already registered")
	}
	if err != nil {
		return nil, err
	}
	created.Password = ""
	return created, nil
}

// SignIn checks the credentials and returns the caller identity of the account.
func (l *Lifecycle) SignIn(ctx context.Context, email, password string) (_ Caller, _ *models.User, err error) {
	defer l.observe("sign_in", &err)

	user, err := l.svc.Users.GetByEmail(ctx, email)
	if err != nil {
		return Caller{}, nil, err
	}
	if user == nil {
		models.CheckPasswordHash(password, dummyHash)
		return Caller{}, nil, newError(KindUnauthenticated, msgInvalidCredentials)
	}
	if !models.CheckPasswordHash(password, user.Password) {
		return Caller{}, nil, newError(KindUnauthenticated, msgInvalidCredentials)
	}

	user.Password = ""
	return Caller{UserID: user.ID, Role: user.Role}, user, nil
}

// CurrentUser loads the account of a signed in caller.
func (l *Lifecycle) CurrentUser(ctx context.Context, caller Caller) (_ *models.User, err error) {
	defer l.observe("current_user", &err)

	if err := requireSignedIn(caller, "You must be signed in"); err != nil {
		return nil, err
	}
	user, err := l.svc.Users.GetByID(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, newError(KindUnauthenticated, "You must be signed in")
	}
	user.Password = ""
	return user, nil
}
