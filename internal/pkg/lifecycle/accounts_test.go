package lifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/EduPay/app/models"
)

func TestSignUpAndSignIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.lc.SignUp(ctx, SignUpInput{FullName: "Noura Saleh", Email: "Noura@Example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, user.Role)
	assert.Equal(t, "noura@example.com", user.Email)
	assert.Empty(t, user.Password)

	stored, err := f.repos.User.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", stored.Password)
	assert.True(t, models.CheckPasswordHash("s3cret-pass", stored.Password))

	_, err = f.lc.SignUp(ctx, SignUpInput{FullName: "Other", Email: "noura@example.com", Password: "x"})
	assertKind(t, err, KindConflict, "Email already registered")

	_, err = f.lc.SignUp(ctx, SignUpInput{FullName: "", Email: "a@b.c", Password: "x"})
	assertKind(t, err, KindValidation, "All fields are required")

	_, err = f.lc.SignUp(ctx, SignUpInput{FullName: "Bad Mail", Email: "not-an-email", Password: "x"})
	assertKind(t, err, KindValidation, "")

	caller, signedIn, err := f.lc.SignIn(ctx, "NOURA@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, Caller{UserID: user.ID, Role: models.RoleCustomer}, caller)
	assert.Empty(t, signedIn.Password)

	_, _, err = f.lc.SignIn(ctx, "noura@example.com", "wrong")
	assertKind(t, err, KindUnauthenticated, "Invalid email or password")

	_, _, err = f.lc.SignIn(ctx, "nobody@example.com", "s3cret-pass")
	assertKind(t, err, KindUnauthenticated, "Invalid email or password")

	me, err := f.lc.CurrentUser(ctx, caller)
	require.NoError(t, err)
	assert.Equal(t, user.ID, me.ID)
	assert.Empty(t, me.Password)
}

func TestCreateUserRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := SignUpInput{FullName: "Staff Member", Email: "staff@example.com", Password: "secret"}

	_, err := f.lc.CreateUser(ctx, customer, in, models.RoleAdmin)
	assertKind(t, err, KindForbidden, "Unauthorized")

	user, err := f.lc.CreateUser(ctx, admin, in, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)

	_, err = f.lc.CreateUser(ctx, admin, SignUpInput{FullName: "X Y", Email: "x@example.com", Password: "p"}, "root")
	assertKind(t, err, KindValidation, "")
}
