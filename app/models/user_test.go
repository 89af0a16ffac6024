package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUserHashesPassword(t *testing.T) {
	u, err := NewUser(" Sara Ali ", " Sara@Example.com ", "secret123", "")
	require.NoError(t, err)

	assert.Equal(t, "Sara Ali", u.FullName)
	assert.Equal(t, "sara@example.com", u.Email)
	assert.Equal(t, RoleCustomer, u.Role)
	assert.NotEqual(t, "secret123", u.Password)
	assert.True(t, CheckPasswordHash("secret123", u.Password))
	assert.False(t, CheckPasswordHash("wrong", u.Password))
}

func TestNewUserValidates(t *testing.T) {
	_, err := NewUser("Sara", "not-an-email", "secret123", RoleCustomer)
	assert.Error(t, err)

	_, err = NewUser("Sara", "sara@example.com", "secret123", "owner")
	assert.Error(t, err)
}

func TestApplicationValidate(t *testing.T) {
	reason := "missing documents"
	tests := []struct {
		name    string
		status  ApplicationStatus
		reason  *string
		wantErr error
	}{
		{name: "pending", status: ApplicationStatusPending},
		{name: "rejected with reason", status: ApplicationStatusRejected, reason: &reason},
		{name: "rejected without reason", status: ApplicationStatusRejected, wantErr: ErrRejectionReasonRequired},
		{name: "approved with reason", status: ApplicationStatusApproved, reason: &reason, wantErr: ErrUnexpectedRejectionReason},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Application{
				UserID:          "u-1",
				InstitutionID:   "i-1",
				PlanID:          "p-1",
				Status:          tt.status,
				TuitionAmount:   1200,
				RejectionReason: tt.reason,
			}
			if tt.wantErr != nil {
				assert.ErrorIs(t, a.Validate(), tt.wantErr)
				return
			}
			assert.NoError(t, a.Validate())
		})
	}
}

func TestRoundAmount(t *testing.T) {
	assert.Equal(t, 100.0, RoundAmount(100.004))
	assert.Equal(t, 99.75, RoundAmount(99.75))
	assert.Equal(t, 83.33, RoundAmount(1000.0/12))
}
