package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/EduPay/app/models"
)

func seedInstitution(t *testing.T, repos *Repositories, visible bool) *models.Institution {
	t.Helper()
	inst := &models.Institution{
		Name:      models.LocalizedString{En: "Riyadh Academy", Ar: "أكاديمية الرياض"},
		Location:  models.LocalizedString{En: "Riyadh", Ar: "الرياض"},
		Type:      models.InstitutionTypeSchool,
		Gender:    models.InstitutionGenderMixed,
		IsVisible: visible,
	}
	require.NoError(t, repos.Institution.Create(context.Background(), inst))
	return inst
}

func seedActivePlan(t *testing.T, repos *Repositories, remaining float64) *models.InstallmentPlan {
	t.Helper()
	plan := &models.InstallmentPlan{
		UserID:           "user-1",
		InstitutionID:    "inst-1",
		PlanID:           "plan-1",
		ApplicationID:    "app-1",
		TotalAmount:      1200,
		PaidAmount:       1200 - remaining,
		RemainingBalance: remaining,
		InstallmentCount: 12,
		Status:           models.InstallmentStatusActive,
	}
	require.NoError(t, repos.InstallmentPlan.Create(context.Background(), plan))
	return plan
}

func TestMemoryCreateAssignsIdentity(t *testing.T) {
	repos := NewMemoryRepositories()
	inst := seedInstitution(t, repos, true)

	assert.NotEmpty(t, inst.ID)
	assert.Equal(t, int64(1), inst.Version)
	assert.False(t, inst.CreatedAt.IsZero())

	got, err := repos.Institution.Get(context.Background(), inst.ID)
	require.NoError(t, err)
	assert.Equal(t, inst.Name, got.Name)

	_, err = repos.Institution.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCreateRejectsInvalidRecord(t *testing.T) {
	repos := NewMemoryRepositories()
	err := repos.Plan.Create(context.Background(), &models.PlanTemplate{InstitutionID: "inst-1", TotalAmount: 0, InstallmentCount: 1})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestMemoryListFilters(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories()
	visible := seedInstitution(t, repos, true)
	seedInstitution(t, repos, false)

	all, err := repos.Institution.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	shown, err := repos.Institution.List(ctx, Filter{"is_visible": "true"})
	require.NoError(t, err)
	require.Len(t, shown, 1)
	assert.Equal(t, visible.ID, shown[0].ID)

	_, err = repos.Institution.List(ctx, Filter{"is_visible": "sometimes"})
	assert.ErrorIs(t, err, ErrInvalidFilter)

	_, err = repos.Institution.List(ctx, Filter{"password": "x"})
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestMemoryListAcceptsColumnAliases(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories()
	for _, user := range []string{"user-1", "user-2"} {
		require.NoError(t, repos.Application.Create(ctx, &models.Application{
			UserID: user, InstitutionID: "inst-1", PlanID: "plan-1", TuitionAmount: 1200,
		}))
	}

	byJSON, err := repos.Application.List(ctx, Filter{"userId": "user-1"})
	require.NoError(t, err)
	byColumn, err := repos.Application.List(ctx, Filter{"user_id": "user-1"})
	require.NoError(t, err)

	require.Len(t, byJSON, 1)
	assert.Equal(t, byJSON, byColumn)
	assert.Equal(t, models.ApplicationStatusPending, byJSON[0].Status)
}

func TestMemoryUpdateChecksVersion(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories()
	inst := seedInstitution(t, repos, false)

	first := *inst
	first.IsVisible = true
	require.NoError(t, repos.Institution.Update(ctx, &first, 1))
	assert.Equal(t, int64(2), first.Version)
	assert.Equal(t, inst.CreatedAt, first.CreatedAt)

	stale := *inst
	stale.Name.En = "Renamed"
	assert.ErrorIs(t, repos.Institution.Update(ctx, &stale, 1), ErrVersionMismatch)

	got, err := repos.Institution.Get(ctx, inst.ID)
	require.NoError(t, err)
	assert.True(t, got.IsVisible)
	assert.Equal(t, "Riyadh Academy", got.Name.En)

	missing := models.Institution{Base: models.Base{ID: "nope"}}
	assert.ErrorIs(t, repos.Institution.Update(ctx, &missing, 0), ErrNotFound)
}

func TestMemoryUniqueApplicationID(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories()
	seedActivePlan(t, repos, 1200)

	dup := &models.InstallmentPlan{
		UserID: "user-1", InstitutionID: "inst-1", PlanID: "plan-1", ApplicationID: "app-1",
		TotalAmount: 1200, RemainingBalance: 1200, InstallmentCount: 12,
	}
	assert.ErrorIs(t, repos.InstallmentPlan.Create(ctx, dup), ErrDuplicate)

	plans, err := repos.InstallmentPlan.List(ctx, Filter{"applicationId": "app-1"})
	require.NoError(t, err)
	assert.Len(t, plans, 1)
}

func TestMemoryUniqueEmail(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories()
	u1, err := models.NewUser("Sara", "sara@example.com", "secret123", models.RoleCustomer)
	require.NoError(t, err)
	u2, err := models.NewUser("Sara Two", "sara@example.com", "secret456", models.RoleCustomer)
	require.NoError(t, err)

	require.NoError(t, repos.User.Create(ctx, u1))
	assert.ErrorIs(t, repos.User.Create(ctx, u2), ErrDuplicate)
}

func TestMemoryDelete(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories()
	inst := seedInstitution(t, repos, true)

	require.NoError(t, repos.Institution.Delete(ctx, inst.ID))
	assert.ErrorIs(t, repos.Institution.Delete(ctx, inst.ID), ErrNotFound)

	all, err := repos.Institution.List(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMemoryRecordPayment(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories()
	plan := seedActivePlan(t, repos, 1000)

	payment := &models.Payment{Amount: 1000, PaymentType: models.PaymentTypeMonthly}
	updated, err := repos.InstallmentPlan.RecordPayment(ctx, plan.ID, plan.Version, payment)
	require.NoError(t, err)

	assert.Equal(t, 1200.0, updated.PaidAmount)
	assert.Equal(t, 0.0, updated.RemainingBalance)
	assert.Equal(t, models.InstallmentStatusCompleted, updated.Status)
	assert.Equal(t, plan.Version+1, updated.Version)
	assert.Equal(t, plan.ID, payment.InstallmentID)
	assert.Equal(t, models.PaymentStatusCompleted, payment.Status)

	payments, err := repos.Payment.List(ctx, Filter{"installmentId": plan.ID})
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestMemoryRecordPaymentRejectsWithoutSideEffects(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories()
	plan := seedActivePlan(t, repos, 1000)

	tests := []struct {
		name    string
		version int64
		payment models.Payment
		wantErr error
	}{
		{name: "over balance", version: plan.Version, payment: models.Payment{Amount: 1000.01, PaymentType: models.PaymentTypeMonthly}, wantErr: models.ErrInvalidPaymentAmount},
		{name: "zero", version: plan.Version, payment: models.Payment{Amount: 0, PaymentType: models.PaymentTypeMonthly}, wantErr: ErrInvalid},
		{name: "down payment on active plan", version: plan.Version, payment: models.Payment{Amount: 10, PaymentType: models.PaymentTypeDownPayment}, wantErr: models.ErrPlanNotAwaitingCheckout},
		{name: "stale version", version: plan.Version + 5, payment: models.Payment{Amount: 10, PaymentType: models.PaymentTypeMonthly}, wantErr: ErrVersionMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payment := tt.payment
			_, err := repos.InstallmentPlan.RecordPayment(ctx, plan.ID, tt.version, &payment)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	got, err := repos.InstallmentPlan.Get(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, got.RemainingBalance)
	assert.Equal(t, plan.Version, got.Version)

	payments, err := repos.Payment.List(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestMemoryConcurrentPaymentsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories()
	plan := seedActivePlan(t, repos, 1000)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			payment := &models.Payment{Amount: 600, PaymentType: models.PaymentTypeMonthly}
			_, errs[i] = repos.InstallmentPlan.RecordPayment(ctx, plan.ID, plan.Version, payment)
		}(i)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			failures++
		}
	}
	assert.Equal(t, 1, failures)

	got, err := repos.InstallmentPlan.Get(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 400.0, got.RemainingBalance)
	assert.Equal(t, 800.0, got.PaidAmount)
}

func TestMemoryRecordPaymentUndoesPaymentWhenPlanWriteFails(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories()
	plan := seedActivePlan(t, repos, 1000)

	// A row sharing the application id makes the unique check fail on the plan write.
	store := repos.InstallmentPlan.(*memoryInstallmentPlanStore)
	clash := *plan
	clash.ID = "ip-clash"
	store.rows[clash.ID] = clash
	store.order = append(store.order, clash.ID)

	payment := &models.Payment{Amount: 100, PaymentType: models.PaymentTypeMonthly}
	_, err := repos.InstallmentPlan.RecordPayment(ctx, plan.ID, plan.Version, payment)
	assert.ErrorIs(t, err, ErrDuplicate)

	got, err := repos.InstallmentPlan.Get(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, got.RemainingBalance)
	assert.Equal(t, plan.Version, got.Version)

	payments, err := repos.Payment.List(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, payments)
	assert.Empty(t, store.payments.order)
}
