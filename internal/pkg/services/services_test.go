package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/EduPay/app/models"
	"github.com/ManuelReschke/EduPay/internal/pkg/ledger/ledgertest"
	"github.com/ManuelReschke/EduPay/internal/pkg/resource"
)

type fixture struct {
	svc  *Services
	inst *models.Institution
	plan *models.PlanTemplate
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	srv := ledgertest.NewServer(t)
	svc := New(srv.Client())

	inst, err := svc.Institutions.Create(ctx, &models.Institution{
		Name:      models.LocalizedString{En: "Riyadh School", Ar: "مدرسة الرياض"},
		Location:  models.LocalizedString{En: "Riyadh", Ar: "الرياض"},
		Type:      models.InstitutionTypeSchool,
		Gender:    models.InstitutionGenderFemale,
		IsVisible: true,
	})
	require.NoError(t, err)

	plan, err := svc.Plans.Create(ctx, &models.PlanTemplate{
		InstitutionID:    inst.ID,
		Name:             models.LocalizedString{En: "Term", Ar: "فصل"},
		TotalAmount:      1000,
		InstallmentCount: 4,
	})
	require.NoError(t, err)

	return &fixture{svc: svc, inst: inst, plan: plan}
}

func (f *fixture) apply(t *testing.T, userID string) *models.Application {
	t.Helper()
	app, err := f.svc.Applications.Create(context.Background(), &models.Application{
		UserID:        userID,
		InstitutionID: f.inst.ID,
		PlanID:        f.plan.ID,
		TuitionAmount: f.plan.TotalAmount,
	})
	require.NoError(t, err)
	return app
}

func TestInstitutions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	hidden, err := f.svc.Institutions.Create(ctx, &models.Institution{
		Name:     models.LocalizedString{En: "Hidden", Ar: "مخفي"},
		Location: models.LocalizedString{En: "Dammam", Ar: "الدمام"},
		Type:     models.InstitutionTypeUniversity,
	})
	require.NoError(t, err)
	assert.Equal(t, models.InstitutionGenderMixed, hidden.Gender)

	all, err := f.svc.Institutions.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	visible, err := f.svc.Institutions.ListVisible(ctx, InstitutionFilter{})
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, f.inst.ID, visible[0].ID)

	visible, err = f.svc.Institutions.ListVisible(ctx, InstitutionFilter{Type: f.inst.Type, Gender: f.inst.Gender})
	require.NoError(t, err)
	assert.Len(t, visible, 1)

	visible, err = f.svc.Institutions.ListVisible(ctx, InstitutionFilter{Gender: models.InstitutionGenderFemale})
	require.NoError(t, err)
	assert.Empty(t, visible)

	updated, err := f.svc.Institutions.Update(ctx, hidden.ID, Changes{"is_visible": true}, hidden.Version)
	require.NoError(t, err)
	assert.True(t, updated.IsVisible)

	_, err = f.svc.Institutions.Update(ctx, hidden.ID, Changes{"is_visible": false}, hidden.Version)
	assert.True(t, resource.IsStale(err))

	require.NoError(t, f.svc.Institutions.Delete(ctx, hidden.ID))
	got, err := f.svc.Institutions.Get(ctx, hidden.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPlans(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	plans, err := f.svc.Plans.ListByInstitution(ctx, f.inst.ID)
	require.NoError(t, err)
	require.Len(t, plans, 1)

	none, err := f.svc.Plans.ListByInstitution(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.svc.Plans.Get(ctx, "missing")
	var nf *resource.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Plan not found", nf.Message)
}

func TestApplications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	app := f.apply(t, "user-1")
	assert.Equal(t, models.ApplicationStatusPending, app.Status)
	f.apply(t, "user-2")

	mine, err := f.svc.Applications.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].Institution)
	require.NotNil(t, mine[0].Plan)
	assert.Equal(t, f.plan.ID, mine[0].Plan.ID)

	all, err := f.svc.Applications.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	approved, err := f.svc.Applications.Update(ctx, app.ID, Changes{"status": models.ApplicationStatusApproved}, app.Version)
	require.NoError(t, err)
	assert.Equal(t, int64(2), approved.Version)

	byStatus, err := f.svc.Applications.ListByStatus(ctx, models.ApplicationStatusApproved)
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, app.ID, byStatus[0].ID)

	details, err := f.svc.Applications.GetWithDetails(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, f.inst.ID, details.Institution.ID)

	_, err = f.svc.Applications.Get(ctx, "missing")
	var nf *resource.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Application not found", nf.Message)

	_, err = f.svc.Applications.Update(ctx, app.ID, Changes{"status": "bogus"}, 0)
	assert.Equal(t, http.StatusUnprocessableEntity, resource.StatusCode(err))

	require.NoError(t, f.svc.Applications.Delete(ctx, app.ID))
}

func TestInstallmentsAndPayments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app := f.apply(t, "user-1")

	none, err := f.svc.Installments.GetByApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Nil(t, none)

	ip, err := f.svc.Installments.Create(ctx, models.NewInstallmentPlan(app, f.plan))
	require.NoError(t, err)
	assert.Equal(t, models.InstallmentStatusAwaitingCheckout, ip.Status)

	_, err = f.svc.Installments.Create(ctx, models.NewInstallmentPlan(app, f.plan))
	assert.True(t, resource.IsConflict(err))

	byApp, err := f.svc.Installments.GetByApplication(ctx, app.ID)
	require.NoError(t, err)
	require.NotNil(t, byApp)
	assert.Equal(t, ip.ID, byApp.ID)

	receipt, err := f.svc.Installments.RecordPayment(ctx, ip.ID, ip.Version, 250, models.PaymentTypeDownPayment)
	require.NoError(t, err)
	assert.Equal(t, models.InstallmentStatusActive, receipt.InstallmentPlan.Status)
	assert.Equal(t, 750.0, receipt.InstallmentPlan.RemainingBalance)
	assert.Equal(t, ip.ID, receipt.Payment.InstallmentID)

	_, err = f.svc.Installments.RecordPayment(ctx, ip.ID, ip.Version, 250, models.PaymentTypeMonthly)
	assert.True(t, resource.IsStale(err))

	_, err = f.svc.Installments.RecordPayment(ctx, ip.ID, receipt.InstallmentPlan.Version, 250, models.PaymentTypeDownPayment)
	assert.Equal(t, http.StatusConflict, resource.StatusCode(err))

	receipt, err = f.svc.Installments.RecordPayment(ctx, ip.ID, receipt.InstallmentPlan.Version, 250, models.PaymentTypeMonthly)
	require.NoError(t, err)
	assert.Equal(t, 500.0, receipt.InstallmentPlan.PaidAmount)

	details, err := f.svc.Installments.GetWithDetails(ctx, ip.ID)
	require.NoError(t, err)
	require.NotNil(t, details)
	assert.Equal(t, f.inst.ID, details.Institution.ID)

	missing, err := f.svc.Installments.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, missing)

	active, err := f.svc.Installments.ListByStatus(ctx, models.InstallmentStatusActive)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	byInst, err := f.svc.Installments.ListByInstitution(ctx, f.inst.ID)
	require.NoError(t, err)
	assert.Len(t, byInst, 1)

	byPlan, err := f.svc.Installments.ListByPlan(ctx, f.plan.ID)
	require.NoError(t, err)
	assert.Len(t, byPlan, 1)

	payments, err := f.svc.Payments.ListByInstallment(ctx, ip.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 2)

	monthly, err := f.svc.Payments.ListByType(ctx, models.PaymentTypeMonthly)
	require.NoError(t, err)
	require.Len(t, monthly, 1)

	got, err := f.svc.Payments.Get(ctx, monthly[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 250.0, got.Amount)

	completed, err := f.svc.Payments.ListByStatus(ctx, models.PaymentStatusCompleted)
	require.NoError(t, err)
	assert.Len(t, completed, 2)
}

func TestPaymentsListByUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var total int
	for i := 0; i < 3; i++ {
		ip, err := f.svc.Installments.Create(ctx, models.NewInstallmentPlan(f.apply(t, "user-1"), f.plan))
		require.NoError(t, err)
		_, err = f.svc.Installments.RecordPayment(ctx, ip.ID, ip.Version, 100, models.PaymentTypeDownPayment)
		require.NoError(t, err)
		total++
	}
	other, err := f.svc.Installments.Create(ctx, models.NewInstallmentPlan(f.apply(t, "user-2"), f.plan))
	require.NoError(t, err)
	_, err = f.svc.Installments.RecordPayment(ctx, other.ID, other.Version, 100, models.PaymentTypeDownPayment)
	require.NoError(t, err)

	payments, err := f.svc.Payments.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, payments, total)
	for i := 1; i < len(payments); i++ {
		assert.False(t, payments[i].CreatedAt.After(payments[i-1].CreatedAt))
	}

	empty, err := f.svc.Payments.ListByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := models.NewUser("Sara Ahmed", "Sara@Example.com", "secret123", models.RoleCustomer)
	require.NoError(t, err)
	created, err := f.svc.Users.Create(ctx, u)
	require.NoError(t, err)

	got, err := f.svc.Users.GetByEmail(ctx, " SARA@example.com ")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)

	byID, err := f.svc.Users.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "sara@example.com", byID.Email)

	missing, err := f.svc.Users.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = f.svc.Users.Create(ctx, u)
	assert.True(t, resource.IsConflict(err))

	customers, err := f.svc.Users.ListByRole(ctx, models.RoleCustomer)
	require.NoError(t, err)
	assert.Len(t, customers, 1)
}
