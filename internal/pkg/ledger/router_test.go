package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/EduPay/app/models"
	"github.com/ManuelReschke/EduPay/app/repository"
)

type fixture struct {
	app   *fiber.App
	repos *repository.Repositories
	inst  *models.Institution
	plan  *models.PlanTemplate
}

func newFixture(t *testing.T, cfg *Config) *fixture {
	t.Helper()
	if cfg == nil {
		cfg = &Config{}
	}
	ctx := context.Background()
	repos := repository.NewMemoryRepositories()

	inst := &models.Institution{
		Name:      models.LocalizedString{En: "Jeddah University", Ar: "جامعة جدة"},
		Location:  models.LocalizedString{En: "Jeddah", Ar: "جدة"},
		Type:      models.InstitutionTypeUniversity,
		Gender:    models.InstitutionGenderMixed,
		IsVisible: true,
	}
	require.NoError(t, repos.Institution.Create(ctx, inst))
	plan := &models.PlanTemplate{
		InstitutionID:    inst.ID,
		Name:             models.LocalizedString{En: "Yearly", Ar: "سنوي"},
		TotalAmount:      1200,
		InstallmentCount: 12,
	}
	require.NoError(t, repos.Plan.Create(ctx, plan))

	return &fixture{app: NewApp(repos, cfg), repos: repos, inst: inst, plan: plan}
}

func (f *fixture) do(t *testing.T, method, target string, body interface{}, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (f *fixture) createApplication(t *testing.T) models.Application {
	t.Helper()
	resp, body := f.do(t, http.MethodPost, "/applications", map[string]interface{}{
		"userId":         "user-1",
		"institutionId":  f.inst.ID,
		"planId":         f.plan.ID,
		"tuition_amount": f.plan.TotalAmount,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var app models.Application
	require.NoError(t, json.Unmarshal(body, &app))
	return app
}

func TestCreateAndGet(t *testing.T) {
	f := newFixture(t, nil)
	created := f.createApplication(t)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.ApplicationStatusPending, created.Status)
	assert.Nil(t, created.RejectionReason)

	resp, body := f.do(t, http.MethodGet, "/applications/"+created.ID, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `"1"`, resp.Header.Get(fiber.HeaderETag))

	var got models.Application
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, created.ID, got.ID)

	resp, _ = f.do(t, http.MethodGet, "/applications/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateRejectsInvalidPayload(t *testing.T) {
	f := newFixture(t, nil)

	resp, _ := f.do(t, http.MethodPost, "/plans", map[string]interface{}{
		"institutionId":     f.inst.ID,
		"total_amount":      -1,
		"installment_count": 0,
	}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestListFiltersAndEmbeds(t *testing.T) {
	f := newFixture(t, nil)
	f.createApplication(t)

	resp, body := f.do(t, http.MethodGet, "/applications?userId=user-1&_embed=institution&_embed=plan", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rows []models.ApplicationDetails
	require.NoError(t, json.Unmarshal(body, &rows))
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].Institution)
	require.NotNil(t, rows[0].Plan)
	assert.Equal(t, "Jeddah University", rows[0].Institution.Name.En)
	assert.Equal(t, 12, rows[0].Plan.InstallmentCount)

	resp, body = f.do(t, http.MethodGet, "/applications?userId=someone-else", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))

	resp, _ = f.do(t, http.MethodGet, "/applications?_embed=user", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/applications?tuition_amount=5", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPatchHonorsIfMatch(t *testing.T) {
	f := newFixture(t, nil)
	app := f.createApplication(t)

	resp, body := f.do(t, http.MethodPatch, "/applications/"+app.ID,
		map[string]interface{}{"status": "approved", "id": "hijack", "version": 99},
		map[string]string{fiber.HeaderIfMatch: `"1"`})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var updated models.Application
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, app.ID, updated.ID)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, models.ApplicationStatusApproved, updated.Status)
	assert.Equal(t, "user-1", updated.UserID)

	resp, _ = f.do(t, http.MethodPatch, "/applications/"+app.ID,
		map[string]interface{}{"status": "pending"},
		map[string]string{fiber.HeaderIfMatch: `"1"`})
	assert.Equal(t, http.StatusPreconditionFailed, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPatch, "/applications/"+app.ID,
		map[string]interface{}{"status": "pending"},
		map[string]string{fiber.HeaderIfMatch: "latest"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPatch, "/applications/"+app.ID,
		map[string]interface{}{"status": "rejected"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, "a rejection needs a reason")
}

func TestInstallmentPlanUniquePerApplication(t *testing.T) {
	f := newFixture(t, nil)
	app := f.createApplication(t)
	body := map[string]interface{}{
		"userId":            app.UserID,
		"institutionId":     app.InstitutionID,
		"planId":            app.PlanID,
		"applicationId":     app.ID,
		"total_amount":      1200,
		"paid_amount":       0,
		"remaining_balance": 1200,
		"installment_count": 12,
	}

	resp, data := f.do(t, http.MethodPost, "/installment_plans", body, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))

	resp, _ = f.do(t, http.MethodPost, "/installment_plans", body, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRecordPaymentEndpoint(t *testing.T) {
	f := newFixture(t, nil)
	app := f.createApplication(t)
	plan := models.NewInstallmentPlan(&app, f.plan)
	require.NoError(t, f.repos.InstallmentPlan.Create(context.Background(), plan))

	resp, data := f.do(t, http.MethodPost, "/installment_plans/"+plan.ID+"/payments",
		map[string]interface{}{"amount": 200, "payment_type": "down_payment"},
		map[string]string{fiber.HeaderIfMatch: `"1"`})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))

	var receipt models.PaymentReceipt
	require.NoError(t, json.Unmarshal(data, &receipt))
	assert.Equal(t, 200.0, receipt.InstallmentPlan.PaidAmount)
	assert.Equal(t, 1000.0, receipt.InstallmentPlan.RemainingBalance)
	assert.Equal(t, models.InstallmentStatusActive, receipt.InstallmentPlan.Status)
	assert.Equal(t, plan.ID, receipt.Payment.InstallmentID)

	resp, _ = f.do(t, http.MethodPost, "/installment_plans/"+plan.ID+"/payments",
		map[string]interface{}{"amount": 50, "payment_type": "monthly"},
		map[string]string{fiber.HeaderIfMatch: `"1"`})
	assert.Equal(t, http.StatusPreconditionFailed, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/installment_plans/"+plan.ID+"/payments",
		map[string]interface{}{"amount": 50, "payment_type": "down_payment"}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/installment_plans/"+plan.ID+"/payments",
		map[string]interface{}{"amount": 1500, "payment_type": "monthly"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, data = f.do(t, http.MethodGet, "/payments?installmentId="+plan.ID, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var payments []models.Payment
	require.NoError(t, json.Unmarshal(data, &payments))
	assert.Len(t, payments, 1)
}

func TestDeleteReturnsRecord(t *testing.T) {
	f := newFixture(t, nil)
	app := f.createApplication(t)

	resp, data := f.do(t, http.MethodDelete, "/applications/"+app.ID, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var deleted models.Application
	require.NoError(t, json.Unmarshal(data, &deleted))
	assert.Equal(t, app.ID, deleted.ID)

	resp, _ = f.do(t, http.MethodDelete, "/applications/"+app.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServiceKey(t *testing.T) {
	f := newFixture(t, &Config{APIKey: "s3cret"})

	resp, _ := f.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/institutions", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/institutions", nil, map[string]string{"X-API-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/institutions", nil, map[string]string{"Authorization": "Bearer s3cret"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
