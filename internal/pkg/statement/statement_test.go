package statement

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/EduPay/app/models"
	"github.com/ManuelReschke/EduPay/internal/pkg/jobqueue"
	"github.com/ManuelReschke/EduPay/internal/pkg/ledger/ledgertest"
	"github.com/ManuelReschke/EduPay/internal/pkg/services"
)

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (s *memStore) Put(_ context.Context, key string, body []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPut != nil {
		return s.failPut
	}
	s.objects[key] = body
	return nil
}

func (s *memStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

type fakeQueue struct {
	seen map[string]bool
	jobs []map[string]interface{}
}

func (q *fakeQueue) EnqueueUnique(_ context.Context, jobType jobqueue.JobType, key string, _ time.Duration, payload map[string]interface{}) (*jobqueue.Job, error) {
	if q.seen == nil {
		q.seen = map[string]bool{}
	}
	if q.seen[key] {
		return nil, nil
	}
	q.seen[key] = true
	q.jobs = append(q.jobs, payload)
	return &jobqueue.Job{ID: key, Type: jobType, Payload: payload}, nil
}

type fixture struct {
	svc      *services.Services
	store    *memStore
	archiver *Archiver
	inst     *models.Institution
	plan     *models.PlanTemplate
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	srv := ledgertest.NewServer(t)
	svc := services.New(srv.Client())

	inst, err := svc.Institutions.Create(ctx, &models.Institution{
		Name:     models.LocalizedString{En: "Jeddah University"},
		Location: models.LocalizedString{En: "Jeddah"},
		Type:     models.InstitutionTypeUniversity,
		Gender:   models.InstitutionGenderMixed,
	})
	require.NoError(t, err)
	plan, err := svc.Plans.Create(ctx, &models.PlanTemplate{
		InstitutionID:    inst.ID,
		Name:             models.LocalizedString{En: "Year"},
		TotalAmount:      900,
		InstallmentCount: 3,
	})
	require.NoError(t, err)

	store := newMemStore()
	archiver := NewArchiver(svc, store, &Config{Prefix: "statements"})
	archiver.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return &fixture{svc: svc, store: store, archiver: archiver, inst: inst, plan: plan}
}

// installment opens a plan for userID and pays the given amounts, the first as down payment.
func (f *fixture) installment(t *testing.T, userID string, amounts ...float64) *models.InstallmentPlan {
	t.Helper()
	ctx := context.Background()
	app, err := f.svc.Applications.Create(ctx, &models.Application{
		UserID:        userID,
		InstitutionID: f.inst.ID,
		PlanID:        f.plan.ID,
		TuitionAmount: f.plan.TotalAmount,
		Status:        models.ApplicationStatusApproved,
	})
	require.NoError(t, err)
	ip, err := f.svc.Installments.Create(ctx, models.NewInstallmentPlan(app, f.plan))
	require.NoError(t, err)

	for i, amount := range amounts {
		paymentType := models.PaymentTypeMonthly
		if i == 0 {
			paymentType = models.PaymentTypeDownPayment
		}
		receipt, err := f.svc.Installments.RecordPayment(ctx, ip.ID, ip.Version, amount, paymentType)
		require.NoError(t, err)
		ip = receipt.InstallmentPlan
	}
	return ip
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "statements/u1/p1.json", (&Config{Prefix: "/statements/"}).ObjectKey("u1", "p1"))
	assert.Equal(t, "u1/p1.json", (&Config{}).ObjectKey("u1", "p1"))
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("STATEMENTS_ENABLED", "true")
	t.Setenv("S3_ACCESS_KEY_ID", "")
	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("S3_ACCESS_KEY_ID", "key")
	t.Setenv("S3_SECRET_ACCESS_KEY", "secret")
	t.Setenv("S3_BUCKET_NAME", "edupay")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "edupay", cfg.BucketName)

	t.Setenv("STATEMENTS_ENABLED", "false")
	t.Setenv("S3_BUCKET_NAME", "")
	cfg, err = LoadConfig()
	require.NoError(t, err)
	assert.False(t, cfg.Enabled)
}

func TestArchiveCompletedPlan(t *testing.T) {
	f := newFixture(t)
	ip := f.installment(t, "u1", 300, 300, 300)
	require.Equal(t, models.InstallmentStatusCompleted, ip.Status)

	key, written, err := f.archiver.Archive(context.Background(), ip.ID)
	require.NoError(t, err)
	assert.True(t, written)
	assert.Equal(t, "statements/u1/"+ip.ID+".json", key)

	var st Statement
	require.NoError(t, json.Unmarshal(f.store.objects[key], &st))
	assert.Equal(t, ip.ID, st.InstallmentPlan.ID)
	assert.Len(t, st.Payments, 3)
	assert.Equal(t, 900.0, st.TotalPaid)
	require.NotNil(t, st.Institution)
	assert.Equal(t, f.inst.ID, st.Institution.ID)
	require.NotNil(t, st.Plan)
	assert.Equal(t, f.plan.ID, st.Plan.ID)

	// A second run leaves the stored object alone.
	_, written, err = f.archiver.Archive(context.Background(), ip.ID)
	require.NoError(t, err)
	assert.False(t, written)
}

func TestArchiveRejectsOpenPlan(t *testing.T) {
	f := newFixture(t)
	ip := f.installment(t, "u1", 300)

	_, _, err := f.archiver.Archive(context.Background(), ip.ID)
	assert.ErrorIs(t, err, ErrNotCompleted)

	// The job handler treats it as done.
	job := &jobqueue.Job{ID: "j1", Payload: jobqueue.ArchiveStatementPayload{InstallmentPlanID: ip.ID}.ToMap()}
	assert.NoError(t, f.archiver.HandleJob(context.Background(), job))
	assert.Empty(t, f.store.objects)
}

func TestHandleJobPropagatesStorageErrors(t *testing.T) {
	f := newFixture(t)
	ip := f.installment(t, "u1", 900)
	f.store.failPut = errors.New("bucket offline")

	job := &jobqueue.Job{ID: "j1", Payload: jobqueue.ArchiveStatementPayload{InstallmentPlanID: ip.ID}.ToMap()}
	assert.ErrorContains(t, f.archiver.HandleJob(context.Background(), job), "bucket offline")

	assert.Error(t, f.archiver.HandleJob(context.Background(), &jobqueue.Job{ID: "j2"}))
}

func TestBackfillEnqueuesMissingStatements(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	done := f.installment(t, "u1", 900)
	archived := f.installment(t, "u2", 450, 450)
	f.installment(t, "u3", 300)

	_, _, err := f.archiver.Archive(ctx, archived.ID)
	require.NoError(t, err)

	q := &fakeQueue{}
	n, err := f.archiver.Backfill(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, q.jobs, 1)
	assert.Equal(t, done.ID, q.jobs[0]["installment_plan_id"])

	n, err = f.archiver.Backfill(ctx, q)
	require.NoError(t, err)
	assert.Zero(t, n, "duplicates are suppressed")
}

func TestOnPlanCompleted(t *testing.T) {
	q := &fakeQueue{}
	hook := OnPlanCompleted(q)
	plan := &models.InstallmentPlan{Base: models.Base{ID: "ip-9"}, UserID: "u9"}

	hook(context.Background(), plan)
	hook(context.Background(), plan)

	require.Len(t, q.jobs, 1)
	assert.Equal(t, "ip-9", q.jobs[0]["installment_plan_id"])
	assert.Equal(t, "u9", q.jobs[0]["user_id"])
}
