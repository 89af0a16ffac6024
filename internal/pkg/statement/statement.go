// Package statement archives the final statement of completed installment
// plans to object storage. Archiving runs as a background job.
package statement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/EduPay/app/models"
	"github.com/ManuelReschke/EduPay/internal/pkg/jobqueue"
	"github.com/ManuelReschke/EduPay/internal/pkg/services"
)

// ErrNotCompleted is returned when a statement is requested for a plan that still has a balance.
var ErrNotCompleted = errors.New("installment plan is not completed")

// dedupeWindow suppresses repeated archive jobs for one plan.
const dedupeWindow = time.Hour

// Statement is the archived record of a fully paid installment plan.
type Statement struct {
	InstallmentPlan models.InstallmentPlan `json:"installment_plan"`
	Institution     *models.Institution    `json:"institution,omitempty"`
	Plan            *models.PlanTemplate   `json:"plan,omitempty"`
	Payments        []models.Payment       `json:"payments"`
	TotalPaid       float64                `json:"total_paid"`
	GeneratedAt     time.Time              `json:"generated_at"`
}

// Enqueuer is the part of the job queue the archiver schedules work on.
type Enqueuer interface {
	EnqueueUnique(ctx context.Context, jobType jobqueue.JobType, key string, ttl time.Duration, payload map[string]interface{}) (*jobqueue.Job, error)
}

type Archiver struct {
	svc   *services.Services
	store ObjectStore
	cfg   *Config
	now   func() time.Time
}

func NewArchiver(svc *services.Services, store ObjectStore, cfg *Config) *Archiver {
	return &Archiver{svc: svc, store: store, cfg: cfg, now: time.Now}
}

// Build collects the plan, its catalog records and its payments.
func (a *Archiver) Build(ctx context.Context, planID string) (*Statement, error) {
	details, err := a.svc.Installments.GetWithDetails(ctx, planID)
	if err != nil {
		return nil, err
	}
	if details == nil {
		return nil, fmt.Errorf("installment plan %s not found", planID)
	}
	if details.Status != models.InstallmentStatusCompleted {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotCompleted, planID, details.Status)
	}

	payments, err := a.svc.Payments.ListByInstallment(ctx, planID)
	if err != nil {
		return nil, err
	}
	var total float64
	for _, p := range payments {
		total += p.Amount
	}

	return &Statement{
		InstallmentPlan: details.InstallmentPlan,
		Institution:     details.Institution,
		Plan:            details.Plan,
		Payments:        payments,
		TotalPaid:       models.RoundAmount(total),
		GeneratedAt:     a.now().UTC(),
	}, nil
}

// Archive writes the statement of a completed plan unless it is already stored.
// It reports whether a new object was written.
func (a *Archiver) Archive(ctx context.Context, planID string) (string, bool, error) {
	st, err := a.Build(ctx, planID)
	if err != nil {
		return "", false, err
	}
	key := a.cfg.ObjectKey(st.InstallmentPlan.UserID, st.InstallmentPlan.ID)

	exists, err := a.store.Exists(ctx, key)
	if err != nil {
		return key, false, err
	}
	if exists {
		return key, false, nil
	}

	body, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return key, false, fmt.Errorf("failed to encode statement: %w", err)
	}
	if err := a.store.Put(ctx, key, body, "application/json"); err != nil {
		return key, false, err
	}
	log.Infof("[Statement] Archived statement of installment plan %s to %s", planID, key)
	return key, true, nil
}

// HandleJob is the jobqueue handler for JobTypeArchiveStatement.
func (a *Archiver) HandleJob(ctx context.Context, job *jobqueue.Job) error {
	payload, err := jobqueue.ArchiveStatementPayloadFromMap(job.Payload)
	if err != nil {
		return err
	}
	_, _, err = a.Archive(ctx, payload.InstallmentPlanID)
	if errors.Is(err, ErrNotCompleted) {
		// Nothing to archive; a retry would not change that.
		log.Warnf("[Statement] Skipping job %s: %v", job.ID, err)
		return nil
	}
	return err
}

// Backfill enqueues archive jobs for completed plans without a stored statement.
func (a *Archiver) Backfill(ctx context.Context, q Enqueuer) (int, error) {
	plans, err := a.svc.Installments.ListByStatus(ctx, models.InstallmentStatusCompleted)
	if err != nil {
		return 0, err
	}
	enqueued := 0
	for _, p := range plans {
		exists, err := a.store.Exists(ctx, a.cfg.ObjectKey(p.UserID, p.ID))
		if err != nil {
			return enqueued, err
		}
		if exists {
			continue
		}
		job, err := Enqueue(ctx, q, &p.InstallmentPlan)
		if err != nil {
			return enqueued, err
		}
		if job != nil {
			enqueued++
		}
	}
	if enqueued > 0 {
		log.Infof("[Statement] Backfill enqueued %d statements", enqueued)
	}
	return enqueued, nil
}

// Enqueue schedules the archive job of a plan, at most once per dedupe window.
func Enqueue(ctx context.Context, q Enqueuer, plan *models.InstallmentPlan) (*jobqueue.Job, error) {
	payload := jobqueue.ArchiveStatementPayload{InstallmentPlanID: plan.ID, UserID: plan.UserID}
	return q.EnqueueUnique(ctx, jobqueue.JobTypeArchiveStatement, plan.ID, dedupeWindow, payload.ToMap())
}

// OnPlanCompleted returns a lifecycle hook that enqueues the archive job.
func OnPlanCompleted(q Enqueuer) func(ctx context.Context, plan *models.InstallmentPlan) {
	return func(ctx context.Context, plan *models.InstallmentPlan) {
		if _, err := Enqueue(ctx, q, plan); err != nil {
			log.Errorf("[Statement] Failed to enqueue statement of %s: %v", plan.ID, err)
		}
	}
}
