// Package lifecycle orchestrates applications, checkout and payments on top of
// the ledger services. Every operation takes the acting Caller explicitly.
package lifecycle

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/EduPay/app/models"
	"github.com/ManuelReschke/EduPay/internal/pkg/lock"
	"github.com/ManuelReschke/EduPay/internal/pkg/metrics"
	"github.com/ManuelReschke/EduPay/internal/pkg/services"
)

// DefaultMaxAttempts bounds the re-read and retry loop after a version conflict.
const DefaultMaxAttempts = 3

var validate = validator.New()

// Caller identifies who performs an operation. The zero value is anonymous.
type Caller struct {
	UserID string
	Role   models.Role
}

func (c Caller) SignedIn() bool {
	return c.UserID != ""
}

func (c Caller) IsAdmin() bool {
	return c.SignedIn() && c.Role == models.RoleAdmin
}

// Cache stores JSON values for the public catalog.
type Cache interface {
	GetJSON(ctx context.Context, key string, out interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

// Hooks are called after successful state changes. They must not block.
type Hooks struct {
	// PlanCompleted runs once a payment brings the remaining balance to zero.
	PlanCompleted func(ctx context.Context, plan *models.InstallmentPlan)
}

type Options struct {
	// Locker serializes installment plan creation per application. Defaults to an in-process locker.
	Locker lock.Locker
	// Cache backs the public catalog. Nil disables caching.
	Cache   Cache
	Hooks   Hooks
	Policy  PaymentPolicy
	Metrics *metrics.Metrics
	// MaxAttempts bounds retries after a version conflict. Defaults to DefaultMaxAttempts.
	MaxAttempts int
}

// Lifecycle exposes the orchestration entry points.
type Lifecycle struct {
	svc         *services.Services
	locker      lock.Locker
	cache       Cache
	hooks       Hooks
	policy      PaymentPolicy
	metrics     *metrics.Metrics
	maxAttempts int
}

func New(svc *services.Services, opts Options) *Lifecycle {
	if opts.Locker == nil {
		opts.Locker = lock.NewMemoryLocker(lock.DefaultWait)
	}
	if opts.Policy == "" {
		opts.Policy = PolicyFlat
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	return &Lifecycle{
		svc:         svc,
		locker:      opts.Locker,
		cache:       opts.Cache,
		hooks:       opts.Hooks,
		policy:      opts.Policy,
		metrics:     opts.Metrics,
		maxAttempts: opts.MaxAttempts,
	}
}

// Policy returns the configured suggested payment policy.
func (l *Lifecycle) Policy() PaymentPolicy {
	return l.policy
}

// observe turns *errp into a lifecycle error and counts the outcome.
// Use it deferred with a named error result.
func (l *Lifecycle) observe(action string, errp *error) {
	if *errp == nil {
		l.metrics.Action(action, "ok")
		return
	}
	le := classify(*errp)
	if le.Kind == KindInternal || le.Kind == KindUnavailable {
		log.Errorf("[Lifecycle] %s failed: %v", action, *errp)
	}
	l.metrics.Action(action, string(le.Kind))
	*errp = le
}

func requireSignedIn(c Caller, message string) error {
	if !c.SignedIn() {
		return newError(KindUnauthenticated, message)
	}
	return nil
}

func requireAdmin(c Caller) error {
	if !c.SignedIn() {
		return newError(KindUnauthenticated, "You must be signed in")
	}
	if !c.IsAdmin() {
		return newError(KindForbidden, "Unauthorized")
	}
	return nil
}

func (l *Lifecycle) planCompleted(ctx context.Context, plan *models.InstallmentPlan) {
	if plan.Status != models.InstallmentStatusCompleted || l.hooks.PlanCompleted == nil {
		return
	}
	hookCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	l.hooks.PlanCompleted(hookCtx, plan)
}
