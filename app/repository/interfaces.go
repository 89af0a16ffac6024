package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ManuelReschke/EduPay/app/models"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicate       = errors.New("duplicate record")
	ErrVersionMismatch = errors.New("record was modified concurrently")
	ErrInvalid         = errors.New("invalid record")
	ErrInvalidFilter   = errors.New("invalid filter")
)

// Filter restricts a listing to records whose field equals the given value.
// Keys are json field names (userId) or their column names (user_id).
type Filter map[string]string

// Entity is implemented by every model embedding models.Base.
type Entity interface {
	GetID() string
	SetID(id string)
	GetVersion() int64
	SetVersion(v int64)
	GetCreatedAt() time.Time
	SetCreatedAt(t time.Time)
	Touch(now time.Time)
	Validate() error
}

// entity binds a model type to its pointer receiver methods.
type entity[T any] interface {
	*T
	Entity
}

// defaulter is implemented by models that fill in default values before insert.
type defaulter interface {
	ApplyDefaults()
}

// Store defines the CRUD operations every ledger table supports.
// Update takes the version the caller read; 0 skips the check.
type Store[T any] interface {
	List(ctx context.Context, filter Filter) ([]T, error)
	Get(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, rec *T) error
	Update(ctx context.Context, rec *T, expectedVersion int64) error
	Delete(ctx context.Context, id string) error
}

type UserRepository = Store[models.User]
type InstitutionRepository = Store[models.Institution]
type PlanRepository = Store[models.PlanTemplate]
type ApplicationRepository = Store[models.Application]
type PaymentRepository = Store[models.Payment]

// InstallmentPlanRepository adds the atomic payment operation to the plan store.
type InstallmentPlanRepository interface {
	Store[models.InstallmentPlan]
	// RecordPayment applies payment to the plan and appends it to the ledger in
	// one step. The plan must still carry expectedVersion when it is non-zero.
	RecordPayment(ctx context.Context, planID string, expectedVersion int64, payment *models.Payment) (*models.InstallmentPlan, error)
}

// Repositories contains all repository instances
type Repositories struct {
	User            UserRepository
	Institution     InstitutionRepository
	Plan            PlanRepository
	Application     ApplicationRepository
	InstallmentPlan InstallmentPlanRepository
	Payment         PaymentRepository
}
