package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/EduPay/app/models"
)

type gormStore[T any, PT entity[T]] struct {
	db    *gorm.DB
	table table
}

func newGormStore[T any, PT entity[T]](db *gorm.DB, t table) *gormStore[T, PT] {
	return &gormStore[T, PT]{db: db, table: t}
}

func (s *gormStore[T, PT]) List(ctx context.Context, filter Filter) ([]T, error) {
	q := s.db.WithContext(ctx).Model(new(T))
	for k, v := range filter {
		_, column, err := s.table.column(k)
		if err != nil {
			return nil, err
		}
		value, err := s.table.value(column, v)
		if err != nil {
			return nil, err
		}
		q = q.Where(clause.Eq{Column: clause.Column{Name: column}, Value: value})
	}

	rows := make([]T, 0)
	if err := q.Order("created_at ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *gormStore[T, PT]) Get(ctx context.Context, id string) (*T, error) {
	return s.get(s.db.WithContext(ctx), id)
}

func (s *gormStore[T, PT]) get(tx *gorm.DB, id string) (*T, error) {
	var rec T
	if err := tx.Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

func (s *gormStore[T, PT]) Create(ctx context.Context, rec *T) error {
	return s.create(s.db.WithContext(ctx), rec)
}

func (s *gormStore[T, PT]) create(tx *gorm.DB, rec *T) error {
	p := PT(rec)
	if d, ok := any(p).(defaulter); ok {
		d.ApplyDefaults()
	}
	if p.GetID() == "" {
		p.SetID(uuid.NewString())
	}
	p.SetVersion(1)
	p.Touch(time.Now())
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return translate(tx.Create(rec).Error)
}

func (s *gormStore[T, PT]) Update(ctx context.Context, rec *T, expectedVersion int64) error {
	return s.update(s.db.WithContext(ctx), rec, expectedVersion)
}

// update writes all columns with a compare-and-swap on the version column.
func (s *gormStore[T, PT]) update(tx *gorm.DB, rec *T, expectedVersion int64) error {
	p := PT(rec)
	current, err := s.get(tx, p.GetID())
	if err != nil {
		return err
	}
	cur := PT(current)
	if expectedVersion > 0 && cur.GetVersion() != expectedVersion {
		return fmt.Errorf("%w: %s %s is at version %d, expected %d",
			ErrVersionMismatch, s.table.name, p.GetID(), cur.GetVersion(), expectedVersion)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	p.SetVersion(cur.GetVersion() + 1)
	p.SetCreatedAt(cur.GetCreatedAt())
	p.Touch(time.Now())
	res := tx.Model(rec).
		Where("version = ?", cur.GetVersion()).
		Select("*").
		Omit("id", "created_at").
		Updates(rec)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s %s changed while updating", ErrVersionMismatch, s.table.name, p.GetID())
	}
	return nil
}

func (s *gormStore[T, PT]) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

type gormInstallmentPlanStore struct {
	*gormStore[models.InstallmentPlan, *models.InstallmentPlan]
	payments *gormStore[models.Payment, *models.Payment]
}

// RecordPayment locks the plan row and writes the balance change and the
// payment in one transaction.
func (s *gormInstallmentPlanStore) RecordPayment(ctx context.Context, planID string, expectedVersion int64, payment *models.Payment) (*models.InstallmentPlan, error) {
	var plan *models.InstallmentPlan
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.get(tx.Clauses(clause.Locking{Strength: "UPDATE"}), planID)
		if err != nil {
			return err
		}
		if expectedVersion > 0 && locked.Version != expectedVersion {
			return fmt.Errorf("%w: installment plan %s is at version %d, expected %d",
				ErrVersionMismatch, planID, locked.Version, expectedVersion)
		}
		if err := applyPayment(locked, payment); err != nil {
			return err
		}
		if err := s.payments.create(tx, payment); err != nil {
			return err
		}
		if err := s.update(tx, locked, locked.Version); err != nil {
			return err
		}
		plan = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	payments := newGormStore[models.Payment](db, paymentsTable)

	return &Repositories{
		User:        newGormStore[models.User](db, usersTable),
		Institution: newGormStore[models.Institution](db, institutionsTable),
		Plan:        newGormStore[models.PlanTemplate](db, plansTable),
		Application: newGormStore[models.Application](db, applicationsTable),
		InstallmentPlan: &gormInstallmentPlanStore{
			gormStore: newGormStore[models.InstallmentPlan](db, installmentPlansTable),
			payments:  payments,
		},
		Payment: payments,
	}
}
