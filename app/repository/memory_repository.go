package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ManuelReschke/EduPay/app/models"
)

// memoryDB is the lock shared by all in-memory tables so multi-table
// operations observe a consistent state.
type memoryDB struct {
	mu  sync.RWMutex
	now func() time.Time
}

type memoryStore[T any, PT entity[T]] struct {
	db    *memoryDB
	table table
	rows  map[string]T
	order []string
}

func newMemoryStore[T any, PT entity[T]](db *memoryDB, t table) *memoryStore[T, PT] {
	return &memoryStore[T, PT]{db: db, table: t, rows: make(map[string]T)}
}

func (s *memoryStore[T, PT]) List(ctx context.Context, filter Filter) ([]T, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	type cond struct{ key, value string }
	conds := make([]cond, 0, len(filter))
	for k, v := range filter {
		jsonKey, column, err := s.table.column(k)
		if err != nil {
			return nil, err
		}
		if _, err := s.table.value(column, v); err != nil {
			return nil, err
		}
		conds = append(conds, cond{key: jsonKey, value: v})
	}

	out := make([]T, 0)
	for _, id := range s.order {
		row := s.rows[id]
		fields, err := fieldsOf(PT(&row))
		if err != nil {
			return nil, err
		}
		match := true
		for _, c := range conds {
			if !fieldEquals(fields[c.key], c.value) {
				match = false
				break
			}
		}
		if match {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *memoryStore[T, PT]) Get(ctx context.Context, id string) (*T, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return s.getLocked(id)
}

func (s *memoryStore[T, PT]) getLocked(id string) (*T, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &row, nil
}

func (s *memoryStore[T, PT]) Create(ctx context.Context, rec *T) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.createLocked(rec)
}

func (s *memoryStore[T, PT]) createLocked(rec *T) error {
	p := PT(rec)
	if d, ok := any(p).(defaulter); ok {
		d.ApplyDefaults()
	}
	if p.GetID() == "" {
		p.SetID(uuid.NewString())
	}
	if _, exists := s.rows[p.GetID()]; exists {
		return fmt.Errorf("%w: %s %s", ErrDuplicate, s.table.name, p.GetID())
	}
	p.SetVersion(1)
	p.Touch(s.db.now())
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := s.checkUnique(p); err != nil {
		return err
	}
	s.rows[p.GetID()] = *rec
	s.order = append(s.order, p.GetID())
	return nil
}

func (s *memoryStore[T, PT]) Update(ctx context.Context, rec *T, expectedVersion int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.updateLocked(rec, expectedVersion)
}

func (s *memoryStore[T, PT]) updateLocked(rec *T, expectedVersion int64) error {
	p := PT(rec)
	current, ok := s.rows[p.GetID()]
	if !ok {
		return ErrNotFound
	}
	cur := PT(&current)
	if expectedVersion > 0 && cur.GetVersion() != expectedVersion {
		return fmt.Errorf("%w: %s %s is at version %d, expected %d",
			ErrVersionMismatch, s.table.name, p.GetID(), cur.GetVersion(), expectedVersion)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := s.checkUnique(p); err != nil {
		return err
	}
	p.SetVersion(cur.GetVersion() + 1)
	p.SetCreatedAt(cur.GetCreatedAt())
	p.Touch(s.db.now())
	s.rows[p.GetID()] = *rec
	return nil
}

func (s *memoryStore[T, PT]) Delete(ctx context.Context, id string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.deleteLocked(id)
}

func (s *memoryStore[T, PT]) deleteLocked(id string) error {
	if _, ok := s.rows[id]; !ok {
		return ErrNotFound
	}
	delete(s.rows, id)
	for i, rid := range s.order {
		if rid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// checkUnique emulates the unique indexes of the SQL schema.
func (s *memoryStore[T, PT]) checkUnique(p PT) error {
	if len(s.table.unique) == 0 {
		return nil
	}
	fields, err := fieldsOf(p)
	if err != nil {
		return err
	}
	for id, row := range s.rows {
		if id == p.GetID() {
			continue
		}
		other, err := fieldsOf(PT(&row))
		if err != nil {
			return err
		}
		for _, key := range s.table.unique {
			if fmt.Sprint(fields[key]) == fmt.Sprint(other[key]) {
				return fmt.Errorf("%w: %s.%s already exists", ErrDuplicate, s.table.name, key)
			}
		}
	}
	return nil
}

// fieldsOf returns the json representation of a record keyed by field name.
func fieldsOf(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func fieldEquals(field interface{}, value string) bool {
	if field == nil {
		return value == "" || value == "null"
	}
	return fmt.Sprint(field) == value
}

// memoryInstallmentPlanStore shares the lock with the payment table so
// RecordPayment is atomic.
type memoryInstallmentPlanStore struct {
	*memoryStore[models.InstallmentPlan, *models.InstallmentPlan]
	payments *memoryStore[models.Payment, *models.Payment]
}

func (s *memoryInstallmentPlanStore) RecordPayment(ctx context.Context, planID string, expectedVersion int64, payment *models.Payment) (*models.InstallmentPlan, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	plan, err := s.getLocked(planID)
	if err != nil {
		return nil, err
	}
	if expectedVersion > 0 && plan.Version != expectedVersion {
		return nil, fmt.Errorf("%w: installment plan %s is at version %d, expected %d",
			ErrVersionMismatch, planID, plan.Version, expectedVersion)
	}
	if err := applyPayment(plan, payment); err != nil {
		return nil, err
	}
	if err := s.payments.createLocked(payment); err != nil {
		return nil, err
	}
	if err := s.updateLocked(plan, plan.Version); err != nil {
		// plan is a copy, so only the payment row needs undoing.
		_ = s.payments.deleteLocked(payment.ID)
		return nil, err
	}
	return plan, nil
}

// NewMemoryRepositories creates repositories that keep all records in process memory.
func NewMemoryRepositories() *Repositories {
	db := &memoryDB{now: time.Now}
	payments := newMemoryStore[models.Payment](db, paymentsTable)

	return &Repositories{
		User:        newMemoryStore[models.User](db, usersTable),
		Institution: newMemoryStore[models.Institution](db, institutionsTable),
		Plan:        newMemoryStore[models.PlanTemplate](db, plansTable),
		Application: newMemoryStore[models.Application](db, applicationsTable),
		InstallmentPlan: &memoryInstallmentPlanStore{
			memoryStore: newMemoryStore[models.InstallmentPlan](db, installmentPlansTable),
			payments:    payments,
		},
		Payment: payments,
	}
}
