package lifecycle

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/EduPay/app/models"
	"github.com/ManuelReschke/EduPay/internal/pkg/services"
)

const keyVisibleInstitutions = "institutions:visible"

var (
	catalogTypes   = []models.InstitutionType{"", models.InstitutionTypeSchool, models.InstitutionTypeUniversity}
	catalogGenders = []models.InstitutionGender{"", models.InstitutionGenderMale, models.InstitutionGenderFemale, models.InstitutionGenderMixed}
)

// visibleInstitutionsKey names the cached catalog for one filter combination.
func visibleInstitutionsKey(f CatalogFilter) string {
	if f.Type == "" && f.Gender == "" {
		return keyVisibleInstitutions
	}
	return fmt.Sprintf("%s:type=%s:gender=%s", keyVisibleInstitutions, f.Type, f.Gender)
}

func institutionKey(id string) string      { return "institution:" + id }
func institutionPlansKey(id string) string { return "institution-plans:" + id }

// InstitutionInput carries the editable fields of an institution.
type InstitutionInput struct {
	Name      models.LocalizedString   `json:"name"`
	Location  models.LocalizedString   `json:"location"`
	Type      models.InstitutionType   `json:"type" validate:"oneof=school university"`
	Gender    models.InstitutionGender `json:"gender" validate:"omitempty,oneof=male female mixed"`
	IsVisible bool                     `json:"is_visible"`
}

// CatalogFilter narrows the public catalog by institution type and gender.
type CatalogFilter struct {
	Type   models.InstitutionType   `validate:"omitempty,oneof=school university"`
	Gender models.InstitutionGender `validate:"omitempty,oneof=male female mixed"`
}

// PlanInput carries the fields of a new plan template.
type PlanInput struct {
	InstitutionID    string                 `json:"institutionId" validate:"required"`
	Name             models.LocalizedString `json:"name"`
	TotalAmount      float64                `json:"total_amount" validate:"gt=0"`
	InstallmentCount int                    `json:"installment_count" validate:"gte=1"`
}

func invalid(what string, err error) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf("Invalid %s: %v", what, err), Err: err}
}

// ToggleInstitutionVisibility flips is_visible of an institution.
func (l *Lifecycle) ToggleInstitutionVisibility(ctx context.Context, caller Caller, institutionID string) (_ *models.Institution, err error) {
	defer l.observe("toggle_institution_visibility", &err)

	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	current, err := l.getInstitution(ctx, institutionID)
	if err != nil {
		return nil, err
	}

	inst, err := l.svc.Institutions.Update(ctx, current.ID, services.Changes{
		"is_visible": !current.IsVisible,
	}, current.Version)
	if err != nil {
		return nil, err
	}
	l.invalidate(ctx, inst.ID)
	return inst, nil
}

func (l *Lifecycle) CreateInstitution(ctx context.Context, caller Caller, in InstitutionInput) (_ *models.Institution, err error) {
	defer l.observe("create_institution", &err)

	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, invalid("institution", err)
	}

	inst, err := l.svc.Institutions.Create(ctx, &models.Institution{
		Name:      in.Name,
		Location:  in.Location,
		Type:      in.Type,
		Gender:    in.Gender,
		IsVisible: in.IsVisible,
	})
	if err != nil {
		return nil, err
	}
	l.invalidate(ctx, inst.ID)
	return inst, nil
}

// UpdateInstitution replaces the editable fields. A non-zero version rejects
// the write when the institution changed in the meantime.
func (l *Lifecycle) UpdateInstitution(ctx context.Context, caller Caller, institutionID string, in InstitutionInput, version int64) (_ *models.Institution, err error) {
	defer l.observe("update_institution", &err)

	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, invalid("institution", err)
	}
	current, err := l.getInstitution(ctx, institutionID)
	if err != nil {
		return nil, err
	}
	if version == 0 {
		version = current.Version
	}
	if in.Gender == "" {
		in.Gender = current.Gender
	}

	inst, err := l.svc.Institutions.Update(ctx, current.ID, services.Changes{
		"name":       in.Name,
		"location":   in.Location,
		"type":       in.Type,
		"gender":     in.Gender,
		"is_visible": in.IsVisible,
	}, version)
	if err != nil {
		return nil, err
	}
	l.invalidate(ctx, inst.ID)
	return inst, nil
}

// DeleteInstitution removes an institution that has no installment plans.
func (l *Lifecycle) DeleteInstitution(ctx context.Context, caller Caller, institutionID string) (err error) {
	defer l.observe("delete_institution", &err)

	if err := requireAdmin(caller); err != nil {
		return err
	}
	current, err := l.getInstitution(ctx, institutionID)
	if err != nil {
		return err
	}
	plans, err := l.svc.Installments.ListByInstitution(ctx, current.ID)
	if err != nil {
		return err
	}
	if len(plans) > 0 {
		return newError(KindConflict, "Institution has installment plans and cannot be deleted")
	}

	if err := l.svc.Institutions.Delete(ctx, current.ID); err != nil {
		return err
	}
	l.invalidate(ctx, current.ID)
	log.Infof("[Lifecycle] Institution %s deleted", current.ID)
	return nil
}

func (l *Lifecycle) CreatePlan(ctx context.Context, caller Caller, in PlanInput) (_ *models.PlanTemplate, err error) {
	defer l.observe("create_plan", &err)

	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, invalid("plan", err)
	}
	if _, err := l.getInstitution(ctx, in.InstitutionID); err != nil {
		return nil, err
	}

	plan, err := l.svc.Plans.Create(ctx, &models.PlanTemplate{
		InstitutionID:    in.InstitutionID,
		Name:             in.Name,
		TotalAmount:      models.RoundAmount(in.TotalAmount),
		InstallmentCount: in.InstallmentCount,
	})
	if err != nil {
		return nil, err
	}
	l.invalidate(ctx, in.InstitutionID)
	return plan, nil
}

// ListInstitutions returns every institution, hidden ones included.
func (l *Lifecycle) ListInstitutions(ctx context.Context, caller Caller) (_ []models.Institution, err error) {
	defer l.observe("list_institutions", &err)

	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return l.svc.Institutions.List(ctx)
}

// ListVisibleInstitutions returns the public catalog, cached per filter.
func (l *Lifecycle) ListVisibleInstitutions(ctx context.Context, filter CatalogFilter) (_ []models.Institution, err error) {
	defer l.observe("list_visible_institutions", &err)

	if err := validate.Struct(filter); err != nil {
		return nil, invalid("filter", err)
	}
	return cached(ctx, l.cache, visibleInstitutionsKey(filter), func() ([]models.Institution, error) {
		return l.svc.Institutions.ListVisible(ctx, services.InstitutionFilter{Type: filter.Type, Gender: filter.Gender})
	})
}

// GetInstitution returns an institution. Hidden institutions are only found by admins.
func (l *Lifecycle) GetInstitution(ctx context.Context, caller Caller, institutionID string) (_ *models.Institution, err error) {
	defer l.observe("get_institution", &err)

	if caller.IsAdmin() {
		return l.getInstitution(ctx, institutionID)
	}
	return l.visibleInstitution(ctx, institutionID)
}

// ListInstitutionPlans returns the plans of an institution the caller may see.
func (l *Lifecycle) ListInstitutionPlans(ctx context.Context, caller Caller, institutionID string) (_ []models.PlanTemplate, err error) {
	defer l.observe("list_institution_plans", &err)

	if !caller.IsAdmin() {
		if _, err := l.visibleInstitution(ctx, institutionID); err != nil {
			return nil, err
		}
	}
	return cached(ctx, l.cache, institutionPlansKey(institutionID), func() ([]models.PlanTemplate, error) {
		return l.svc.Plans.ListByInstitution(ctx, institutionID)
	})
}

func (l *Lifecycle) getInstitution(ctx context.Context, id string) (*models.Institution, error) {
	inst, err := l.svc.Institutions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, newError(KindNotFound, "Institution not found")
	}
	return inst, nil
}

func (l *Lifecycle) visibleInstitution(ctx context.Context, id string) (*models.Institution, error) {
	inst, err := cached(ctx, l.cache, institutionKey(id), func() (*models.Institution, error) {
		return l.getInstitution(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	if !inst.IsVisible {
		return nil, newError(KindNotFound, "Institution not found")
	}
	return inst, nil
}

// invalidate drops the catalog entries touched by a change of the institution.
func (l *Lifecycle) invalidate(ctx context.Context, institutionID string) {
	if l.cache == nil {
		return
	}
	keys := []string{institutionKey(institutionID), institutionPlansKey(institutionID)}
	for _, typ := range catalogTypes {
		for _, gender := range catalogGenders {
			keys = append(keys, visibleInstitutionsKey(CatalogFilter{Type: typ, Gender: gender}))
		}
	}
	if err := l.cache.Delete(context.WithoutCancel(ctx), keys...); err != nil {
		log.Warnf("[Lifecycle] Failed to invalidate catalog cache for %s: %v", institutionID, err)
	}
}

// cached serves key from c, loading and storing it on a miss. Cache failures
// only cost a round trip to the ledger.
func cached[T any](ctx context.Context, c Cache, key string, load func() (T, error)) (T, error) {
	if c == nil {
		return load()
	}

	var out T
	hit, err := c.GetJSON(ctx, key, &out)
	if err != nil {
		log.Warnf("[Lifecycle] Cache read %s failed: %v", key, err)
	}
	if hit {
		return out, nil
	}

	out, err = load()
	if err != nil {
		return out, err
	}
	if err := c.SetJSON(ctx, key, out); err != nil {
		log.Warnf("[Lifecycle] Cache write %s failed: %v", key, err)
	}
	return out, nil
}
