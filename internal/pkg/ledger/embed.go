package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/EduPay/app/models"
	"github.com/ManuelReschke/EduPay/app/repository"
)

const (
	relInstitution = "institution"
	relPlan        = "plan"
)

// relations returns the relations requested through _embed or _expand.
func relations(c *fiber.Ctx) ([]string, error) {
	var rels []string
	args := c.Context().QueryArgs()
	for _, key := range []string{"_embed", "_expand"} {
		for _, v := range args.PeekMulti(key) {
			rel := string(v)
			if rel != relInstitution && rel != relPlan {
				return nil, fmt.Errorf("%w: unknown relation %q", errBadRequest, rel)
			}
			rels = append(rels, rel)
		}
	}
	return rels, nil
}

func wants(rels []string, rel string) bool {
	for _, r := range rels {
		if r == rel {
			return true
		}
	}
	return false
}

// relationCache memoizes parent lookups for the duration of one request.
type relationCache struct {
	repos        *repository.Repositories
	institutions map[string]*models.Institution
	plans        map[string]*models.PlanTemplate
}

func newRelationCache(repos *repository.Repositories) *relationCache {
	return &relationCache{
		repos:        repos,
		institutions: make(map[string]*models.Institution),
		plans:        make(map[string]*models.PlanTemplate),
	}
}

func (rc *relationCache) institution(ctx context.Context, id string) (*models.Institution, error) {
	if inst, ok := rc.institutions[id]; ok {
		return inst, nil
	}
	inst, err := rc.repos.Institution.Get(ctx, id)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	rc.institutions[id] = inst
	return inst, nil
}

func (rc *relationCache) plan(ctx context.Context, id string) (*models.PlanTemplate, error) {
	if plan, ok := rc.plans[id]; ok {
		return plan, nil
	}
	plan, err := rc.repos.Plan.Get(ctx, id)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	rc.plans[id] = plan
	return plan, nil
}

// parents loads the institution and plan of a record when requested.
func (rc *relationCache) parents(ctx context.Context, institutionID, planID string, rels []string) (*models.Institution, *models.PlanTemplate, error) {
	var (
		inst *models.Institution
		plan *models.PlanTemplate
		err  error
	)
	if wants(rels, relInstitution) {
		if inst, err = rc.institution(ctx, institutionID); err != nil {
			return nil, nil, err
		}
	}
	if wants(rels, relPlan) {
		if plan, err = rc.plan(ctx, planID); err != nil {
			return nil, nil, err
		}
	}
	return inst, plan, nil
}

func embedApplication(ctx context.Context, rc *relationCache, row models.Application, rels []string) (interface{}, error) {
	inst, plan, err := rc.parents(ctx, row.InstitutionID, row.PlanID, rels)
	if err != nil {
		return nil, err
	}
	return models.ApplicationDetails{Application: row, Institution: inst, Plan: plan}, nil
}

func embedInstallmentPlan(ctx context.Context, rc *relationCache, row models.InstallmentPlan, rels []string) (interface{}, error) {
	inst, plan, err := rc.parents(ctx, row.InstitutionID, row.PlanID, rels)
	if err != nil {
		return nil, err
	}
	return models.InstallmentPlanDetails{InstallmentPlan: row, Institution: inst, Plan: plan}, nil
}

func embedPlanTemplate(ctx context.Context, rc *relationCache, row models.PlanTemplate, rels []string) (interface{}, error) {
	type planWithInstitution struct {
		models.PlanTemplate
		Institution *models.Institution `json:"institution,omitempty"`
	}
	out := planWithInstitution{PlanTemplate: row}
	if wants(rels, relInstitution) {
		inst, err := rc.institution(ctx, row.InstitutionID)
		if err != nil {
			return nil, err
		}
		out.Institution = inst
	}
	return out, nil
}
