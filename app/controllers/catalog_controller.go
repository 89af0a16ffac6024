package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/EduPay/app/models"
	"github.com/ManuelReschke/EduPay/internal/pkg/lifecycle"
)

// CatalogController serves the public institution catalog
type CatalogController struct {
	lc *lifecycle.Lifecycle
}

func NewCatalogController(lc *lifecycle.Lifecycle) *CatalogController {
	return &CatalogController{lc: lc}
}

func (cc *CatalogController) HandleListInstitutions(c *fiber.Ctx) error {
	list, err := cc.lc.ListVisibleInstitutions(c.UserContext(), lifecycle.CatalogFilter{
		Type:   models.InstitutionType(c.Query("type")),
		Gender: models.InstitutionGender(c.Query("gender")),
	})
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, list)
}

func (cc *CatalogController) HandleGetInstitution(c *fiber.Ctx) error {
	inst, err := cc.lc.GetInstitution(c.UserContext(), callerOf(c), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, inst)
}

func (cc *CatalogController) HandleListPlans(c *fiber.Ctx) error {
	plans, err := cc.lc.ListInstitutionPlans(c.UserContext(), callerOf(c), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, plans)
}
