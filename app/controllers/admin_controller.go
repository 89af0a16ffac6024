package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/EduPay/app/models"
	"github.com/ManuelReschke/EduPay/internal/pkg/lifecycle"
)

// AdminController handles application review, catalog management and accounts
type AdminController struct {
	lc *lifecycle.Lifecycle
}

func NewAdminController(lc *lifecycle.Lifecycle) *AdminController {
	return &AdminController{lc: lc}
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type institutionRequest struct {
	lifecycle.InstitutionInput
	Version int64 `json:"version"`
}

type createUserRequest struct {
	lifecycle.SignUpInput
	Role models.Role `json:"role"`
}

// HandleListApplications lists applications, optionally filtered by ?status=
func (ac *AdminController) HandleListApplications(c *fiber.Ctx) error {
	list, err := ac.lc.ListAllApplications(c.UserContext(), callerOf(c), models.ApplicationStatus(c.Query("status")))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, list)
}

// HandleApproveApplication approves an application and opens its installment plan
func (ac *AdminController) HandleApproveApplication(c *fiber.Ctx) error {
	approval, err := ac.lc.ApproveApplication(c.UserContext(), callerOf(c), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, approval)
}

func (ac *AdminController) HandleRejectApplication(c *fiber.Ctx) error {
	var in rejectRequest
	if err := parseBody(c, &in); err != nil {
		return fail(c, err)
	}
	app, err := ac.lc.RejectApplication(c.UserContext(), callerOf(c), c.Params("id"), in.Reason)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, app)
}

// HandleListInstallments lists installment plans, optionally filtered by ?status=
func (ac *AdminController) HandleListInstallments(c *fiber.Ctx) error {
	list, err := ac.lc.ListAllInstallments(c.UserContext(), callerOf(c), models.InstallmentPlanStatus(c.Query("status")))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, list)
}

// HandleListInstitutions lists all institutions including hidden ones
func (ac *AdminController) HandleListInstitutions(c *fiber.Ctx) error {
	list, err := ac.lc.ListInstitutions(c.UserContext(), callerOf(c))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, list)
}

func (ac *AdminController) HandleCreateInstitution(c *fiber.Ctx) error {
	var in institutionRequest
	if err := parseBody(c, &in); err != nil {
		return fail(c, err)
	}
	inst, err := ac.lc.CreateInstitution(c.UserContext(), callerOf(c), in.InstitutionInput)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusCreated, inst)
}

// HandleUpdateInstitution replaces the editable fields. The expected version
// comes from If-Match or the body.
func (ac *AdminController) HandleUpdateInstitution(c *fiber.Ctx) error {
	var in institutionRequest
	if err := parseBody(c, &in); err != nil {
		return fail(c, err)
	}
	inst, err := ac.lc.UpdateInstitution(c.UserContext(), callerOf(c), c.Params("id"), in.InstitutionInput, expectedVersion(c, in.Version))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, inst)
}

func (ac *AdminController) HandleDeleteInstitution(c *fiber.Ctx) error {
	if err := ac.lc.DeleteInstitution(c.UserContext(), callerOf(c), c.Params("id")); err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, nil)
}

func (ac *AdminController) HandleToggleInstitution(c *fiber.Ctx) error {
	inst, err := ac.lc.ToggleInstitutionVisibility(c.UserContext(), callerOf(c), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, inst)
}

// HandleCreatePlan adds a plan template to the institution in the path
func (ac *AdminController) HandleCreatePlan(c *fiber.Ctx) error {
	var in lifecycle.PlanInput
	if err := parseBody(c, &in); err != nil {
		return fail(c, err)
	}
	in.InstitutionID = c.Params("id")
	plan, err := ac.lc.CreatePlan(c.UserContext(), callerOf(c), in)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusCreated, plan)
}

func (ac *AdminController) HandleCreateUser(c *fiber.Ctx) error {
	var in createUserRequest
	if err := parseBody(c, &in); err != nil {
		return fail(c, err)
	}
	if in.Role == "" {
		in.Role = models.RoleCustomer
	}
	user, err := ac.lc.CreateUser(c.UserContext(), callerOf(c), in.SignUpInput, in.Role)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusCreated, user)
}
