package http

import (
	"github.com/Freeeeeet/contract_scheduler/internal/model"
	"github.com/gofiber/fiber/v2"
)

// POST /api/contract
func (s *Server) createContract(c *fiber.Ctx) error {
	var req contractRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}

	contract, err := s.svc.Contracts.Create(c.UserContext(), req.toInput())
	if err != nil {
		return err
	}
	return success(c, fiber.StatusCreated, "contract created", newContractResponse(contract))
}

// GET /api/contract/:id
func (s *Server) getContract(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	contract, err := s.svc.Contracts.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, "contract", newContractResponse(contract))
}

// POST /api/contract/:id
func (s *Server) updateContract(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req contractPatchRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}

	contract, err := s.svc.Contracts.Update(c.UserContext(), id, req.toPatch())
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, "contract updated", newContractResponse(contract))
}

// POST /api/contract/:id/end
func (s *Server) endContract(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req endContractRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	if req.EndDate.IsZero() {
		return model.NewValidationError("end_date", "is required")
	}

	contract, err := s.svc.Contracts.End(c.UserContext(), id, req.EndDate.Time)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, "contract ended", newContractResponse(contract))
}

// POST /api/contract/:id/accept
func (s *Server) acceptContract(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	contract, err := s.svc.Contracts.Accept(c.UserContext(), id)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, "contract accepted", newContractResponse(contract))
}

// POST /api/contract/:id/decline
func (s *Server) declineContract(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	contract, err := s.svc.Contracts.Decline(c.UserContext(), id)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, "contract declined", newContractResponse(contract))
}

// DELETE /api/contract/:id?detach=true
func (s *Server) deleteContract(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	detach := c.QueryBool("detach", false)

	if err := s.svc.Contracts.Delete(c.UserContext(), id, detach); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// POST /api/contract/:id/substitution/plan
func (s *Server) planSubstitution(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req windowRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}

	plan, err := s.svc.Substitutions.Plan(c.UserContext(), id, req.toRange())
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, "substitution plan", newSubstitutionPlanResponse(plan))
}

// POST /api/contract/:id/substitution
func (s *Server) createSubstitution(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req substitutionRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}

	child, err := s.svc.Substitutions.Create(c.UserContext(), id, req.toRange(), req.toChoice())
	if err != nil {
		return err
	}
	return success(c, fiber.StatusCreated, "substitution created", newContractResponse(child))
}
