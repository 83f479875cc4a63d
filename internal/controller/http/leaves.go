package http

import (
	"time"

	"github.com/Freeeeeet/contract_scheduler/internal/service"
	"github.com/gofiber/fiber/v2"
)

// POST /api/leave
func (s *Server) createLeave(c *fiber.Ctx) error {
	var req leaveRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}

	leave, err := s.svc.Leaves.Create(c.UserContext(), service.LeaveInput{
		TeacherID:     req.TeacherID,
		Type:          req.Type,
		StartDate:     req.StartDate.Time,
		EndDate:       req.EndDate.Time,
		AttachmentRef: req.AttachmentRef,
	})
	if err != nil {
		return err
	}
	return success(c, fiber.StatusCreated, "leave created", newLeaveResponse(leave))
}

// GET /api/leave/:id
func (s *Server) getLeave(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	leave, err := s.svc.Leaves.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, "leave", newLeaveResponse(leave))
}

// POST /api/leave/:id/approve
func (s *Server) approveLeave(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	leave, err := s.svc.Leaves.Approve(c.UserContext(), id)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, "leave approved", newLeaveResponse(leave))
}

// POST /api/leave/:id/decline
func (s *Server) declineLeave(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	leave, err := s.svc.Leaves.Decline(c.UserContext(), id)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, "leave declined", newLeaveResponse(leave))
}

// GET /api/leaves/intersecting?start=&end=
func (s *Server) intersectingLeaves(c *fiber.Ctx) error {
	start, err := queryDate(c, "start", time.Time{})
	if err != nil {
		return err
	}
	end, err := queryDate(c, "end", time.Time{})
	if err != nil {
		return err
	}

	groups, err := s.svc.Leaves.Intersecting(c.UserContext(), start, end)
	if err != nil {
		return err
	}

	resp := make([]teacherLeavesResponse, 0, len(groups))
	for _, g := range groups {
		item := teacherLeavesResponse{TeacherID: g.TeacherID, Leaves: make([]leaveResponse, 0, len(g.Leaves))}
		for _, l := range g.Leaves {
			item.Leaves = append(item.Leaves, newLeaveResponse(l))
		}
		resp = append(resp, item)
	}
	return success(c, fiber.StatusOK, "leaves", resp)
}
