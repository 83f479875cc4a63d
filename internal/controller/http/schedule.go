package http

import (
	"github.com/Freeeeeet/contract_scheduler/internal/clock"
	"github.com/Freeeeeet/contract_scheduler/internal/model"
	"github.com/Freeeeeet/contract_scheduler/internal/render"
	"github.com/Freeeeeet/contract_scheduler/internal/service"
	"github.com/gofiber/fiber/v2"
)

// GET /api/suggest?customer_ids=&subject_id=&interval_weeks=&start_date=&end_date=&exclude_contract_ids=
func (s *Server) suggest(c *fiber.Ctx) error {
	customers, err := queryIDs(c, "customer_ids")
	if err != nil {
		return err
	}
	exclude, err := queryIDs(c, "exclude_contract_ids")
	if err != nil {
		return err
	}
	start, err := queryDate(c, "start_date", clock.Today(s.svc.Clock))
	if err != nil {
		return err
	}

	req := service.SuggestionRequest{
		CustomerIDs:        customers,
		SubjectID:          int64(c.QueryInt("subject_id")),
		IntervalWeeks:      c.QueryInt("interval_weeks", 1),
		StartDate:          start,
		ExcludeContractIDs: exclude,
	}
	if c.Query("end_date") != "" {
		end, err := ParseDate(c.Query("end_date"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		req.EndDate = &end.Time
	}

	suggestions, err := s.svc.Suggestions.Suggest(c.UserContext(), req)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, "suggestions", suggestions)
}

// GET /api/week?of=YYYY-MM-DD
func (s *Server) week(c *fiber.Ctx) error {
	of, err := queryDate(c, "of", clock.Today(s.svc.Clock))
	if err != nil {
		return err
	}

	view, err := s.svc.Lessons.Week(c.UserContext(), of)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, "week", newWeekResponse(view))
}

// GET /api/week.png?of=&teacher_id=
func (s *Server) weekImage(c *fiber.Ctx) error {
	view, subjects, err := s.weekExport(c)
	if err != nil {
		return err
	}

	data, err := render.WeekImage{View: view, Subjects: subjects, Now: s.svc.Clock.Now()}.Render()
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(data)
}

// GET /api/week.xlsx?of=&teacher_id=
func (s *Server) weekSheet(c *fiber.Ctx) error {
	view, subjects, err := s.weekExport(c)
	if err != nil {
		return err
	}

	data, err := render.WeekSheet{View: view, Subjects: subjects}.Render()
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Attachment("week-" + view.WeekStart.Format("2006-01-02") + ".xlsx")
	return c.Send(data)
}

// weekExport неделя (вся или одного учителя) и справочник предметов для выгрузок
func (s *Server) weekExport(c *fiber.Ctx) (*model.WeekView, map[int64]model.Subject, error) {
	ctx := c.UserContext()
	of, err := queryDate(c, "of", clock.Today(s.svc.Clock))
	if err != nil {
		return nil, nil, err
	}

	var view *model.WeekView
	if teacherID := c.QueryInt("teacher_id"); teacherID > 0 {
		view, err = s.svc.Lessons.TeacherWeek(ctx, int64(teacherID), of)
	} else {
		view, err = s.svc.Lessons.Week(ctx, of)
	}
	if err != nil {
		return nil, nil, err
	}

	subjects := make(map[int64]model.Subject)
	for _, wc := range view.Contracts {
		if _, ok := subjects[wc.Contract.SubjectID]; ok {
			continue
		}
		subject, err := s.svc.Directory.GetSubject(ctx, wc.Contract.SubjectID)
		if err != nil {
			return nil, nil, err
		}
		if subject != nil {
			subjects[subject.ID] = *subject
		}
	}
	return view, subjects, nil
}

// POST /api/lesson
func (s *Server) setLessonState(c *fiber.Ctx) error {
	var req lessonRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	if req.Date.IsZero() {
		return model.NewValidationError("date", "is required")
	}

	lesson, err := s.svc.Lessons.SetState(c.UserContext(), service.LessonUpdate{
		ContractID: req.ContractID,
		Date:       req.Date.Time,
		State:      req.State,
		Notes:      req.Notes,
	})
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, "lesson updated", newLessonResponse(lesson))
}
