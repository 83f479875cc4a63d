package http

import (
	"errors"

	"github.com/Freeeeeet/contract_scheduler/internal/model"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// success ответ {code, status, message, data}
func success(c *fiber.Ctx, code int, message string, data any) error {
	return c.Status(code).JSON(fiber.Map{
		"code":    code,
		"status":  statusSuccess,
		"message": message,
		"data":    data,
	})
}

func fail(c *fiber.Ctx, code int, message string) error {
	return c.Status(code).JSON(fiber.Map{
		"code":    code,
		"status":  statusError,
		"message": message,
	})
}

func failWithDetails(c *fiber.Ctx, code int, message string, details any) error {
	return c.Status(code).JSON(fiber.Map{
		"code":    code,
		"status":  statusError,
		"message": message,
		"errors":  details,
	})
}

// errorHandler переводит ошибки сервисов в HTTP-коды:
// validation 400, conflict 400, not found 404, blocked 403, остальное 500
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var (
		validationErrs validator.ValidationErrors
		validationErr  *model.ValidationError
		conflictErr    *model.ConflictError
		fiberErr       *fiber.Error
	)

	switch {
	case errors.As(err, &validationErrs):
		details := make(map[string]string, len(validationErrs))
		for _, fe := range validationErrs {
			details[fe.Field()] = fe.Tag()
		}
		return failWithDetails(c, fiber.StatusBadRequest, "validation failed", details)

	case errors.As(err, &validationErr):
		return failWithDetails(c, fiber.StatusBadRequest, validationErr.Error(), fiber.Map{
			"kind":  "validation",
			"field": validationErr.Field,
		})

	case errors.As(err, &conflictErr):
		ids := conflictErr.ContractIDs
		if ids == nil {
			ids = []int64{}
		}
		return failWithDetails(c, fiber.StatusBadRequest, conflictErr.Error(), fiber.Map{
			"kind":         "conflict",
			"contract_ids": ids,
		})

	case errors.Is(err, model.ErrNotFound):
		return fail(c, fiber.StatusNotFound, err.Error())

	case errors.Is(err, model.ErrBlocked):
		return fail(c, fiber.StatusForbidden, err.Error())

	case errors.As(err, &fiberErr):
		return fail(c, fiberErr.Code, fiberErr.Message)
	}

	s.logger.Error("Unhandled request error",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err))
	return fail(c, fiber.StatusInternalServerError, "internal error")
}
