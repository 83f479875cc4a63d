package http

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/contract_scheduler/internal/clock"
	"github.com/Freeeeeet/contract_scheduler/internal/directory"
	"github.com/Freeeeeet/contract_scheduler/internal/service"
	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Services зависимости REST API
type Services struct {
	Contracts     *service.ContractService
	Leaves        *service.LeaveService
	Lessons       *service.LessonService
	Suggestions   *service.SuggestionService
	Substitutions *service.SubstitutionService
	Directory     directory.Directory
	Clock         clock.Clock
}

// Server REST API планировщика поверх fiber
type Server struct {
	app      *fiber.App
	svc      Services
	validate *validator.Validate
	logger   *zap.Logger
}

func NewServer(svc Services, logger *zap.Logger) *Server {
	s := &Server{
		svc:      svc,
		validate: validator.New(),
		logger:   logger,
	}

	s.app = fiber.New(fiber.Config{
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           90 * time.Second,
	})

	s.app.Use(requestLogger(logger))
	s.app.Use(recoverMiddleware())
	s.app.Use(corsMiddleware())

	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	api := s.app.Group("/api")

	api.Get("/suggest", s.suggest)
	api.Get("/week", s.week)
	api.Get("/week.png", s.weekImage)
	api.Get("/week.xlsx", s.weekSheet)

	api.Post("/contract", s.createContract)
	api.Get("/contract/:id", s.getContract)
	api.Post("/contract/:id", s.updateContract)
	api.Delete("/contract/:id", s.deleteContract)
	api.Post("/contract/:id/end", s.endContract)
	api.Post("/contract/:id/accept", s.acceptContract)
	api.Post("/contract/:id/decline", s.declineContract)
	api.Post("/contract/:id/substitution/plan", s.planSubstitution)
	api.Post("/contract/:id/substitution", s.createSubstitution)

	api.Post("/lesson", s.setLessonState)

	api.Post("/leave", s.createLeave)
	api.Get("/leave/:id", s.getLeave)
	api.Post("/leave/:id/approve", s.approveLeave)
	api.Post("/leave/:id/decline", s.declineLeave)
	api.Get("/leaves/intersecting", s.intersectingLeaves)
}

// App для тестов через app.Test
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen блокируется до остановки сервера
func (s *Server) Listen(addr string) error {
	s.logger.Info("HTTP server listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// bind разбирает тело запроса и проверяет теги validate
func (s *Server) bind(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}
	return s.validate.Struct(out)
}

func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// queryDate читает обязательную дату из query; пустая строка - fallback
func queryDate(c *fiber.Ctx, name string, fallback time.Time) (time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		if fallback.IsZero() {
			return time.Time{}, fiber.NewError(fiber.StatusBadRequest, name+" is required")
		}
		return fallback, nil
	}
	d, err := ParseDate(raw)
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return d.Time, nil
}

// queryIDs поддерживает и повтор параметра, и список через запятую
func queryIDs(c *fiber.Ctx, name string) ([]int64, error) {
	var ids []int64
	for _, raw := range c.Context().QueryArgs().PeekMulti(name) {
		for _, part := range strings.Split(string(raw), ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil || id <= 0 {
				return nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
