// Package telegram бот для учителей: расписание недели, отметка занятий, свои отпуска.
package telegram

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/contract_scheduler/internal/clock"
	"github.com/Freeeeeet/contract_scheduler/internal/directory"
	"github.com/Freeeeeet/contract_scheduler/internal/model"
	"github.com/Freeeeeet/contract_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Services зависимости бота
type Services struct {
	Contracts *service.ContractService
	Lessons   *service.LessonService
	Leaves    *service.LeaveService
	Directory directory.Directory
	Clock     clock.Clock
}

type BotController struct {
	bot    *bot.Bot
	svc    Services
	logger *zap.Logger
}

// New создаёт клиента telegram и контроллер поверх него
func New(token string, svc Services, logger *zap.Logger) (*BotController, error) {
	c := &BotController{svc: svc, logger: logger}

	b, err := bot.New(token, bot.WithDefaultHandler(c.handleDefault))
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	c.bot = b
	return c, nil
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/week", bot.MatchTypeExact, c.HandleWeek)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/leaves", bot.MatchTypeExact, c.HandleLeaves)

	// Обработчик нажатий на inline кнопки
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, c.HandleCallbackQuery)

	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Начать работу с ботом"},
		{Command: "help", Description: "❓ Справка по командам"},
		{Command: "week", Description: "🗓 Расписание на неделю"},
		{Command: "leaves", Description: "🏖 Мои отпуска"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("Bot commands menu set")
	return nil
}

// Start блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	return nil
}

// teacherOf находит учителя по telegram id, nil если не зарегистрирован
func (c *BotController) teacherOf(ctx context.Context, telegramID int64) (*model.Teacher, error) {
	teacher, err := c.svc.Directory.TeacherByTelegramID(ctx, telegramID)
	if err != nil {
		c.logger.Error("Failed to look up teacher",
			zap.Int64("telegram_id", telegramID),
			zap.Error(err))
		return nil, err
	}
	return teacher, nil
}

func (c *BotController) subjectsOf(ctx context.Context, view *model.WeekView) (map[int64]model.Subject, error) {
	subjects := make(map[int64]model.Subject)
	for _, wc := range view.Contracts {
		if _, ok := subjects[wc.Contract.SubjectID]; ok {
			continue
		}
		subject, err := c.svc.Directory.GetSubject(ctx, wc.Contract.SubjectID)
		if err != nil {
			return nil, err
		}
		if subject != nil {
			subjects[subject.ID] = *subject
		}
	}
	return subjects, nil
}
