package telegram

import (
	"bytes"
	"context"
	"fmt"
	"html"

	"github.com/Freeeeeet/contract_scheduler/internal/clock"
	"github.com/Freeeeeet/contract_scheduler/internal/model"
	"github.com/Freeeeeet/contract_scheduler/internal/render"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const leavesLookaheadDays = 90

const helpText = `<b>Команды</b>

/week - расписание текущей недели с кнопками отметки занятий
/leaves - ваши отпуска и больничные на ближайшие 90 дней
/help - эта справка

✅ проведено, ❌ отменено, ↩ вернуть в план.
Занятия, попадающие на подтверждённый отпуск, изменить нельзя.`

// HandleStart обрабатывает команду /start
func (c *BotController) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	teacher, ok := c.requireTeacher(ctx, b, update)
	if !ok {
		return
	}

	c.logger.Info("Teacher started bot",
		zap.Int64("teacher_id", teacher.ID),
		zap.Int64("telegram_id", update.Message.From.ID))

	c.sendHTML(ctx, b, chatID,
		fmt.Sprintf("👋 Здравствуйте, <b>%s</b>!\n\n%s", html.EscapeString(teacher.Name), helpText), nil)
}

// HandleHelp обрабатывает команду /help
func (c *BotController) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	c.sendHTML(ctx, b, update.Message.Chat.ID, helpText, nil)
}

// HandleWeek отправляет текст недели с кнопками и картинку расписания
func (c *BotController) HandleWeek(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	teacher, ok := c.requireTeacher(ctx, b, update)
	if !ok {
		return
	}

	view, err := c.svc.Lessons.TeacherWeek(ctx, teacher.ID, clock.Today(c.svc.Clock))
	if err != nil {
		c.logger.Error("Failed to load week", zap.Int64("teacher_id", teacher.ID), zap.Error(err))
		c.sendError(ctx, b, chatID, errorMessage(err, ""))
		return
	}
	subjects, err := c.subjectsOf(ctx, view)
	if err != nil {
		c.logger.Error("Failed to load subjects", zap.Error(err))
		c.sendError(ctx, b, chatID, errorMessage(err, ""))
		return
	}

	var markup models.ReplyMarkup
	if len(view.Lessons) > 0 {
		markup = lessonKeyboard(view)
	}
	c.sendHTML(ctx, b, chatID, formatWeek(view, subjects), markup)

	image, err := render.WeekImage{View: view, Subjects: subjects, Now: c.svc.Clock.Now()}.Render()
	if err != nil {
		c.logger.Error("Failed to render week image", zap.Error(err))
		return
	}
	_, err = b.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID: chatID,
		Photo:  &models.InputFileUpload{Filename: "week.png", Data: bytes.NewReader(image)},
	})
	if err != nil {
		c.logger.Error("Failed to send week image", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// HandleLeaves показывает отпуска учителя на ближайшие 90 дней
func (c *BotController) HandleLeaves(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	teacher, ok := c.requireTeacher(ctx, b, update)
	if !ok {
		return
	}

	today := clock.Today(c.svc.Clock)
	leaves, err := c.svc.Leaves.ListForTeacher(ctx, teacher.ID, today, today.AddDate(0, 0, leavesLookaheadDays))
	if err != nil {
		c.logger.Error("Failed to list leaves", zap.Int64("teacher_id", teacher.ID), zap.Error(err))
		c.sendError(ctx, b, chatID, errorMessage(err, ""))
		return
	}
	c.sendHTML(ctx, b, chatID, formatLeaves(leaves), nil)
}

func (c *BotController) handleDefault(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	c.sendMessage(ctx, b, update.Message.Chat.ID, "Не понимаю команду. Список команд: /help")
}

// requireTeacher отвечает пользователю сам, если учитель не найден
func (c *BotController) requireTeacher(ctx context.Context, b *bot.Bot, update *models.Update) (*model.Teacher, bool) {
	chatID := update.Message.Chat.ID
	teacher, err := c.teacherOf(ctx, update.Message.From.ID)
	if err != nil {
		c.sendError(ctx, b, chatID, errorMessage(err, ""))
		return nil, false
	}
	if teacher == nil {
		c.sendError(ctx, b, chatID,
			fmt.Sprintf("Вы не зарегистрированы как учитель. Передайте администратору ваш Telegram ID: %d", update.Message.From.ID))
		return nil, false
	}
	return teacher, true
}

func (c *BotController) sendHTML(ctx context.Context, b *bot.Bot, chatID int64, text string, markup models.ReplyMarkup) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: markup,
	})
	if err != nil {
		c.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

// sendMessage отправляет сообщение и логирует если не удалось
func (c *BotController) sendMessage(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		c.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

func (c *BotController) sendError(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	c.sendMessage(ctx, b, chatID, "❌ "+text)
}
