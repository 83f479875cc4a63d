package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/contract_scheduler/internal/model"
	"github.com/Freeeeeet/contract_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const lessonPrefix = "lesson"

// lessonCallback данные кнопки занятия: "lesson:<contract>:<YYYY-MM-DD>:<state>"
type lessonCallback struct {
	ContractID int64
	Date       time.Time
	State      model.LessonState
}

func (c lessonCallback) String() string {
	return fmt.Sprintf("%s:%d:%s:%s", lessonPrefix, c.ContractID, c.Date.Format(time.DateOnly), c.State)
}

func parseLessonCallback(data string) (lessonCallback, error) {
	parts := strings.Split(data, ":")
	if len(parts) != 4 || parts[0] != lessonPrefix {
		return lessonCallback{}, fmt.Errorf("invalid lesson callback %q", data)
	}

	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 {
		return lessonCallback{}, fmt.Errorf("invalid contract id in %q", data)
	}
	date, err := time.Parse(time.DateOnly, parts[2])
	if err != nil {
		return lessonCallback{}, fmt.Errorf("invalid date in %q: %w", data, err)
	}
	state := model.LessonState(parts[3])
	if !state.Valid() {
		return lessonCallback{}, fmt.Errorf("invalid lesson state in %q", data)
	}

	return lessonCallback{ContractID: id, Date: date, State: state}, nil
}

// HandleCallbackQuery роутер нажатий на inline кнопки
func (c *BotController) HandleCallbackQuery(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	callback := update.CallbackQuery

	c.logger.Debug("Callback query received",
		zap.Int64("user_id", callback.From.ID),
		zap.String("data", callback.Data))

	switch {
	case strings.HasPrefix(callback.Data, lessonPrefix+":"):
		c.handleLessonCallback(ctx, b, callback)
	default:
		c.logger.Warn("Unknown callback data", zap.String("data", callback.Data))
		c.answer(ctx, b, callback.ID, "Неизвестная команда", false)
	}
}

func (c *BotController) handleLessonCallback(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	data, err := parseLessonCallback(callback.Data)
	if err != nil {
		c.logger.Warn("Bad lesson callback", zap.String("data", callback.Data), zap.Error(err))
		c.answer(ctx, b, callback.ID, "Некорректные данные кнопки", true)
		return
	}

	teacher, err := c.teacherOf(ctx, callback.From.ID)
	if err != nil || teacher == nil {
		c.answer(ctx, b, callback.ID, errorMessage(err, "Вы не зарегистрированы как учитель"), true)
		return
	}

	contract, err := c.svc.Contracts.Get(ctx, data.ContractID)
	if err != nil {
		c.answer(ctx, b, callback.ID, errorMessage(err, ""), true)
		return
	}
	if contract.TeacherID == nil || *contract.TeacherID != teacher.ID {
		c.answer(ctx, b, callback.ID, "Это занятие ведёт другой учитель", true)
		return
	}

	lesson, err := c.svc.Lessons.SetState(ctx, service.LessonUpdate{
		ContractID: data.ContractID,
		Date:       data.Date,
		State:      data.State,
	})
	if err != nil {
		c.answer(ctx, b, callback.ID, errorMessage(err, ""), true)
		return
	}

	c.answer(ctx, b, callback.ID,
		fmt.Sprintf("%s %s: %s", weekdayShort(lesson.Date.Weekday()), formatDate(lesson.Date), stateName(lesson.State)),
		false)
}

func (c *BotController) answer(ctx context.Context, b *bot.Bot, callbackID, text string, alert bool) {
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       alert,
	})
	if err != nil {
		c.logger.Error("Failed to answer callback", zap.Error(err))
	}
}

// errorMessage переводит ошибки сервисов в текст для пользователя
func errorMessage(err error, fallback string) string {
	var (
		validation *model.ValidationError
		conflict   *model.ConflictError
	)
	switch {
	case err == nil:
		return fallback
	case errors.Is(err, model.ErrBlocked):
		return "Занятие попадает на ваш отпуск, менять его нельзя"
	case errors.Is(err, model.ErrNotFound):
		return "Не найдено"
	case errors.As(err, &validation):
		return "Некорректные данные: " + validation.Field
	case errors.As(err, &conflict):
		return "Конфликт расписания"
	case fallback != "":
		return fallback
	default:
		return "Произошла ошибка, попробуйте позже"
	}
}
