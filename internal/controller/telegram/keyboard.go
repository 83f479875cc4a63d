package telegram

import (
	"fmt"

	"github.com/Freeeeeet/contract_scheduler/internal/model"
	"github.com/go-telegram/bot/models"
)

// keyboardBuilder упрощает создание inline клавиатур
type keyboardBuilder struct {
	rows [][]models.InlineKeyboardButton
}

func newKeyboard() *keyboardBuilder {
	return &keyboardBuilder{rows: make([][]models.InlineKeyboardButton, 0)}
}

// Row добавляет ряд кнопок, пустые ряды пропускаются
func (b *keyboardBuilder) Row(buttons ...models.InlineKeyboardButton) *keyboardBuilder {
	if len(buttons) > 0 {
		b.rows = append(b.rows, buttons)
	}
	return b
}

func (b *keyboardBuilder) Build() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{InlineKeyboard: b.rows}
}

func button(text, callbackData string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{Text: text, CallbackData: callbackData}
}

// lessonKeyboard по ряду на занятие: подпись и три кнопки смены состояния.
// Для заблокированных занятий кнопки всё равно показываются, ответ придёт алертом.
func lessonKeyboard(view *model.WeekView) *models.InlineKeyboardMarkup {
	contracts := contractIndex(view)
	kb := newKeyboard()

	for _, l := range view.Lessons {
		c, ok := contracts[l.ContractID]
		if !ok {
			continue
		}
		label := fmt.Sprintf("%s %s %s", weekdayShort(l.Date.Weekday()), formatDate(l.Date), c.StartTime)
		if l.Blocked {
			label = "⛔ " + label
		}
		kb.Row(
			button(label, lessonCallback{ContractID: l.ContractID, Date: l.Date, State: l.State}.String()),
			button("✅", lessonCallback{ContractID: l.ContractID, Date: l.Date, State: model.LessonStateHeld}.String()),
			button("❌", lessonCallback{ContractID: l.ContractID, Date: l.Date, State: model.LessonStateCancelled}.String()),
			button("↩", lessonCallback{ContractID: l.ContractID, Date: l.Date, State: model.LessonStateIdle}.String()),
		)
	}
	return kb.Build()
}

func contractIndex(view *model.WeekView) map[int64]*model.Contract {
	out := make(map[int64]*model.Contract, len(view.Contracts))
	for _, wc := range view.Contracts {
		out[wc.Contract.ID] = wc.Contract
	}
	return out
}
