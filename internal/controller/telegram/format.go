package telegram

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/Freeeeeet/contract_scheduler/internal/model"
)

var weekdayNames = [...]string{
	"Воскресенье",
	"Понедельник",
	"Вторник",
	"Среда",
	"Четверг",
	"Пятница",
	"Суббота",
}

var weekdayShortNames = [...]string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}

func weekdayName(wd time.Weekday) string {
	return weekdayNames[wd]
}

func weekdayShort(wd time.Weekday) string {
	return weekdayShortNames[wd]
}

func formatDate(t time.Time) string {
	return t.Format("02.01")
}

func formatFullDate(t time.Time) string {
	return t.Format("02.01.2006")
}

func stateName(s model.LessonState) string {
	switch s {
	case model.LessonStateHeld:
		return "проведено"
	case model.LessonStateCancelled:
		return "отменено"
	default:
		return "запланировано"
	}
}

func leaveTypeName(t model.LeaveType) string {
	if t == model.LeaveTypeSick {
		return "больничный"
	}
	return "отпуск"
}

func leaveStateName(s model.LeaveState) string {
	switch s {
	case model.LeaveStateAccepted:
		return "✅ подтверждён"
	case model.LeaveStateDeclined:
		return "❌ отклонён"
	default:
		return "⏳ на рассмотрении"
	}
}

// formatWeek текстовое расписание недели, сгруппированное по дням (HTML)
func formatWeek(view *model.WeekView, subjects map[int64]model.Subject) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🗓 <b>Неделя %s – %s</b>\n", formatDate(view.WeekStart), formatDate(view.WeekEnd))

	if len(view.Lessons) == 0 {
		sb.WriteString("\nЗанятий нет.")
		return sb.String()
	}

	contracts := contractIndex(view)
	var current time.Time
	for _, l := range view.Lessons {
		c, ok := contracts[l.ContractID]
		if !ok {
			continue
		}
		if !l.Date.Equal(current) {
			current = l.Date
			fmt.Fprintf(&sb, "\n<b>%s, %s</b>\n", weekdayName(l.Date.Weekday()), formatDate(l.Date))
		}

		name := fmt.Sprintf("предмет #%d", c.SubjectID)
		if s, ok := subjects[c.SubjectID]; ok {
			name = s.Name
		}
		fmt.Fprintf(&sb, "• %s–%s %s: %s", c.StartTime, c.EndTime, html.EscapeString(name), stateName(l.State))
		if l.Blocked {
			sb.WriteString(" ⛔ отпуск")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// formatLeaves список отпусков учителя (HTML)
func formatLeaves(leaves []*model.Leave) string {
	if len(leaves) == 0 {
		return "🏖 Отпусков и больничных в ближайшие 90 дней нет."
	}

	var sb strings.Builder
	sb.WriteString("🏖 <b>Ваши отпуска и больничные</b>\n\n")
	for _, l := range leaves {
		fmt.Fprintf(&sb, "• %s – %s, %s: %s\n",
			formatFullDate(l.StartDate), formatFullDate(l.EndDate), leaveTypeName(l.Type), leaveStateName(l.State))
	}
	return sb.String()
}
