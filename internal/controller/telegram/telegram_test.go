package telegram

import (
	"fmt"
	"testing"
	"time"

	"github.com/Freeeeeet/contract_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestLessonCallback(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		cb := lessonCallback{ContractID: 42, Date: date("2024-01-15"), State: model.LessonStateCancelled}

		data := cb.String()
		assert.Equal(t, "lesson:42:2024-01-15:cancelled", data)
		assert.LessOrEqual(t, len(data), 64, "telegram limits callback data to 64 bytes")

		parsed, err := parseLessonCallback(data)
		require.NoError(t, err)
		assert.Equal(t, cb, parsed)
	})

	invalid := []string{
		"",
		"lesson",
		"lesson:42:2024-01-15",
		"lesson:42:2024-01-15:held:extra",
		"leave:42:2024-01-15:held",
		"lesson:abc:2024-01-15:held",
		"lesson:0:2024-01-15:held",
		"lesson:42:15.01.2024:held",
		"lesson:42:2024-01-15:done",
	}
	for _, data := range invalid {
		t.Run(fmt.Sprintf("Invalid %q", data), func(t *testing.T) {
			_, err := parseLessonCallback(data)
			assert.Error(t, err)
		})
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		fallback string
		want     string
	}{
		{"Nil", nil, "fallback", "fallback"},
		{"Blocked", &model.BlockedMutationError{ContractID: 1, Date: date("2024-01-15")}, "", "Занятие попадает на ваш отпуск, менять его нельзя"},
		{"NotFound", &model.NotFoundError{Entity: "contract", ID: 7}, "", "Не найдено"},
		{"Validation", model.NewValidationError("date", "not an occurrence"), "", "Некорректные данные: date"},
		{"Conflict", &model.ConflictError{Reason: "busy", ContractIDs: []int64{1}}, "", "Конфликт расписания"},
		{"WrappedBlocked", fmt.Errorf("set state: %w", &model.BlockedMutationError{ContractID: 1}), "", "Занятие попадает на ваш отпуск, менять его нельзя"},
		{"Other", fmt.Errorf("boom"), "", "Произошла ошибка, попробуйте позже"},
		{"OtherWithFallback", fmt.Errorf("boom"), "fallback", "fallback"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorMessage(tt.err, tt.fallback))
		})
	}
}

func weekFixture() *model.WeekView {
	teacher := int64(10)
	math := &model.Contract{
		ID: 1, SubjectID: 1, TeacherID: &teacher,
		StartTime: model.NewTimeOfDay(10, 0), EndTime: model.NewTimeOfDay(11, 0),
	}
	physics := &model.Contract{
		ID: 2, SubjectID: 2, TeacherID: &teacher,
		StartTime: model.NewTimeOfDay(14, 30), EndTime: model.NewTimeOfDay(15, 30),
	}
	return &model.WeekView{
		WeekStart: date("2024-01-15"),
		WeekEnd:   date("2024-01-19"),
		Contracts: []model.WeekContract{{Contract: math}, {Contract: physics}},
		Lessons: []*model.Lesson{
			{ContractID: 1, Date: date("2024-01-15"), State: model.LessonStateHeld},
			{ContractID: 2, Date: date("2024-01-15"), State: model.LessonStateIdle},
			{ContractID: 1, Date: date("2024-01-17"), State: model.LessonStateIdle, Blocked: true},
		},
	}
}

func TestLessonKeyboard(t *testing.T) {
	kb := lessonKeyboard(weekFixture())
	require.Len(t, kb.InlineKeyboard, 3)

	first := kb.InlineKeyboard[0]
	require.Len(t, first, 4)
	assert.Equal(t, "Пн 15.01 10:00", first[0].Text)
	assert.Equal(t, "lesson:1:2024-01-15:held", first[0].CallbackData)
	assert.Equal(t, "lesson:1:2024-01-15:held", first[1].CallbackData)
	assert.Equal(t, "lesson:1:2024-01-15:cancelled", first[2].CallbackData)
	assert.Equal(t, "lesson:1:2024-01-15:idle", first[3].CallbackData)

	assert.Equal(t, "Пн 15.01 14:30", kb.InlineKeyboard[1][0].Text)
	assert.Equal(t, "⛔ Ср 17.01 10:00", kb.InlineKeyboard[2][0].Text)

	for _, row := range kb.InlineKeyboard {
		for _, btn := range row {
			_, err := parseLessonCallback(btn.CallbackData)
			assert.NoError(t, err, btn.CallbackData)
		}
	}
}

func TestFormatWeek(t *testing.T) {
	subjects := map[int64]model.Subject{1: {ID: 1, Name: "Математика & алгебра"}}

	text := formatWeek(weekFixture(), subjects)

	assert.Contains(t, text, "Неделя 15.01 – 19.01")
	assert.Contains(t, text, "<b>Понедельник, 15.01</b>")
	assert.Contains(t, text, "<b>Среда, 17.01</b>")
	assert.Contains(t, text, "10:00–11:00 Математика &amp; алгебра: проведено")
	assert.Contains(t, text, "14:30–15:30 предмет #2: запланировано")
	assert.Contains(t, text, "⛔ отпуск")
	assert.NotContains(t, text, "Вторник")

	empty := formatWeek(&model.WeekView{WeekStart: date("2024-01-15"), WeekEnd: date("2024-01-19")}, nil)
	assert.Contains(t, empty, "Занятий нет")
}

func TestFormatLeaves(t *testing.T) {
	assert.Contains(t, formatLeaves(nil), "нет")

	text := formatLeaves([]*model.Leave{
		{Type: model.LeaveTypeRegular, State: model.LeaveStateAccepted, StartDate: date("2024-02-01"), EndDate: date("2024-02-07")},
		{Type: model.LeaveTypeSick, State: model.LeaveStatePending, StartDate: date("2024-03-04"), EndDate: date("2024-03-05")},
	})
	assert.Contains(t, text, "01.02.2024 – 07.02.2024, отпуск: ✅ подтверждён")
	assert.Contains(t, text, "04.03.2024 – 05.03.2024, больничный: ⏳ на рассмотрении")
}

func TestWeekdayNames(t *testing.T) {
	assert.Equal(t, "Понедельник", weekdayName(time.Monday))
	assert.Equal(t, "Пт", weekdayShort(time.Friday))
	assert.Equal(t, "Вс", weekdayShort(time.Sunday))
}
