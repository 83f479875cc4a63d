package render

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/Freeeeeet/contract_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleView() *model.WeekView {
	monday := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	teacher := int64(10)
	math := &model.Contract{ID: 1, SubjectID: 1, TeacherID: &teacher, StartDate: monday,
		IntervalWeeks: 1, StartTime: model.NewTimeOfDay(10, 0), EndTime: model.NewTimeOfDay(11, 30)}
	physics := &model.Contract{ID: 2, SubjectID: 2, StartDate: monday.AddDate(0, 0, 2),
		IntervalWeeks: 2, StartTime: model.NewTimeOfDay(15, 0), EndTime: model.NewTimeOfDay(16, 0)}

	return &model.WeekView{
		WeekStart: monday,
		WeekEnd:   monday.AddDate(0, 0, 4),
		Contracts: []model.WeekContract{{Contract: math}, {Contract: physics}},
		Lessons: []*model.Lesson{
			{ContractID: 1, Date: monday, State: model.LessonStateHeld, Notes: "chapter 4"},
			{ContractID: 2, Date: monday.AddDate(0, 0, 2), State: model.LessonStateIdle, Blocked: true},
			{ContractID: 99, Date: monday, State: model.LessonStateIdle},
		},
	}
}

func TestWeekImage_Render(t *testing.T) {
	img := WeekImage{
		View: sampleView(),
		Subjects: map[int64]model.Subject{
			1: {ID: 1, Name: "Mathematics", Color: "#E57373", ShortForm: "MA"},
		},
		Now: time.Date(2024, 1, 17, 12, 30, 0, 0, time.UTC),
	}

	data, err := img.Render()
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, imageWidth, decoded.Bounds().Dx())
	assert.Equal(t, imageHeight, decoded.Bounds().Dy())

	t.Run("empty week", func(t *testing.T) {
		view := sampleView()
		view.Contracts = nil
		view.Lessons = nil

		data, err := WeekImage{View: view}.Render()
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	})

	t.Run("missing view", func(t *testing.T) {
		_, err := WeekImage{}.Render()
		assert.Error(t, err)
	})
}

func TestCalculateHourRange(t *testing.T) {
	hours := calculateHourRange(sampleView().Contracts)
	assert.Equal(t, 9, hours.start)
	assert.Equal(t, 17, hours.end)
	assert.Equal(t, 9, hours.total)

	hours = calculateHourRange(nil)
	assert.Equal(t, defaultMinHour-hourPaddingTop, hours.start)
	assert.Equal(t, defaultMaxHour+hourPaddingBot, hours.end)
}

func TestParseHexColor(t *testing.T) {
	c, err := parseHexColor("#E57373")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0xE5, G: 0x73, B: 0x73, A: 220}, c)

	_, err = parseHexColor("red")
	assert.Error(t, err)
	_, err = parseHexColor("#GGGGGG")
	assert.Error(t, err)
}

func TestStateMarkAndTruncate(t *testing.T) {
	assert.Equal(t, "!", stateMark(&model.Lesson{State: model.LessonStateHeld, Blocked: true}))
	assert.Equal(t, "+", stateMark(&model.Lesson{State: model.LessonStateHeld}))
	assert.Equal(t, "", stateMark(&model.Lesson{State: model.LessonStateIdle}))

	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Матем...", truncate("Математика", 8))
}
