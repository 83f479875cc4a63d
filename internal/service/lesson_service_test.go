package service

import (
	"context"
	"testing"

	"github.com/Freeeeeet/contract_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLessonService_Week(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.mustCreate(t, weeklyInput(ptr(teacherAnna), d(t, "2024-01-01"), 2, hm(10, 0), hm(11, 0)))

	week, err := f.lessons.Week(ctx, d(t, "2024-01-17"))
	require.NoError(t, err)
	assert.Equal(t, d(t, "2024-01-15"), week.WeekStart)
	assert.Equal(t, d(t, "2024-01-19"), week.WeekEnd)
	require.Len(t, week.Lessons, 1)

	lesson := week.Lessons[0]
	assert.Equal(t, c.ID, lesson.ContractID)
	assert.Equal(t, d(t, "2024-01-15"), lesson.Date)
	assert.Equal(t, model.LessonStateIdle, lesson.State)
	assert.False(t, lesson.IsStored())
	assert.False(t, lesson.Blocked)

	week, err = f.lessons.Week(ctx, d(t, "2024-01-08"))
	require.NoError(t, err)
	assert.Empty(t, week.Lessons)
}

func TestLessonService_StoredOverride(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.mustCreate(t, weeklyInput(ptr(teacherAnna), d(t, "2024-01-01"), 1, hm(10, 0), hm(11, 0)))

	saved, err := f.lessons.SetState(ctx, LessonUpdate{
		ContractID: c.ID,
		Date:       d(t, "2024-01-15"),
		State:      model.LessonStateHeld,
		Notes:      "chapter 4",
	})
	require.NoError(t, err)
	assert.True(t, saved.IsStored())

	week, err := f.lessons.Week(ctx, d(t, "2024-01-15"))
	require.NoError(t, err)
	require.Len(t, week.Lessons, 1)
	assert.Equal(t, model.LessonStateHeld, week.Lessons[0].State)
	assert.Equal(t, "chapter 4", week.Lessons[0].Notes)

	// повторная запись обновляет ту же строку
	again, err := f.lessons.SetState(ctx, LessonUpdate{ContractID: c.ID, Date: d(t, "2024-01-15"), State: model.LessonStateCancelled})
	require.NoError(t, err)
	assert.Equal(t, saved.ID, again.ID)

	week, err = f.lessons.Week(ctx, d(t, "2024-01-22"))
	require.NoError(t, err)
	require.Len(t, week.Lessons, 1)
	assert.Equal(t, model.LessonStateIdle, week.Lessons[0].State)
}

func TestLessonService_Ordering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	anna := f.mustCreate(t, weeklyInput(ptr(teacherAnna), d(t, "2024-01-01"), 1, hm(10, 0), hm(11, 0)))
	ben := f.mustCreate(t, weeklyInput(ptr(teacherBen), d(t, "2024-01-01"), 1, hm(9, 0), hm(10, 0)))
	tuesday := f.mustCreate(t, weeklyInput(ptr(teacherBen), d(t, "2024-01-02"), 1, hm(8, 0), hm(9, 0)))

	lessons, err := f.lessons.Materialize(ctx, []*model.Contract{tuesday, anna, ben}, d(t, "2024-01-03"))
	require.NoError(t, err)
	require.Len(t, lessons, 3)
	assert.Equal(t, ben.ID, lessons[0].ContractID)
	assert.Equal(t, anna.ID, lessons[1].ContractID)
	assert.Equal(t, tuesday.ID, lessons[2].ContractID)

	empty, err := f.lessons.Materialize(ctx, nil, d(t, "2024-01-03"))
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestLessonService_Blocked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.mustCreate(t, weeklyInput(ptr(teacherAnna), d(t, "2024-01-01"), 1, hm(10, 0), hm(11, 0)))
	leave := f.acceptedLeave(t, teacherAnna, d(t, "2024-01-13"), d(t, "2024-01-16"))

	week, err := f.lessons.Week(ctx, d(t, "2024-01-15"))
	require.NoError(t, err)
	require.Len(t, week.Lessons, 1)
	assert.True(t, week.Lessons[0].Blocked)

	_, err = f.lessons.SetState(ctx, LessonUpdate{ContractID: c.ID, Date: d(t, "2024-01-15"), State: model.LessonStateHeld})
	require.ErrorIs(t, err, model.ErrBlocked)

	var blocked *model.BlockedMutationError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, c.ID, blocked.ContractID)

	// соседние недели не затронуты
	_, err = f.lessons.SetState(ctx, LessonUpdate{ContractID: c.ID, Date: d(t, "2024-01-22"), State: model.LessonStateHeld})
	require.NoError(t, err)

	t.Run("declining the leave unblocks", func(t *testing.T) {
		_, err := f.leaves.Decline(ctx, leave.ID)
		require.NoError(t, err)

		week, err := f.lessons.Week(ctx, d(t, "2024-01-15"))
		require.NoError(t, err)
		assert.False(t, week.Lessons[0].Blocked)

		_, err = f.lessons.SetState(ctx, LessonUpdate{ContractID: c.ID, Date: d(t, "2024-01-15"), State: model.LessonStateHeld})
		assert.NoError(t, err)
	})

	t.Run("unassigned contracts are never blocked", func(t *testing.T) {
		f.acceptedLeave(t, teacherAnna, d(t, "2024-01-29"), d(t, "2024-01-29"))
		open := f.mustCreate(t, weeklyInput(nil, d(t, "2024-01-01"), 1, hm(12, 0), hm(13, 0)))

		_, err := f.lessons.SetState(ctx, LessonUpdate{ContractID: open.ID, Date: d(t, "2024-01-29"), State: model.LessonStateHeld})
		assert.NoError(t, err)
	})
}

func TestLessonService_SetStateErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.mustCreate(t, weeklyInput(ptr(teacherAnna), d(t, "2024-01-01"), 2, hm(10, 0), hm(11, 0)))

	tests := []struct {
		name   string
		update LessonUpdate
		want   error
	}{
		{
			name:   "not an occurrence",
			update: LessonUpdate{ContractID: c.ID, Date: d(t, "2024-01-08"), State: model.LessonStateHeld},
			want:   model.ErrValidation,
		},
		{
			name:   "before start",
			update: LessonUpdate{ContractID: c.ID, Date: d(t, "2023-12-18"), State: model.LessonStateHeld},
			want:   model.ErrValidation,
		},
		{
			name:   "unknown contract",
			update: LessonUpdate{ContractID: 999, Date: d(t, "2024-01-15"), State: model.LessonStateHeld},
			want:   model.ErrNotFound,
		},
		{
			name:   "unknown state",
			update: LessonUpdate{ContractID: c.ID, Date: d(t, "2024-01-15"), State: "finished"},
			want:   model.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.lessons.SetState(ctx, tt.update)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	week, err := f.lessons.Week(ctx, d(t, "2024-01-15"))
	require.NoError(t, err)
	require.Len(t, week.Lessons, 1)
	assert.False(t, week.Lessons[0].IsStored(), "rejected updates must not be written")
}
