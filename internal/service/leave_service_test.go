package service

import (
	"context"
	"testing"

	"github.com/Freeeeeet/contract_scheduler/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaveService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ref := uuid.New()
	leave, err := f.leaves.Create(ctx, LeaveInput{
		TeacherID:     teacherAnna,
		Type:          model.LeaveTypeSick,
		StartDate:     d(t, "2024-02-01"),
		EndDate:       d(t, "2024-02-03"),
		AttachmentRef: &ref,
	})
	require.NoError(t, err)
	assert.NotZero(t, leave.ID)
	assert.Equal(t, model.LeaveStatePending, leave.State)
	assert.Equal(t, &ref, leave.AttachmentRef)

	t.Run("invalid input", func(t *testing.T) {
		tests := []struct {
			name  string
			input LeaveInput
			want  error
		}{
			{"unknown type", LeaveInput{TeacherID: teacherAnna, Type: "holiday", StartDate: d(t, "2024-02-01"), EndDate: d(t, "2024-02-01")}, model.ErrValidation},
			{"missing dates", LeaveInput{TeacherID: teacherAnna, Type: model.LeaveTypeRegular}, model.ErrValidation},
			{"inverted", LeaveInput{TeacherID: teacherAnna, Type: model.LeaveTypeRegular, StartDate: d(t, "2024-02-05"), EndDate: d(t, "2024-02-01")}, model.ErrValidation},
			{"unknown teacher", LeaveInput{TeacherID: 404, Type: model.LeaveTypeRegular, StartDate: d(t, "2024-02-01"), EndDate: d(t, "2024-02-01")}, model.ErrNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := f.leaves.Create(ctx, tt.input)
				assert.ErrorIs(t, err, tt.want)
			})
		}
	})
}

func TestLeaveService_Decide(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	leave, err := f.leaves.Create(ctx, LeaveInput{TeacherID: teacherBen, Type: model.LeaveTypeRegular,
		StartDate: d(t, "2024-03-04"), EndDate: d(t, "2024-03-08")})
	require.NoError(t, err)

	approved, err := f.leaves.Approve(ctx, leave.ID)
	require.NoError(t, err)
	assert.True(t, approved.IsAccepted())

	declined, err := f.leaves.Decline(ctx, leave.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LeaveStateDeclined, declined.State)

	got, err := f.leaves.Get(ctx, leave.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LeaveStateDeclined, got.State)

	_, err = f.leaves.Approve(ctx, 999)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = f.leaves.Get(ctx, 999)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestLeaveService_Intersecting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	empty, err := f.leaves.Intersecting(ctx, d(t, "2024-01-01"), d(t, "2024-12-31"))
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	create := func(teacherID int64, from, to string) *model.Leave {
		leave, err := f.leaves.Create(ctx, LeaveInput{TeacherID: teacherID, Type: model.LeaveTypeRegular,
			StartDate: d(t, from), EndDate: d(t, to)})
		require.NoError(t, err)
		return leave
	}
	benLate := create(teacherBen, "2024-05-20", "2024-05-24")
	annaLate := create(teacherAnna, "2024-05-27", "2024-06-07")
	annaEarly := create(teacherAnna, "2024-05-13", "2024-05-14")
	create(teacherAnna, "2024-07-01", "2024-07-05")
	f.acceptedLeave(t, teacherBen, d(t, "2024-04-01"), d(t, "2024-04-02"))

	groups, err := f.leaves.Intersecting(ctx, d(t, "2024-05-14"), d(t, "2024-05-31"))
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, teacherAnna, groups[0].TeacherID)
	require.Len(t, groups[0].Leaves, 2)
	assert.Equal(t, annaEarly.ID, groups[0].Leaves[0].ID)
	assert.Equal(t, annaLate.ID, groups[0].Leaves[1].ID)

	assert.Equal(t, teacherBen, groups[1].TeacherID)
	require.Len(t, groups[1].Leaves, 1)
	assert.Equal(t, benLate.ID, groups[1].Leaves[0].ID)

	_, err = f.leaves.Intersecting(ctx, d(t, "2024-05-31"), d(t, "2024-05-14"))
	assert.ErrorIs(t, err, model.ErrValidation)

	t.Run("teacher listing includes every state", func(t *testing.T) {
		leaves, err := f.leaves.ListForTeacher(ctx, teacherBen, d(t, "2024-01-01"), d(t, "2024-12-31"))
		require.NoError(t, err)
		require.Len(t, leaves, 2)
		assert.Equal(t, model.LeaveStateAccepted, leaves[0].State)
		assert.Equal(t, model.LeaveStatePending, leaves[1].State)
	})
}
