package service

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/contract_scheduler/internal/clock"
	"github.com/Freeeeeet/contract_scheduler/internal/directory"
	"github.com/Freeeeeet/contract_scheduler/internal/model"
	"github.com/Freeeeeet/contract_scheduler/internal/recurrence"
	"github.com/Freeeeeet/contract_scheduler/internal/repository/memory"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	subjectMath    int64 = 1
	subjectPhysics int64 = 2

	teacherAnna int64 = 10
	teacherBen  int64 = 11
	teacherCleo int64 = 12 // former, not qualified
)

type fixture struct {
	store         *memory.Store
	dir           *directory.Static
	clock         *clock.FakeClock
	contracts     *ContractService
	leaves        *LeaveService
	suggestions   *SuggestionService
	lessons       *LessonService
	substitutions *SubstitutionService
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithPolicy(t, model.SubstitutionDisallow)
}

func newFixtureWithPolicy(t *testing.T, policy model.SubstitutionPolicy) *fixture {
	t.Helper()

	logger := zap.NewNop()
	store := memory.NewStore()
	dir := directory.NewStatic().
		AddSubject(model.Subject{ID: subjectMath, Name: "Mathematics", Color: "#E57373", ShortForm: "MA"}).
		AddSubject(model.Subject{ID: subjectPhysics, Name: "Physics", Color: "#64B5F6", ShortForm: "PH"}).
		AddTeacher(model.Teacher{ID: teacherAnna, Name: "Anna", SubjectIDs: []int64{subjectMath}, EmploymentState: model.EmploymentEmployed}).
		AddTeacher(model.Teacher{ID: teacherBen, Name: "Ben", SubjectIDs: []int64{subjectMath, subjectPhysics}, EmploymentState: model.EmploymentContract}).
		AddTeacher(model.Teacher{ID: teacherCleo, Name: "Cleo", SubjectIDs: []int64{subjectMath}, EmploymentState: model.EmploymentFormer})

	clk := clock.NewFakeClock(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	detector := recurrence.NewDetector(recurrence.DefaultHorizonDays)

	contracts := NewContractService(store, dir, detector, clk, logger)
	suggestions := NewSuggestionService(store, dir, detector, DefaultBusinessHours, logger)

	return &fixture{
		store:         store,
		dir:           dir,
		clock:         clk,
		contracts:     contracts,
		leaves:        NewLeaveService(store, dir, logger),
		suggestions:   suggestions,
		lessons:       NewLessonService(store, contracts, logger),
		substitutions: NewSubstitutionService(contracts, suggestions, policy, logger),
	}
}

func d(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return parsed
}

func hm(h, m int) model.TimeOfDay {
	return model.NewTimeOfDay(h, m)
}

func ptr[T any](v T) *T {
	return &v
}

// weekly контракт на учителя с 2024-01-01 (понедельник) и заданным временем
func weeklyInput(teacherID *int64, start time.Time, interval int, from, to model.TimeOfDay, customers ...int64) ContractInput {
	if len(customers) == 0 {
		customers = []int64{100}
	}
	return ContractInput{
		SubjectID:     subjectMath,
		CustomerIDs:   customers,
		TeacherID:     teacherID,
		StartDate:     start,
		IntervalWeeks: interval,
		StartTime:     from,
		EndTime:       to,
	}
}

func (f *fixture) mustCreate(t *testing.T, input ContractInput) *model.Contract {
	t.Helper()
	c, err := f.contracts.Create(context.Background(), input)
	require.NoError(t, err)
	return c
}

func (f *fixture) acceptedLeave(t *testing.T, teacherID int64, from, to time.Time) *model.Leave {
	t.Helper()
	ctx := context.Background()
	leave, err := f.leaves.Create(ctx, LeaveInput{TeacherID: teacherID, Type: model.LeaveTypeRegular, StartDate: from, EndDate: to})
	require.NoError(t, err)
	leave, err = f.leaves.Approve(ctx, leave.ID)
	require.NoError(t, err)
	return leave
}
