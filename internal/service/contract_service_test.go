package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Freeeeeet/contract_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContractService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	valid := func() ContractInput {
		return weeklyInput(ptr(teacherAnna), d(t, "2024-01-01"), 1, hm(10, 0), hm(11, 0))
	}

	cases := map[string]func(in *ContractInput){
		"empty customers":     func(in *ContractInput) { in.CustomerIDs = nil },
		"duplicate customers": func(in *ContractInput) { in.CustomerIDs = []int64{1, 1} },
		"zero interval":       func(in *ContractInput) { in.IntervalWeeks = 0 },
		"huge interval":       func(in *ContractInput) { in.IntervalWeeks = MaxIntervalWeeks + 1 },
		"end before start":    func(in *ContractInput) { in.EndTime = hm(9, 0) },
		"equal times":         func(in *ContractInput) { in.EndTime = in.StartTime },
		"past midnight":       func(in *ContractInput) { in.EndTime = model.TimeOfDay(24*60 + 30) },
		"end date early":      func(in *ContractInput) { in.EndDate = ptr(d(t, "2023-12-25")) },
		"weekend start":       func(in *ContractInput) { in.StartDate = d(t, "2024-01-06") },
		"unknown subject":     func(in *ContractInput) { in.SubjectID = 99 },
		"unknown teacher":     func(in *ContractInput) { in.TeacherID = ptr(int64(99)) },
		"unknown parent":      func(in *ContractInput) { in.ParentID = ptr(int64(99)) },
		"unknown state":       func(in *ContractInput) { in.State = "archived" },
		"unknown type":        func(in *ContractInput) { in.Type = "hybrid" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := valid()
			mutate(&in)
			_, err := f.contracts.Create(ctx, in)
			assert.ErrorIs(t, err, model.ErrValidation)
		})
	}

	t.Run("defaults", func(t *testing.T) {
		c, err := f.contracts.Create(ctx, valid())
		require.NoError(t, err)
		assert.Equal(t, model.ContractStatePending, c.State)
		assert.Equal(t, model.ContractTypeStandard, c.Type)
		assert.Equal(t, "Monday", c.DayOfWeek().String())
	})
}

func TestContractService_CommitTimeConflicts(t *testing.T) {
	ctx := context.Background()

	t.Run("same teacher overlapping slot is rejected", func(t *testing.T) {
		f := newFixture(t)
		first := f.mustCreate(t, weeklyInput(ptr(teacherAnna), d(t, "2024-01-01"), 2, hm(10, 0), hm(11, 0)))

		_, err := f.contracts.Create(ctx, weeklyInput(ptr(teacherAnna), d(t, "2024-01-15"), 2, hm(10, 30), hm(11, 30), 200))
		require.ErrorIs(t, err, model.ErrConflict)

		var conflict *model.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, []int64{first.ID}, conflict.ContractIDs)
	})

	t.Run("misaligned fortnightly series coexist", func(t *testing.T) {
		f := newFixture(t)
		f.mustCreate(t, weeklyInput(ptr(teacherAnna), d(t, "2024-01-01"), 2, hm(10, 0), hm(11, 0)))
		f.mustCreate(t, weeklyInput(ptr(teacherAnna), d(t, "2024-01-08"), 2, hm(10, 0), hm(11, 0), 200))
	})

	t.Run("wednesday weekly against every third week", func(t *testing.T) {
		f := newFixture(t)
		f.mustCreate(t, weeklyInput(ptr(teacherAnna), d(t, "2024-01-03"), 1, hm(14, 0), hm(15, 0)))
		_, err := f.contracts.Create(ctx, weeklyInput(ptr(teacherAnna), d(t, "2024-01-10"), 3, hm(14, 30), hm(15, 30), 200))
		assert.ErrorIs(t, err, model.ErrConflict)
	})

	t.Run("other teacher or declined contract does not block", func(t *testing.T) {
		f := newFixture(t)
		declined := weeklyInput(ptr(teacherAnna), d(t, "2024-01-01"), 1, hm(10, 0), hm(11, 0))
		declined.State = model.ContractStateDeclined
		f.mustCreate(t, declined)

		f.mustCreate(t, weeklyInput(ptr(teacherAnna), d(t, "2024-01-01"), 1, hm(10, 0), hm(11, 0), 200))
		f.mustCreate(t, weeklyInput(ptr(teacherBen), d(t, "2024-01-01"), 1, hm(10, 0), hm(11, 0), 300))
	})

	t.Run("unassigned contracts never conflict", func(t *testing.T) {
		f := newFixture(t)
		f.mustCreate(t, weeklyInput(nil, d(t, "2024-01-01"), 1, hm(10, 0), hm(11, 0)))
		f.mustCreate(t, weeklyInput(nil, d(t, "2024-01-01"), 1, hm(10, 0), hm(11, 0), 200))
	})

	t.Run("concurrent creates of one slot admit a single contract", func(t *testing.T) {
		f := newFixture(t)
		const workers = 20

		var (
			wg         sync.WaitGroup
			created    atomic.Int32
			conflicts  atomic.Int32
			unexpected = make(chan error, workers)
		)
		start := make(chan struct{})
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(customer int64) {
				defer wg.Done()
				<-start

				in := weeklyInput(ptr(teacherAnna), d(t, "2024-01-01"), 1, hm(10, 0), hm(11, 0), customer)
				in.State = model.ContractStateAccepted
				_, err := f.contracts.Create(ctx, in)
				switch {
				case err == nil:
					created.Add(1)
				case errors.Is(err, model.ErrConflict):
					conflicts.Add(1)
				default:
					unexpected <- err
				}
			}(int64(100 + i))
		}
		close(start)
		wg.Wait()
		close(unexpected)

		for err := range unexpected {
			t.Errorf("unexpected error: %v", err)
		}
		assert.EqualValues(t, 1, created.Load())
		assert.EqualValues(t, workers-1, conflicts.Load())

		stored, err := f.contracts.FindTeacherWeek(ctx, teacherAnna, d(t, "2024-01-01"))
		require.NoError(t, err)
		assert.Len(t, stored, 1)
	})

	t.Run("child shares the slot of its parent", func(t *testing.T) {
		f := newFixture(t)
		parent := f.mustCreate(t, weeklyInput(ptr(teacherAnna), d(t, "2024-01-01"), 1, hm(10, 0), hm(11, 0)))

		child := weeklyInput(ptr(teacherAnna), d(t, "2024-01-08"), 1, hm(10, 0), hm(11, 0))
		child.ParentID = &parent.ID
		created := f.mustCreate(t, child)

		got, err := f.contracts.Get(ctx, parent.ID)
		require.NoError(t, err)
		assert.Equal(t, []int64{created.ID}, got.ChildIDs)

		grandchild := weeklyInput(ptr(teacherBen), d(t, "2024-01-08"), 1, hm(10, 0), hm(11, 0))
		grandchild.ParentID = &created.ID
		_, err = f.contracts.Create(ctx, grandchild)
		assert.ErrorIs(t, err, model.ErrValidation)
	})
}

func TestContractService_Update(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.mustCreate(t, weeklyInput(ptr(teacherAnna), d(t, "2024-01-01"), 1, hm(10, 0), hm(11, 0)))
	other := f.mustCreate(t, weeklyInput(ptr(teacherAnna), d(t, "2024-01-01"), 1, hm(12, 0), hm(13, 0), 200))

	t.Run("moving within its own slot does not conflict with itself", func(t *testing.T) {
		updated, err := f.contracts.Update(ctx, c.ID, ContractPatch{EndTime: ptr(hm(11, 30))})
		require.NoError(t, err)
		assert.Equal(t, hm(11, 30), updated.EndTime)
	})

	t.Run("moving onto another contract is rejected", func(t *testing.T) {
		_, err := f.contracts.Update(ctx, c.ID, ContractPatch{StartTime: ptr(hm(12, 30)), EndTime: ptr(hm(13, 30))})
		assert.ErrorIs(t, err, model.ErrConflict)
	})

	t.Run("invalid patch", func(t *testing.T) {
		_, err := f.contracts.Update(ctx, c.ID, ContractPatch{IntervalWeeks: ptr(0)})
		assert.ErrorIs(t, err, model.ErrValidation)
	})

	t.Run("declined contract frees the slot", func(t *testing.T) {
		_, err := f.contracts.Decline(ctx, other.ID)
		require.NoError(t, err)

		_, err = f.contracts.Update(ctx, c.ID, ContractPatch{StartTime: ptr(hm(12, 30)), EndTime: ptr(hm(13, 30))})
		require.NoError(t, err)
	})

	t.Run("accept and clear teacher", func(t *testing.T) {
		accepted, err := f.contracts.Accept(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ContractStateAccepted, accepted.State)

		cleared, err := f.contracts.Update(ctx, c.ID, ContractPatch{ClearTeacher: true})
		require.NoError(t, err)
		assert.False(t, cleared.HasTeacher())
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := f.contracts.Accept(ctx, 999)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestContractService_UpdatePrunesLessons(t *testing.T) {
	ctx := context.Background()

	hold := func(t *testing.T, f *fixture, contractID int64, dates ...string) {
		t.Helper()
		for _, date := range dates {
			_, err := f.lessons.SetState(ctx, LessonUpdate{ContractID: contractID, Date: d(t, date), State: model.LessonStateHeld})
			require.NoError(t, err)
		}
	}
	storedDates := func(t *testing.T, f *fixture, contractID int64) []time.Time {
		t.Helper()
		stored, err := f.store.Lessons().ListByContracts(ctx, []int64{contractID}, d(t, "2000-01-01"), d(t, "2100-01-01"))
		require.NoError(t, err)
		dates := make([]time.Time, 0, len(stored))
		for _, l := range stored {
			dates = append(dates, l.Date)
		}
		return dates
	}

	t.Run("earlier end date drops lessons past it", func(t *testing.T) {
		f := newFixture(t)
		c := f.mustCreate(t, weeklyInput(ptr(teacherAnna), d(t, "2024-01-01"), 1, hm(10, 0), hm(11, 0)))
		hold(t, f, c.ID, "2024-01-08", "2024-01-15")

		_, err := f.contracts.Update(ctx, c.ID, ContractPatch{EndDate: ptr(d(t, "2024-01-08"))})
		require.NoError(t, err)

		gone, err := f.store.Lessons().Get(ctx, c.ID, d(t, "2024-01-15"))
		require.NoError(t, err)
		assert.Nil(t, gone)
		assert.Equal(t, []time.Time{d(t, "2024-01-08")}, storedDates(t, f, c.ID))
	})

	t.Run("wider interval drops off-cycle lessons", func(t *testing.T) {
		f := newFixture(t)
		c := f.mustCreate(t, weeklyInput(ptr(teacherAnna), d(t, "2024-01-01"), 1, hm(10, 0), hm(11, 0)))
		hold(t, f, c.ID, "2024-01-01", "2024-01-08", "2024-01-15")

		_, err := f.contracts.Update(ctx, c.ID, ContractPatch{IntervalWeeks: ptr(2)})
		require.NoError(t, err)
		assert.Equal(t, []time.Time{d(t, "2024-01-01"), d(t, "2024-01-15")}, storedDates(t, f, c.ID))
	})

	t.Run("later start date drops lessons before it", func(t *testing.T) {
		f := newFixture(t)
		c := f.mustCreate(t, weeklyInput(ptr(teacherAnna), d(t, "2024-01-01"), 1, hm(10, 0), hm(11, 0)))
		hold(t, f, c.ID, "2024-01-01", "2024-01-15")

		_, err := f.contracts.Update(ctx, c.ID, ContractPatch{StartDate: ptr(d(t, "2024-01-08"))})
		require.NoError(t, err)
		assert.Equal(t, []time.Time{d(t, "2024-01-15")}, storedDates(t, f, c.ID))
	})

	t.Run("time change keeps lessons", func(t *testing.T) {
		f := newFixture(t)
		c := f.mustCreate(t, weeklyInput(ptr(teacherAnna), d(t, "2024-01-01"), 1, hm(10, 0), hm(11, 0)))
		hold(t, f, c.ID, "2024-01-01", "2024-01-08")

		_, err := f.contracts.Update(ctx, c.ID, ContractPatch{EndTime: ptr(hm(11, 30))})
		require.NoError(t, err)
		assert.Len(t, storedDates(t, f, c.ID), 2)
	})

	t.Run("rejected patch keeps lessons", func(t *testing.T) {
		f := newFixture(t)
		c := f.mustCreate(t, weeklyInput(ptr(teacherAnna), d(t, "2024-01-01"), 1, hm(10, 0), hm(11, 0)))
		hold(t, f, c.ID, "2024-01-08", "2024-01-15")

		_, err := f.contracts.Update(ctx, c.ID, ContractPatch{EndDate: ptr(d(t, "2024-01-08")), IntervalWeeks: ptr(0)})
		require.ErrorIs(t, err, model.ErrValidation)
		assert.Len(t, storedDates(t, f, c.ID), 2)
	})
}

func TestContractService_End(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.mustCreate(t, weeklyInput(ptr(teacherAnna), d(t, "2024-01-01"), 1, hm(10, 0), hm(11, 0)))
	for _, date := range []string{"2024-01-01", "2024-01-08", "2024-01-15"} {
		_, err := f.lessons.SetState(ctx, LessonUpdate{ContractID: c.ID, Date: d(t, date), State: model.LessonStateHeld})
		require.NoError(t, err)
	}

	_, err := f.contracts.End(ctx, c.ID, d(t, "2023-12-01"))
	assert.ErrorIs(t, err, model.ErrValidation)

	ended, err := f.contracts.End(ctx, c.ID, d(t, "2024-01-08"))
	require.NoError(t, err)
	require.NotNil(t, ended.EndDate)
	assert.Equal(t, d(t, "2024-01-08"), *ended.EndDate)

	kept, err := f.store.Lessons().ListByContracts(ctx, []int64{c.ID}, d(t, "2024-01-01"), d(t, "2024-12-31"))
	require.NoError(t, err)
	require.Len(t, kept, 2)
	assert.Equal(t, d(t, "2024-01-08"), kept[1].Date)

	week, err := f.contracts.FindByWeek(ctx, d(t, "2024-01-15"))
	require.NoError(t, err)
	assert.Empty(t, week)
}

func TestContractService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("live child blocks deletion", func(t *testing.T) {
		f := newFixture(t)
		parent := f.mustCreate(t, weeklyInput(ptr(teacherAnna), d(t, "2024-01-01"), 1, hm(10, 0), hm(11, 0)))
		childIn := weeklyInput(ptr(teacherBen), d(t, "2024-01-08"), 1, hm(10, 0), hm(11, 0))
		childIn.ParentID = &parent.ID
		child := f.mustCreate(t, childIn)

		err := f.contracts.Delete(ctx, parent.ID, false)
		require.ErrorIs(t, err, model.ErrConflict)

		var conflict *model.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, []int64{child.ID}, conflict.ContractIDs)

		require.NoError(t, f.contracts.Delete(ctx, parent.ID, true))

		detached, err := f.contracts.Get(ctx, child.ID)
		require.NoError(t, err)
		assert.Nil(t, detached.ParentID)

		_, err = f.contracts.Get(ctx, parent.ID)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("ended or declined children do not block", func(t *testing.T) {
		f := newFixture(t)
		f.clock.Set(d(t, "2024-03-01"))

		parent := f.mustCreate(t, weeklyInput(ptr(teacherAnna), d(t, "2024-01-01"), 1, hm(10, 0), hm(11, 0)))
		ended := weeklyInput(ptr(teacherBen), d(t, "2024-01-08"), 1, hm(10, 0), hm(11, 0))
		ended.ParentID = &parent.ID
		ended.EndDate = ptr(d(t, "2024-01-19"))
		f.mustCreate(t, ended)

		declined := weeklyInput(ptr(teacherBen), d(t, "2024-03-04"), 1, hm(10, 0), hm(11, 0))
		declined.ParentID = &parent.ID
		declined.State = model.ContractStateDeclined
		f.mustCreate(t, declined)

		require.NoError(t, f.contracts.Delete(ctx, parent.ID, false))
	})

	t.Run("lessons cascade", func(t *testing.T) {
		f := newFixture(t)
		c := f.mustCreate(t, weeklyInput(ptr(teacherAnna), d(t, "2024-01-01"), 1, hm(10, 0), hm(11, 0)))
		_, err := f.lessons.SetState(ctx, LessonUpdate{ContractID: c.ID, Date: d(t, "2024-01-01"), State: model.LessonStateHeld})
		require.NoError(t, err)

		require.NoError(t, f.contracts.Delete(ctx, c.ID, false))

		lesson, err := f.store.Lessons().Get(ctx, c.ID, d(t, "2024-01-01"))
		require.NoError(t, err)
		assert.Nil(t, lesson)
	})

	t.Run("unknown id", func(t *testing.T) {
		f := newFixture(t)
		assert.ErrorIs(t, f.contracts.Delete(ctx, 42, false), model.ErrNotFound)
	})
}

func TestContractService_FindByWeek(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	fortnightly := f.mustCreate(t, weeklyInput(ptr(teacherAnna), d(t, "2024-01-01"), 2, hm(10, 0), hm(11, 0)))
	declined := weeklyInput(ptr(teacherBen), d(t, "2024-01-03"), 1, hm(10, 0), hm(11, 0))
	declined.State = model.ContractStateDeclined
	f.mustCreate(t, declined)

	t.Run("week with an occurrence", func(t *testing.T) {
		week, err := f.contracts.FindByWeek(ctx, d(t, "2024-01-17"))
		require.NoError(t, err)
		require.Len(t, week, 1)
		assert.Equal(t, fortnightly.ID, week[0].Contract.ID)
		require.Len(t, week[0].Occurrences, 1)
		assert.Equal(t, d(t, "2024-01-15"), week[0].Occurrences[0].Date)
		assert.False(t, week[0].Occurrences[0].Blocked)
	})

	t.Run("off week", func(t *testing.T) {
		week, err := f.contracts.FindByWeek(ctx, d(t, "2024-01-08"))
		require.NoError(t, err)
		assert.Empty(t, week)
	})

	t.Run("accepted leave marks the date blocked", func(t *testing.T) {
		f.acceptedLeave(t, teacherAnna, d(t, "2024-01-15"), d(t, "2024-01-15"))

		week, err := f.contracts.FindByWeek(ctx, d(t, "2024-01-15"))
		require.NoError(t, err)
		require.Len(t, week, 1)
		assert.True(t, week[0].Occurrences[0].Blocked)

		teacherWeek, err := f.contracts.FindTeacherWeek(ctx, teacherBen, d(t, "2024-01-15"))
		require.NoError(t, err)
		assert.Empty(t, teacherWeek)
	})
}
