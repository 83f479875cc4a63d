// week_image рисует демонстрационное расписание недели в week.png
// без базы данных: контракты живут в памяти.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Freeeeeet/contract_scheduler/internal/clock"
	"github.com/Freeeeeet/contract_scheduler/internal/directory"
	"github.com/Freeeeeet/contract_scheduler/internal/model"
	"github.com/Freeeeeet/contract_scheduler/internal/recurrence"
	"github.com/Freeeeeet/contract_scheduler/internal/render"
	"github.com/Freeeeeet/contract_scheduler/internal/repository/memory"
	"github.com/Freeeeeet/contract_scheduler/internal/service"
	"github.com/fatih/color"
	"go.uber.org/zap"
)

const teacherID int64 = 1

func main() {
	if err := run(context.Background(), "week.png"); err != nil {
		color.Red("✗ %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, filename string) error {
	logger := zap.NewNop()
	clk := clock.RealClock{}
	monday := recurrence.DayOf(clock.Today(clk)).Monday()

	dir := directory.NewStatic().
		AddSubject(model.Subject{ID: 1, Name: "Математика", Color: "#E57373", ShortForm: "МА"}).
		AddSubject(model.Subject{ID: 2, Name: "Физика", Color: "#64B5F6", ShortForm: "ФИ"}).
		AddSubject(model.Subject{ID: 3, Name: "Английский", Color: "#81C784", ShortForm: "EN"}).
		AddTeacher(model.Teacher{ID: teacherID, Name: "Демо", SubjectIDs: []int64{1, 2, 3}, EmploymentState: model.EmploymentEmployed})

	store := memory.NewStore()
	detector := recurrence.NewDetector(recurrence.DefaultHorizonDays)
	contracts := service.NewContractService(store, dir, detector, clk, logger)
	lessons := service.NewLessonService(store, contracts, logger)
	leaves := service.NewLeaveService(store, dir, logger)

	teacher := teacherID
	demo := []struct {
		subject int64
		day     int
		start   model.TimeOfDay
		end     model.TimeOfDay
	}{
		{1, 0, model.NewTimeOfDay(9, 0), model.NewTimeOfDay(10, 0)},
		{2, 0, model.NewTimeOfDay(14, 0), model.NewTimeOfDay(15, 30)},
		{3, 1, model.NewTimeOfDay(10, 0), model.NewTimeOfDay(11, 0)},
		{1, 2, model.NewTimeOfDay(15, 0), model.NewTimeOfDay(16, 0)},
		{2, 3, model.NewTimeOfDay(12, 0), model.NewTimeOfDay(13, 0)},
		{3, 4, model.NewTimeOfDay(11, 0), model.NewTimeOfDay(12, 0)},
	}

	created := make([]*model.Contract, 0, len(demo))
	for i, d := range demo {
		c, err := contracts.Create(ctx, service.ContractInput{
			SubjectID:     d.subject,
			CustomerIDs:   []int64{int64(100 + i)},
			TeacherID:     &teacher,
			State:         model.ContractStateAccepted,
			StartDate:     monday.AddDays(d.day).Time(),
			IntervalWeeks: 1,
			StartTime:     d.start,
			EndTime:       d.end,
		})
		if err != nil {
			return fmt.Errorf("create demo contract: %w", err)
		}
		created = append(created, c)
	}

	// Понедельник: одно занятие проведено, одно отменено
	for i, state := range []model.LessonState{model.LessonStateHeld, model.LessonStateCancelled} {
		if _, err := lessons.SetState(ctx, service.LessonUpdate{
			ContractID: created[i].ID,
			Date:       monday.Time(),
			State:      state,
		}); err != nil {
			return fmt.Errorf("set demo lesson state: %w", err)
		}
	}

	// Пятница под отпуском
	leave, err := leaves.Create(ctx, service.LeaveInput{
		TeacherID: teacherID,
		Type:      model.LeaveTypeRegular,
		StartDate: monday.Friday().Time(),
		EndDate:   monday.Friday().Time(),
	})
	if err != nil {
		return fmt.Errorf("create demo leave: %w", err)
	}
	if _, err := leaves.Approve(ctx, leave.ID); err != nil {
		return fmt.Errorf("approve demo leave: %w", err)
	}

	view, err := lessons.TeacherWeek(ctx, teacherID, monday.Time())
	if err != nil {
		return err
	}

	subjects := make(map[int64]model.Subject)
	for _, id := range []int64{1, 2, 3} {
		s, err := dir.GetSubject(ctx, id)
		if err != nil {
			return err
		}
		subjects[id] = *s
	}

	data, err := render.WeekImage{View: view, Subjects: subjects, Now: time.Now()}.Render()
	if err != nil {
		return fmt.Errorf("render week: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("save image: %w", err)
	}

	color.Green("✓ Изображение сохранено в %s", filename)
	fmt.Printf("Период: %s – %s, занятий: %d\n",
		view.WeekStart.Format("02.01.2006"), view.WeekEnd.Format("02.01.2006"), len(view.Lessons))
	return nil
}
