package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Freeeeeet/contract_scheduler/internal/clock"
	"github.com/Freeeeeet/contract_scheduler/internal/model"
	"github.com/Freeeeeet/contract_scheduler/internal/recurrence"
	"github.com/Freeeeeet/contract_scheduler/internal/repository"
	"go.uber.org/zap"
)

// LessonUpdate смена состояния занятия контракта в конкретную дату
type LessonUpdate struct {
	ContractID int64
	Date       time.Time
	State      model.LessonState
	Notes      string
}

// LessonService разворачивает контракты в конкретные занятия недели.
// blocked всегда вычисляется по текущим подтверждённым отпускам и в БД не пишется.
type LessonService struct {
	store     repository.Store
	contracts *ContractService
	logger    *zap.Logger
}

func NewLessonService(store repository.Store, contracts *ContractService, logger *zap.Logger) *LessonService {
	return &LessonService{store: store, contracts: contracts, logger: logger}
}

// Materialize возвращает занятия контрактов в Пн–Пт недели weekOf:
// записанное состояние, если оно есть, иначе синтезированный idle
func (s *LessonService) Materialize(ctx context.Context, contracts []*model.Contract, weekOf time.Time) ([]*model.Lesson, error) {
	monday, friday := weekBounds(weekOf)
	if len(contracts) == 0 {
		return []*model.Lesson{}, nil
	}

	ids := make([]int64, 0, len(contracts))
	for _, c := range contracts {
		ids = append(ids, c.ID)
	}

	stored, err := s.store.Lessons().ListByContracts(ctx, ids, monday.Time(), friday.Time())
	if err != nil {
		return nil, fmt.Errorf("list stored lessons: %w", err)
	}
	type key struct {
		contractID int64
		day        recurrence.Day
	}
	overrides := make(map[key]*model.Lesson, len(stored))
	for _, l := range stored {
		overrides[key{l.ContractID, recurrence.DayOf(l.Date)}] = l
	}

	leaves, err := loadLeaveIndex(ctx, s.store.Leaves(), teacherIDsOf(contracts), monday, friday)
	if err != nil {
		return nil, err
	}

	type ordered struct {
		lesson *model.Lesson
		start  model.TimeOfDay
	}
	var out []ordered
	for _, c := range contracts {
		for _, day := range recurrence.Between(seriesOf(c), monday, friday) {
			lesson, ok := overrides[key{c.ID, day}]
			if !ok {
				lesson = &model.Lesson{ContractID: c.ID, Date: day.Time(), State: model.LessonStateIdle}
			}
			lesson.Blocked = leaves.Blocks(c.TeacherID, day)
			out = append(out, ordered{lesson: lesson, start: c.StartTime})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.lesson.Date.Equal(b.lesson.Date) {
			return a.lesson.Date.Before(b.lesson.Date)
		}
		if a.start != b.start {
			return a.start < b.start
		}
		return a.lesson.ContractID < b.lesson.ContractID
	})

	lessons := make([]*model.Lesson, 0, len(out))
	for _, o := range out {
		lessons = append(lessons, o.lesson)
	}
	return lessons, nil
}

// Week неделя целиком: контракты с датами и занятия
func (s *LessonService) Week(ctx context.Context, of time.Time) (*model.WeekView, error) {
	week, err := s.contracts.FindByWeek(ctx, of)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, of, week)
}

// TeacherWeek неделя одного учителя (для бота и картинки)
func (s *LessonService) TeacherWeek(ctx context.Context, teacherID int64, of time.Time) (*model.WeekView, error) {
	week, err := s.contracts.FindTeacherWeek(ctx, teacherID, of)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, of, week)
}

func (s *LessonService) view(ctx context.Context, of time.Time, week []model.WeekContract) (*model.WeekView, error) {
	monday, friday := weekBounds(of)

	contracts := make([]*model.Contract, 0, len(week))
	for _, wc := range week {
		contracts = append(contracts, wc.Contract)
	}

	lessons, err := s.Materialize(ctx, contracts, of)
	if err != nil {
		return nil, err
	}

	return &model.WeekView{
		WeekStart: monday.Time(),
		WeekEnd:   friday.Time(),
		Contracts: week,
		Lessons:   lessons,
	}, nil
}

// SetState записывает состояние занятия (upsert по контракту и дате).
// Переходы между idle/held/cancelled разрешены любые, кроме занятий в отпуске учителя.
func (s *LessonService) SetState(ctx context.Context, update LessonUpdate) (*model.Lesson, error) {
	if !update.State.Valid() {
		return nil, model.NewValidationError("state", fmt.Sprintf("unknown lesson state %q", update.State))
	}
	date := clock.DateOf(update.Date)
	day := recurrence.DayOf(date)

	lesson := &model.Lesson{
		ContractID: update.ContractID,
		Date:       date,
		State:      update.State,
		Notes:      update.Notes,
	}

	err := s.store.Serializable(ctx, func(tx repository.Store) error {
		contract, err := tx.Contracts().GetByID(ctx, update.ContractID)
		if err != nil {
			return fmt.Errorf("get contract: %w", err)
		}
		if contract == nil {
			return &model.NotFoundError{Entity: "contract", ID: update.ContractID}
		}

		if !recurrence.Occurs(seriesOf(contract), day) {
			return model.NewValidationError("date",
				fmt.Sprintf("%s is not an occurrence of contract %d", day, contract.ID))
		}

		if contract.TeacherID != nil {
			leaves, err := loadLeaveIndex(ctx, tx.Leaves(), []int64{*contract.TeacherID}, day, day)
			if err != nil {
				return err
			}
			if leaves.Blocks(contract.TeacherID, day) {
				return &model.BlockedMutationError{ContractID: contract.ID, Date: date}
			}
		}

		return tx.Lessons().Upsert(ctx, lesson)
	})
	if err != nil {
		s.logger.Warn("Lesson state change rejected",
			zap.Int64("contract_id", update.ContractID),
			zap.Time("date", date),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Lesson state changed",
		zap.Int64("lesson_id", lesson.ID),
		zap.Int64("contract_id", lesson.ContractID),
		zap.Time("date", date),
		zap.String("state", string(lesson.State)))

	return lesson, nil
}
