package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/contract_scheduler/internal/clock"
	"github.com/Freeeeeet/contract_scheduler/internal/directory"
	"github.com/Freeeeeet/contract_scheduler/internal/model"
	"github.com/Freeeeeet/contract_scheduler/internal/recurrence"
	"github.com/Freeeeeet/contract_scheduler/internal/repository"
	"go.uber.org/zap"
)

// ContractInput данные нового контракта
type ContractInput struct {
	SubjectID     int64
	CustomerIDs   []int64
	TeacherID     *int64
	State         model.ContractState // пусто = pending
	Type          model.ContractType  // пусто = standard
	StartDate     time.Time
	EndDate       *time.Time
	IntervalWeeks int
	StartTime     model.TimeOfDay
	EndTime       model.TimeOfDay
	ParentID      *int64
}

// ContractPatch частичное изменение; nil-поля не меняются
type ContractPatch struct {
	SubjectID     *int64
	CustomerIDs   []int64
	TeacherID     *int64
	ClearTeacher  bool
	State         *model.ContractState
	Type          *model.ContractType
	StartDate     *time.Time
	EndDate       *time.Time
	ClearEndDate  bool
	IntervalWeeks *int
	StartTime     *model.TimeOfDay
	EndTime       *model.TimeOfDay
}

// MaxIntervalWeeks наибольший интервал между занятиями, раз в год
const MaxIntervalWeeks = 52

// ContractService хранение контрактов с проверкой инвариантов и конфликтов
type ContractService struct {
	store    repository.Store
	dir      directory.Directory
	detector *recurrence.Detector
	clock    clock.Clock
	logger   *zap.Logger
}

func NewContractService(
	store repository.Store,
	dir directory.Directory,
	detector *recurrence.Detector,
	clk clock.Clock,
	logger *zap.Logger,
) *ContractService {
	return &ContractService{
		store:    store,
		dir:      dir,
		detector: detector,
		clock:    clk,
		logger:   logger,
	}
}

// Create проверяет инварианты и в сериализуемой транзакции ищет жёсткие конфликты учителя
func (s *ContractService) Create(ctx context.Context, input ContractInput) (*model.Contract, error) {
	contract := &model.Contract{
		SubjectID:     input.SubjectID,
		CustomerIDs:   append([]int64(nil), input.CustomerIDs...),
		TeacherID:     input.TeacherID,
		State:         input.State,
		Type:          input.Type,
		StartDate:     clock.DateOf(input.StartDate),
		IntervalWeeks: input.IntervalWeeks,
		StartTime:     input.StartTime,
		EndTime:       input.EndTime,
		ParentID:      input.ParentID,
	}
	if input.EndDate != nil {
		contract.EndDate = timePtr(clock.DateOf(*input.EndDate))
	}
	if contract.State == "" {
		contract.State = model.ContractStatePending
	}
	if contract.Type == "" {
		contract.Type = model.ContractTypeStandard
	}

	err := s.store.Serializable(ctx, func(tx repository.Store) error {
		if err := s.validate(ctx, tx, contract); err != nil {
			return err
		}
		if err := s.checkConflicts(ctx, tx, contract); err != nil {
			return err
		}
		return tx.Contracts().Create(ctx, contract)
	})
	if err != nil {
		s.logger.Warn("Contract rejected",
			zap.Int64("subject_id", contract.SubjectID),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Contract created",
		zap.Int64("contract_id", contract.ID),
		zap.Int64("subject_id", contract.SubjectID),
		zap.Int64s("customer_ids", contract.CustomerIDs),
		zap.String("state", string(contract.State)),
		zap.String("day_of_week", contract.DayOfWeek().String()))

	return contract, nil
}

// Update применяет патч и заново проверяет инварианты и конфликты.
// Если патч меняет даты или интервал, записи занятий вне нового ряда удаляются.
func (s *ContractService) Update(ctx context.Context, id int64, patch ContractPatch) (*model.Contract, error) {
	var (
		contract *model.Contract
		removed  int64
	)

	err := s.store.Serializable(ctx, func(tx repository.Store) error {
		current, err := tx.Contracts().GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("get contract: %w", err)
		}
		if current == nil {
			return &model.NotFoundError{Entity: "contract", ID: id}
		}

		contract = current.Clone()
		applyPatch(contract, patch)

		if err := s.validate(ctx, tx, contract); err != nil {
			return err
		}
		if err := s.checkConflicts(ctx, tx, contract); err != nil {
			return err
		}
		if err := tx.Contracts().Update(ctx, contract); err != nil {
			return err
		}

		if !patch.reshapes() {
			return nil
		}
		removed, err = pruneLessons(ctx, tx, contract)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Contract updated",
		zap.Int64("contract_id", contract.ID),
		zap.String("state", string(contract.State)),
		zap.Int64("removed_lessons", removed))

	return contract, nil
}

// Accept подтверждает контракт
func (s *ContractService) Accept(ctx context.Context, id int64) (*model.Contract, error) {
	state := model.ContractStateAccepted
	return s.Update(ctx, id, ContractPatch{State: &state})
}

// Decline отклоняет контракт
func (s *ContractService) Decline(ctx context.Context, id int64) (*model.Contract, error) {
	state := model.ContractStateDeclined
	return s.Update(ctx, id, ContractPatch{State: &state})
}

// End мягко завершает контракт: занятия до endDate сохраняются, записи после удаляются
func (s *ContractService) End(ctx context.Context, id int64, endDate time.Time) (*model.Contract, error) {
	endDate = clock.DateOf(endDate)
	var (
		contract *model.Contract
		removed  int64
	)

	err := s.store.Serializable(ctx, func(tx repository.Store) error {
		current, err := tx.Contracts().GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("get contract: %w", err)
		}
		if current == nil {
			return &model.NotFoundError{Entity: "contract", ID: id}
		}
		if endDate.Before(current.StartDate) {
			return model.NewValidationError("end_date", "must not be before start_date")
		}

		contract = current
		contract.EndDate = &endDate
		if err := tx.Contracts().Update(ctx, contract); err != nil {
			return err
		}

		removed, err = tx.Lessons().DeleteAfter(ctx, id, endDate)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Contract ended",
		zap.Int64("contract_id", id),
		zap.Time("end_date", endDate),
		zap.Int64("removed_lessons", removed))

	return contract, nil
}

// Delete удаляет контракт. Если есть действующие замены, удаление блокируется,
// пока вызывающий явно не попросит отвязать их (detach).
func (s *ContractService) Delete(ctx context.Context, id int64, detach bool) error {
	today := clock.Today(s.clock)

	err := s.store.Serializable(ctx, func(tx repository.Store) error {
		current, err := tx.Contracts().GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("get contract: %w", err)
		}
		if current == nil {
			return &model.NotFoundError{Entity: "contract", ID: id}
		}

		children, err := tx.Contracts().Find(ctx, repository.ContractFilter{ParentID: &id})
		if err != nil {
			return fmt.Errorf("find child contracts: %w", err)
		}

		var live []int64
		for _, child := range children {
			if child.LiveOn(today) {
				live = append(live, child.ID)
			}
		}
		if len(live) > 0 && !detach {
			return &model.ConflictError{Reason: "contract has live substitute contracts", ContractIDs: live}
		}

		if detach {
			if _, err := tx.Contracts().DetachChildren(ctx, id); err != nil {
				return err
			}
		}

		if _, err := tx.Contracts().Delete(ctx, id); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Contract deleted", zap.Int64("contract_id", id), zap.Bool("detached_children", detach))
	return nil
}

// Get получает контракт по ID
func (s *ContractService) Get(ctx context.Context, id int64) (*model.Contract, error) {
	contract, err := s.store.Contracts().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get contract: %w", err)
	}
	if contract == nil {
		return nil, &model.NotFoundError{Entity: "contract", ID: id}
	}
	return contract, nil
}

// FindByWeek контракты с хотя бы одним занятием в Пн–Пт недели, содержащей weekStart.
// Отклонённые контракты не показываются. Каждая дата помечена blocked по отпускам.
func (s *ContractService) FindByWeek(ctx context.Context, weekStart time.Time) ([]model.WeekContract, error) {
	return s.findWeek(ctx, weekStart, nil)
}

// FindTeacherWeek то же, что FindByWeek, только для одного учителя
func (s *ContractService) FindTeacherWeek(ctx context.Context, teacherID int64, weekStart time.Time) ([]model.WeekContract, error) {
	return s.findWeek(ctx, weekStart, &teacherID)
}

func (s *ContractService) findWeek(ctx context.Context, weekStart time.Time, teacherID *int64) ([]model.WeekContract, error) {
	monday, friday := weekBounds(weekStart)

	contracts, err := s.store.Contracts().Find(ctx, repository.ContractFilter{
		TeacherID:  teacherID,
		States:     model.OccupyingStates,
		ActiveFrom: timePtr(monday.Time()),
		ActiveTo:   timePtr(friday.Time()),
	})
	if err != nil {
		return nil, fmt.Errorf("find week contracts: %w", err)
	}

	leaves, err := loadLeaveIndex(ctx, s.store.Leaves(), teacherIDsOf(contracts), monday, friday)
	if err != nil {
		return nil, err
	}

	week := make([]model.WeekContract, 0, len(contracts))
	for _, c := range contracts {
		days := recurrence.Between(seriesOf(c), monday, friday)
		if len(days) == 0 {
			continue
		}

		wc := model.WeekContract{Contract: c}
		for _, day := range days {
			wc.Occurrences = append(wc.Occurrences, model.WeekOccurrence{
				Date:    day.Time(),
				Blocked: leaves.Blocks(c.TeacherID, day),
			})
		}
		week = append(week, wc)
	}

	return week, nil
}

// validate проверяет инварианты контракта до записи
func (s *ContractService) validate(ctx context.Context, tx repository.Store, c *model.Contract) error {
	if len(c.CustomerIDs) == 0 {
		return model.NewValidationError("customer_ids", "must not be empty")
	}
	seen := make(map[int64]struct{}, len(c.CustomerIDs))
	for _, id := range c.CustomerIDs {
		if id <= 0 {
			return model.NewValidationError("customer_ids", "ids must be positive")
		}
		if _, dup := seen[id]; dup {
			return model.NewValidationError("customer_ids", fmt.Sprintf("duplicate customer %d", id))
		}
		seen[id] = struct{}{}
	}

	if c.IntervalWeeks < 1 || c.IntervalWeeks > MaxIntervalWeeks {
		return model.NewValidationError("interval_weeks", fmt.Sprintf("must be between 1 and %d", MaxIntervalWeeks))
	}
	if !c.StartTime.Valid() || !c.EndTime.Valid() {
		return model.NewValidationError("start_time", "times must be within 00:00-24:00")
	}
	if c.EndTime <= c.StartTime {
		return model.NewValidationError("end_time", "must be after start_time")
	}
	if c.StartDate.IsZero() {
		return model.NewValidationError("start_date", "is required")
	}
	if c.EndDate != nil && c.EndDate.Before(c.StartDate) {
		return model.NewValidationError("end_date", "must not be before start_date")
	}
	if !recurrence.IsWorkday(c.DayOfWeek()) {
		return model.NewValidationError("start_date", "must fall on Monday to Friday")
	}
	if !c.State.Valid() {
		return model.NewValidationError("state", fmt.Sprintf("unknown state %q", c.State))
	}
	if !c.Type.Valid() {
		return model.NewValidationError("contract_type", fmt.Sprintf("unknown type %q", c.Type))
	}

	subject, err := s.dir.GetSubject(ctx, c.SubjectID)
	if err != nil {
		return fmt.Errorf("get subject: %w", err)
	}
	if subject == nil {
		return model.NewValidationError("subject_id", fmt.Sprintf("unknown subject %d", c.SubjectID))
	}

	if c.TeacherID != nil {
		teacher, err := s.dir.GetTeacher(ctx, *c.TeacherID)
		if err != nil {
			return fmt.Errorf("get teacher: %w", err)
		}
		if teacher == nil {
			return model.NewValidationError("teacher_id", fmt.Sprintf("unknown teacher %d", *c.TeacherID))
		}
	}

	if c.ParentID != nil {
		if c.ID != 0 && *c.ParentID == c.ID {
			return model.NewValidationError("parent_contract_id", "contract cannot be its own parent")
		}
		parent, err := tx.Contracts().GetByID(ctx, *c.ParentID)
		if err != nil {
			return fmt.Errorf("get parent contract: %w", err)
		}
		if parent == nil {
			return model.NewValidationError("parent_contract_id", fmt.Sprintf("unknown contract %d", *c.ParentID))
		}
		// цепочка неглубокая: родитель сам не может быть заменой
		if parent.ParentID != nil {
			return model.NewValidationError("parent_contract_id", "parent is itself a substitute")
		}
	}

	return nil
}

// checkConflicts ищет жёсткие конфликты с pending/accepted контрактами того же учителя
func (s *ContractService) checkConflicts(ctx context.Context, tx repository.Store, c *model.Contract) error {
	if c.TeacherID == nil || !c.State.Occupies() {
		return nil
	}

	filter := repository.ContractFilter{
		TeacherID:  c.TeacherID,
		States:     model.OccupyingStates,
		ActiveFrom: timePtr(c.StartDate),
		ActiveTo:   c.EndDate,
	}
	if c.ID != 0 {
		filter.ExcludeIDs = []int64{c.ID}
	}

	existing, err := tx.Contracts().Find(ctx, filter)
	if err != nil {
		return fmt.Errorf("find teacher contracts: %w", err)
	}

	candidate := seriesOf(c)
	var conflicting []int64
	for _, other := range existing {
		if s.detector.Conflicts(candidate, seriesOf(other)) {
			conflicting = append(conflicting, other.ID)
		}
	}

	if len(conflicting) > 0 {
		return &model.ConflictError{Reason: "teacher already has a lesson at this time", ContractIDs: conflicting}
	}
	return nil
}

// reshapes сообщает, меняет ли патч набор дат занятий
func (p ContractPatch) reshapes() bool {
	return p.StartDate != nil || p.EndDate != nil || p.ClearEndDate || p.IntervalWeeks != nil
}

var (
	minLessonDate = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	maxLessonDate = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
)

// pruneLessons удаляет записи занятий на даты, которые больше не входят в ряд контракта
func pruneLessons(ctx context.Context, tx repository.Store, c *model.Contract) (int64, error) {
	stored, err := tx.Lessons().ListByContracts(ctx, []int64{c.ID}, minLessonDate, maxLessonDate)
	if err != nil {
		return 0, fmt.Errorf("list contract lessons: %w", err)
	}

	series := seriesOf(c)
	var stale []time.Time
	for _, l := range stored {
		if !recurrence.Occurs(series, recurrence.DayOf(l.Date)) {
			stale = append(stale, l.Date)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	removed, err := tx.Lessons().Delete(ctx, c.ID, stale)
	if err != nil {
		return 0, fmt.Errorf("delete stale lessons: %w", err)
	}
	return removed, nil
}

func applyPatch(c *model.Contract, p ContractPatch) {
	if p.SubjectID != nil {
		c.SubjectID = *p.SubjectID
	}
	if p.CustomerIDs != nil {
		c.CustomerIDs = append([]int64(nil), p.CustomerIDs...)
	}
	if p.ClearTeacher {
		c.TeacherID = nil
	} else if p.TeacherID != nil {
		id := *p.TeacherID
		c.TeacherID = &id
	}
	if p.State != nil {
		c.State = *p.State
	}
	if p.Type != nil {
		c.Type = *p.Type
	}
	if p.StartDate != nil {
		c.StartDate = clock.DateOf(*p.StartDate)
	}
	if p.ClearEndDate {
		c.EndDate = nil
	} else if p.EndDate != nil {
		c.EndDate = timePtr(clock.DateOf(*p.EndDate))
	}
	if p.IntervalWeeks != nil {
		c.IntervalWeeks = *p.IntervalWeeks
	}
	if p.StartTime != nil {
		c.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		c.EndTime = *p.EndTime
	}
}
