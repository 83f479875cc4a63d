package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/contract_scheduler/internal/clock"
	"github.com/Freeeeeet/contract_scheduler/internal/directory"
	"github.com/Freeeeeet/contract_scheduler/internal/model"
	"github.com/Freeeeeet/contract_scheduler/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LeaveInput заявка на отпуск или больничный
type LeaveInput struct {
	TeacherID     int64
	Type          model.LeaveType
	StartDate     time.Time
	EndDate       time.Time
	AttachmentRef *uuid.UUID
}

// LeaveService реестр отсутствий учителей. Отпуска не удаляются.
type LeaveService struct {
	store  repository.Store
	dir    directory.Directory
	logger *zap.Logger
}

func NewLeaveService(store repository.Store, dir directory.Directory, logger *zap.Logger) *LeaveService {
	return &LeaveService{store: store, dir: dir, logger: logger}
}

// Create регистрирует заявку в состоянии pending
func (s *LeaveService) Create(ctx context.Context, input LeaveInput) (*model.Leave, error) {
	if !input.Type.Valid() {
		return nil, model.NewValidationError("type", fmt.Sprintf("unknown leave type %q", input.Type))
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() {
		return nil, model.NewValidationError("start_date", "start and end dates are required")
	}

	leave := &model.Leave{
		TeacherID:     input.TeacherID,
		Type:          input.Type,
		State:         model.LeaveStatePending,
		StartDate:     clock.DateOf(input.StartDate),
		EndDate:       clock.DateOf(input.EndDate),
		AttachmentRef: input.AttachmentRef,
	}
	if leave.EndDate.Before(leave.StartDate) {
		return nil, model.NewValidationError("end_date", "must not be before start_date")
	}

	teacher, err := s.dir.GetTeacher(ctx, input.TeacherID)
	if err != nil {
		return nil, fmt.Errorf("get teacher: %w", err)
	}
	if teacher == nil {
		return nil, &model.NotFoundError{Entity: "teacher", ID: input.TeacherID}
	}

	if err := s.store.Leaves().Create(ctx, leave); err != nil {
		s.logger.Error("Failed to create leave", zap.Int64("teacher_id", input.TeacherID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Leave created",
		zap.Int64("leave_id", leave.ID),
		zap.Int64("teacher_id", leave.TeacherID),
		zap.String("type", string(leave.Type)),
		zap.Time("start_date", leave.StartDate),
		zap.Time("end_date", leave.EndDate))

	return leave, nil
}

// Approve подтверждает отпуск; занятия в эти даты сразу становятся blocked
func (s *LeaveService) Approve(ctx context.Context, id int64) (*model.Leave, error) {
	return s.decide(ctx, id, model.LeaveStateAccepted)
}

// Decline отклоняет отпуск
func (s *LeaveService) Decline(ctx context.Context, id int64) (*model.Leave, error) {
	return s.decide(ctx, id, model.LeaveStateDeclined)
}

func (s *LeaveService) decide(ctx context.Context, id int64, state model.LeaveState) (*model.Leave, error) {
	leave, err := s.store.Leaves().UpdateState(ctx, id, state)
	if err != nil {
		return nil, err
	}
	if leave == nil {
		return nil, &model.NotFoundError{Entity: "leave", ID: id}
	}

	s.logger.Info("Leave decided",
		zap.Int64("leave_id", id),
		zap.Int64("teacher_id", leave.TeacherID),
		zap.String("state", string(state)))

	return leave, nil
}

// Get получает отпуск по ID
func (s *LeaveService) Get(ctx context.Context, id int64) (*model.Leave, error) {
	leave, err := s.store.Leaves().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get leave: %w", err)
	}
	if leave == nil {
		return nil, &model.NotFoundError{Entity: "leave", ID: id}
	}
	return leave, nil
}

// ListForTeacher отпуска учителя, пересекающие [from, to]
func (s *LeaveService) ListForTeacher(ctx context.Context, teacherID int64, from, to time.Time) ([]*model.Leave, error) {
	leaves, err := s.store.Leaves().Find(ctx, repository.LeaveFilter{
		TeacherIDs: []int64{teacherID},
		From:       timePtr(clock.DateOf(from)),
		To:         timePtr(clock.DateOf(to)),
	})
	if err != nil {
		return nil, fmt.Errorf("list teacher leaves: %w", err)
	}
	return leaves, nil
}

// Intersecting все отпуска, пересекающие [start, end], сгруппированные по учителю
func (s *LeaveService) Intersecting(ctx context.Context, start, end time.Time) ([]model.TeacherLeaves, error) {
	start, end = clock.DateOf(start), clock.DateOf(end)
	if end.Before(start) {
		return nil, model.NewValidationError("end", "must not be before start")
	}

	leaves, err := s.store.Leaves().Find(ctx, repository.LeaveFilter{From: &start, To: &end})
	if err != nil {
		return nil, fmt.Errorf("find intersecting leaves: %w", err)
	}

	// Find упорядочивает по учителю, достаточно разрезать подряд идущие группы
	groups := []model.TeacherLeaves{}
	for _, l := range leaves {
		if n := len(groups); n > 0 && groups[n-1].TeacherID == l.TeacherID {
			groups[n-1].Leaves = append(groups[n-1].Leaves, l)
			continue
		}
		groups = append(groups, model.TeacherLeaves{TeacherID: l.TeacherID, Leaves: []*model.Leave{l}})
	}

	return groups, nil
}
