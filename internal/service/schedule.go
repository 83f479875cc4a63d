package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/contract_scheduler/internal/model"
	"github.com/Freeeeeet/contract_scheduler/internal/recurrence"
	"github.com/Freeeeeet/contract_scheduler/internal/repository"
)

// seriesOf переводит контракт в целочисленную серию для детектора конфликтов
func seriesOf(c *model.Contract) recurrence.Series {
	s := recurrence.Series{
		ID:            c.ID,
		Anchor:        recurrence.DayOf(c.StartDate),
		IntervalWeeks: c.IntervalWeeks,
		Start:         int(c.StartTime),
		End:           int(c.EndTime),
	}
	if c.ParentID != nil {
		s.ParentID = *c.ParentID
	}
	if c.EndDate != nil {
		until := recurrence.DayOf(*c.EndDate)
		s.Until = &until
	}
	return s
}

// weekBounds понедельник и пятница недели, содержащей дату
func weekBounds(of time.Time) (recurrence.Day, recurrence.Day) {
	monday := recurrence.DayOf(of).Monday()
	return monday, monday.AddDays(4)
}

func timePtr(t time.Time) *time.Time {
	return &t
}

// leaveIndex подтверждённые отпуска по учителям
type leaveIndex map[int64][]recurrence.Span

func loadLeaveIndex(ctx context.Context, repo repository.LeaveRepository, teacherIDs []int64, from, to recurrence.Day) (leaveIndex, error) {
	idx := leaveIndex{}
	if len(teacherIDs) == 0 {
		return idx, nil
	}

	leaves, err := repo.Find(ctx, repository.LeaveFilter{
		TeacherIDs: teacherIDs,
		States:     []model.LeaveState{model.LeaveStateAccepted},
		From:       timePtr(from.Time()),
		To:         timePtr(to.Time()),
	})
	if err != nil {
		return nil, fmt.Errorf("load accepted leaves: %w", err)
	}

	for _, l := range leaves {
		idx[l.TeacherID] = append(idx[l.TeacherID], recurrence.Span{
			From: recurrence.DayOf(l.StartDate),
			To:   recurrence.DayOf(l.EndDate),
		})
	}
	return idx, nil
}

// Blocks проверяет покрывает ли отпуск учителя конкретную дату занятия
func (idx leaveIndex) Blocks(teacherID *int64, day recurrence.Day) bool {
	if teacherID == nil {
		return false
	}
	for _, span := range idx[*teacherID] {
		if span.Contains(day) {
			return true
		}
	}
	return false
}

// BlocksAny проверяет попадает ли хотя бы одно занятие серии в отпуск учителя
func (idx leaveIndex) BlocksAny(teacherID int64, s recurrence.Series) bool {
	for _, span := range idx[teacherID] {
		if next, ok := recurrence.NextOnOrAfter(s, span.From); ok && next <= span.To {
			return true
		}
	}
	return false
}

func teacherIDsOf(contracts []*model.Contract) []int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, c := range contracts {
		if c.TeacherID == nil {
			continue
		}
		if _, ok := seen[*c.TeacherID]; ok {
			continue
		}
		seen[*c.TeacherID] = struct{}{}
		ids = append(ids, *c.TeacherID)
	}
	return ids
}
