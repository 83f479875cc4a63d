package directory

import (
	"context"
	"sort"
	"sync"

	"github.com/Freeeeeet/contract_scheduler/internal/model"
)

// Static справочник в памяти, для тестов и демо-данных
type Static struct {
	mu       sync.RWMutex
	subjects map[int64]model.Subject
	teachers map[int64]model.Teacher
}

var _ Directory = (*Static)(nil)

func NewStatic() *Static {
	return &Static{
		subjects: make(map[int64]model.Subject),
		teachers: make(map[int64]model.Teacher),
	}
}

func (s *Static) AddSubject(subject model.Subject) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subjects[subject.ID] = subject
	return s
}

func (s *Static) AddTeacher(teacher model.Teacher) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	teacher.SubjectIDs = append([]int64(nil), teacher.SubjectIDs...)
	s.teachers[teacher.ID] = teacher
	return s
}

func (s *Static) GetSubject(_ context.Context, id int64) (*model.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	subject, ok := s.subjects[id]
	if !ok {
		return nil, nil
	}
	return &subject, nil
}

func (s *Static) GetTeacher(_ context.Context, id int64) (*model.Teacher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	teacher, ok := s.teachers[id]
	if !ok {
		return nil, nil
	}
	return copyTeacher(teacher), nil
}

func (s *Static) TeacherByTelegramID(_ context.Context, telegramID int64) (*model.Teacher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, teacher := range s.teachers {
		if teacher.TelegramID != nil && *teacher.TelegramID == telegramID {
			return copyTeacher(teacher), nil
		}
	}
	return nil, nil
}

func (s *Static) QualifiedTeachers(_ context.Context, subjectID int64) ([]*model.Teacher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.Teacher
	for _, teacher := range s.teachers {
		if teacher.QualifiedFor(subjectID) {
			out = append(out, copyTeacher(teacher))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func copyTeacher(t model.Teacher) *model.Teacher {
	t.SubjectIDs = append([]int64(nil), t.SubjectIDs...)
	return &t
}
