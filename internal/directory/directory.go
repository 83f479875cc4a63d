// Package directory is the read-only boundary to the Subject Catalog and the Teacher
// Directory. The scheduler only looks records up; it never edits them.
package directory

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/Freeeeeet/contract_scheduler/internal/model"
	"gorm.io/gorm"
)

// Directory справочники предметов и учителей
type Directory interface {
	GetSubject(ctx context.Context, id int64) (*model.Subject, error)
	GetTeacher(ctx context.Context, id int64) (*model.Teacher, error)
	// QualifiedTeachers учителя, которые ведут предмет и могут получать контракты, по имени
	QualifiedTeachers(ctx context.Context, subjectID int64) ([]*model.Teacher, error)
	TeacherByTelegramID(ctx context.Context, telegramID int64) (*model.Teacher, error)
}

type subjectRecord struct {
	ID        int64 `gorm:"primaryKey"`
	Name      string
	Color     string
	ShortForm string
}

func (subjectRecord) TableName() string { return "subjects" }

type teacherRecord struct {
	ID              int64 `gorm:"primaryKey"`
	Name            string
	EmploymentState string
	City            string
	TelegramID      *int64
	Subjects        []subjectRecord `gorm:"many2many:teacher_subjects;joinForeignKey:TeacherID;joinReferences:SubjectID"`
}

func (teacherRecord) TableName() string { return "teachers" }

func (r *subjectRecord) toModel() *model.Subject {
	return &model.Subject{ID: r.ID, Name: r.Name, Color: r.Color, ShortForm: r.ShortForm}
}

func (r *teacherRecord) toModel() *model.Teacher {
	t := &model.Teacher{
		ID:              r.ID,
		Name:            r.Name,
		EmploymentState: model.EmploymentState(r.EmploymentState),
		City:            r.City,
		TelegramID:      r.TelegramID,
	}
	for _, s := range r.Subjects {
		t.SubjectIDs = append(t.SubjectIDs, s.ID)
	}
	slices.Sort(t.SubjectIDs)
	return t
}

// GormDirectory читает справочники через gorm
type GormDirectory struct {
	db *gorm.DB
}

func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

func (d *GormDirectory) GetSubject(ctx context.Context, id int64) (*model.Subject, error) {
	var rec subjectRecord
	err := d.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get subject: %w", err)
	}
	return rec.toModel(), nil
}

func (d *GormDirectory) GetTeacher(ctx context.Context, id int64) (*model.Teacher, error) {
	return d.firstTeacher(ctx, "id = ?", id)
}

func (d *GormDirectory) TeacherByTelegramID(ctx context.Context, telegramID int64) (*model.Teacher, error) {
	return d.firstTeacher(ctx, "telegram_id = ?", telegramID)
}

func (d *GormDirectory) firstTeacher(ctx context.Context, cond string, arg any) (*model.Teacher, error) {
	var rec teacherRecord
	err := d.db.WithContext(ctx).Preload("Subjects").First(&rec, cond, arg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get teacher: %w", err)
	}
	return rec.toModel(), nil
}

func (d *GormDirectory) QualifiedTeachers(ctx context.Context, subjectID int64) ([]*model.Teacher, error) {
	var records []teacherRecord
	err := d.db.WithContext(ctx).
		Preload("Subjects").
		Joins("JOIN teacher_subjects ts ON ts.teacher_id = teachers.id").
		Where("ts.subject_id = ? AND teachers.employment_state IN ?", subjectID, teachingStates()).
		Order("teachers.name, teachers.id").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("find qualified teachers: %w", err)
	}

	teachers := make([]*model.Teacher, 0, len(records))
	for i := range records {
		teachers = append(teachers, records[i].toModel())
	}
	return teachers, nil
}

func teachingStates() []string {
	return []string{string(model.EmploymentEmployed), string(model.EmploymentContract)}
}
