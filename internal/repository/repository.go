package repository

import (
	"context"
	"time"

	"github.com/Freeeeeet/contract_scheduler/internal/model"
)

// ContractFilter условия выборки контрактов; пустые поля не ограничивают
type ContractFilter struct {
	TeacherID   *int64
	CustomerIDs []int64 // хотя бы один общий клиент
	States      []model.ContractState
	ActiveFrom  *time.Time // диапазон действия пересекается с [ActiveFrom, ActiveTo]
	ActiveTo    *time.Time
	ExcludeIDs  []int64
	ParentID    *int64
}

// LeaveFilter условия выборки отпусков
type LeaveFilter struct {
	TeacherIDs []int64
	States     []model.LeaveState
	From       *time.Time // отпуск пересекается с [From, To]
	To         *time.Time
}

type ContractRepository interface {
	Create(ctx context.Context, contract *model.Contract) error
	GetByID(ctx context.Context, id int64) (*model.Contract, error)
	Update(ctx context.Context, contract *model.Contract) error
	Delete(ctx context.Context, id int64) (bool, error)
	Find(ctx context.Context, filter ContractFilter) ([]*model.Contract, error)
	DetachChildren(ctx context.Context, parentID int64) (int64, error)
}

type LessonRepository interface {
	Get(ctx context.Context, contractID int64, date time.Time) (*model.Lesson, error)
	Upsert(ctx context.Context, lesson *model.Lesson) error
	ListByContracts(ctx context.Context, contractIDs []int64, from, to time.Time) ([]*model.Lesson, error)
	DeleteAfter(ctx context.Context, contractID int64, date time.Time) (int64, error)
	Delete(ctx context.Context, contractID int64, dates []time.Time) (int64, error)
}

type LeaveRepository interface {
	Create(ctx context.Context, leave *model.Leave) error
	GetByID(ctx context.Context, id int64) (*model.Leave, error)
	UpdateState(ctx context.Context, id int64, state model.LeaveState) (*model.Leave, error)
	Find(ctx context.Context, filter LeaveFilter) ([]*model.Leave, error)
}

// Store группирует репозитории и даёт сериализуемые транзакции.
// Внутри Serializable все обращения идут через tx.
type Store interface {
	Contracts() ContractRepository
	Lessons() LessonRepository
	Leaves() LeaveRepository
	Serializable(ctx context.Context, fn func(tx Store) error) error
}
