// Package memory implements the repository interfaces in process memory. It backs the
// service tests and the week_image demo; transactions are serialized by a mutex and
// rolled back by restoring a snapshot.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Freeeeeet/contract_scheduler/internal/model"
	"github.com/Freeeeeet/contract_scheduler/internal/repository"
)

type lessonKey struct {
	contractID int64
	date       time.Time
}

type data struct {
	contracts    map[int64]*model.Contract
	lessons      map[lessonKey]*model.Lesson
	leaves       map[int64]*model.Leave
	nextContract int64
	nextLesson   int64
	nextLeave    int64
}

func (d *data) clone() *data {
	out := &data{
		contracts:    make(map[int64]*model.Contract, len(d.contracts)),
		lessons:      make(map[lessonKey]*model.Lesson, len(d.lessons)),
		leaves:       make(map[int64]*model.Leave, len(d.leaves)),
		nextContract: d.nextContract,
		nextLesson:   d.nextLesson,
		nextLeave:    d.nextLeave,
	}
	for id, c := range d.contracts {
		out.contracts[id] = c.Clone()
	}
	for key, l := range d.lessons {
		copied := *l
		out.lessons[key] = &copied
	}
	for id, l := range d.leaves {
		copied := *l
		out.leaves[id] = &copied
	}
	return out
}

type state struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data *data
	now  func() time.Time
}

// Store in-memory реализация repository.Store
type Store struct {
	state *state
	inTx  bool
}

var _ repository.Store = (*Store)(nil)

// NewStore создаёт пустое хранилище
func NewStore() *Store {
	return &Store{state: &state{
		data: &data{
			contracts: make(map[int64]*model.Contract),
			lessons:   make(map[lessonKey]*model.Lesson),
			leaves:    make(map[int64]*model.Leave),
		},
		now: time.Now,
	}}
}

func (s *Store) Contracts() repository.ContractRepository {
	return &contracts{state: s.state, inTx: s.inTx}
}
func (s *Store) Lessons() repository.LessonRepository { return &lessons{state: s.state, inTx: s.inTx} }
func (s *Store) Leaves() repository.LeaveRepository   { return &leaves{state: s.state, inTx: s.inTx} }

// Serializable выполняет fn эксклюзивно; при ошибке изменения откатываются
func (s *Store) Serializable(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.state.txMu.Lock()
	defer s.state.txMu.Unlock()

	s.state.mu.RLock()
	snapshot := s.state.data.clone()
	s.state.mu.RUnlock()

	if err := fn(&Store{state: s.state, inTx: true}); err != nil {
		s.state.mu.Lock()
		s.state.data = snapshot
		s.state.mu.Unlock()
		return err
	}
	return nil
}

// lockWrite блокирует данные на запись. Запись вне транзакции ждёт окончания
// активной транзакции, иначе откат снимка затрёт её.
func (s *state) lockWrite(inTx bool) func() {
	if !inTx {
		s.txMu.Lock()
	}
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		if !inTx {
			s.txMu.Unlock()
		}
	}
}

func sameDate(a, b time.Time) bool {
	return a.Equal(b)
}

func sortContracts(list []*model.Contract) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if !a.StartDate.Equal(b.StartDate) {
			return a.StartDate.Before(b.StartDate)
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.ID < b.ID
	})
}
