package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/Freeeeeet/contract_scheduler/internal/model"
)

type lessons struct {
	state *state
	inTx  bool
}

func (r *lessons) Get(_ context.Context, contractID int64, date time.Time) (*model.Lesson, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	stored, ok := r.state.data.lessons[lessonKey{contractID: contractID, date: date.UTC()}]
	if !ok {
		return nil, nil
	}
	copied := *stored
	return &copied, nil
}

func (r *lessons) Upsert(_ context.Context, lesson *model.Lesson) error {
	defer r.state.lockWrite(r.inTx)()

	d := r.state.data
	if _, ok := d.contracts[lesson.ContractID]; !ok {
		return &model.NotFoundError{Entity: "contract", ID: lesson.ContractID}
	}

	key := lessonKey{contractID: lesson.ContractID, date: lesson.Date.UTC()}
	now := r.state.now()
	if stored, ok := d.lessons[key]; ok {
		stored.State = lesson.State
		stored.Notes = lesson.Notes
		stored.UpdatedAt = now
		lesson.ID = stored.ID
		lesson.CreatedAt = stored.CreatedAt
		lesson.UpdatedAt = now
		return nil
	}

	d.nextLesson++
	lesson.ID = d.nextLesson
	lesson.CreatedAt = now
	lesson.UpdatedAt = now
	copied := *lesson
	copied.Blocked = false
	d.lessons[key] = &copied
	return nil
}

func (r *lessons) ListByContracts(_ context.Context, contractIDs []int64, from, to time.Time) ([]*model.Lesson, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	var out []*model.Lesson
	for key, l := range r.state.data.lessons {
		if !slices.Contains(contractIDs, key.contractID) {
			continue
		}
		if l.Date.Before(from) || l.Date.After(to) {
			continue
		}
		copied := *l
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if !sameDate(out[i].Date, out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ContractID < out[j].ContractID
	})
	return out, nil
}

func (r *lessons) DeleteAfter(_ context.Context, contractID int64, date time.Time) (int64, error) {
	defer r.state.lockWrite(r.inTx)()

	var affected int64
	for key, l := range r.state.data.lessons {
		if key.contractID == contractID && l.Date.After(date) {
			delete(r.state.data.lessons, key)
			affected++
		}
	}
	return affected, nil
}

func (r *lessons) Delete(_ context.Context, contractID int64, dates []time.Time) (int64, error) {
	defer r.state.lockWrite(r.inTx)()

	var affected int64
	for _, date := range dates {
		key := lessonKey{contractID: contractID, date: date.UTC()}
		if _, ok := r.state.data.lessons[key]; ok {
			delete(r.state.data.lessons, key)
			affected++
		}
	}
	return affected, nil
}
