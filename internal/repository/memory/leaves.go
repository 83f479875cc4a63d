package memory

import (
	"context"
	"slices"
	"sort"

	"github.com/Freeeeeet/contract_scheduler/internal/model"
	"github.com/Freeeeeet/contract_scheduler/internal/repository"
)

type leaves struct {
	state *state
	inTx  bool
}

func (r *leaves) Create(_ context.Context, leave *model.Leave) error {
	defer r.state.lockWrite(r.inTx)()

	d := r.state.data
	d.nextLeave++
	now := r.state.now()
	leave.ID = d.nextLeave
	leave.CreatedAt = now
	leave.UpdatedAt = now

	copied := *leave
	d.leaves[leave.ID] = &copied
	return nil
}

func (r *leaves) GetByID(_ context.Context, id int64) (*model.Leave, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	stored, ok := r.state.data.leaves[id]
	if !ok {
		return nil, nil
	}
	copied := *stored
	return &copied, nil
}

func (r *leaves) UpdateState(_ context.Context, id int64, state model.LeaveState) (*model.Leave, error) {
	defer r.state.lockWrite(r.inTx)()

	stored, ok := r.state.data.leaves[id]
	if !ok {
		return nil, nil
	}
	stored.State = state
	stored.UpdatedAt = r.state.now()
	copied := *stored
	return &copied, nil
}

func (r *leaves) Find(_ context.Context, filter repository.LeaveFilter) ([]*model.Leave, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	var out []*model.Leave
	for _, l := range r.state.data.leaves {
		if len(filter.TeacherIDs) > 0 && !slices.Contains(filter.TeacherIDs, l.TeacherID) {
			continue
		}
		if len(filter.States) > 0 && !slices.Contains(filter.States, l.State) {
			continue
		}
		if filter.From != nil && l.EndDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && l.StartDate.After(*filter.To) {
			continue
		}
		copied := *l
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.TeacherID != b.TeacherID {
			return a.TeacherID < b.TeacherID
		}
		if !a.StartDate.Equal(b.StartDate) {
			return a.StartDate.Before(b.StartDate)
		}
		return a.ID < b.ID
	})
	return out, nil
}
