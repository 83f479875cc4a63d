package memory

import (
	"context"
	"slices"

	"github.com/Freeeeeet/contract_scheduler/internal/model"
	"github.com/Freeeeeet/contract_scheduler/internal/repository"
)

type contracts struct {
	state *state
	inTx  bool
}

func (r *contracts) Create(_ context.Context, contract *model.Contract) error {
	defer r.state.lockWrite(r.inTx)()

	d := r.state.data
	if contract.ParentID != nil {
		if _, ok := d.contracts[*contract.ParentID]; !ok {
			return model.NewValidationError("parent_contract_id", "parent contract does not exist")
		}
	}

	d.nextContract++
	now := r.state.now()
	contract.ID = d.nextContract
	contract.CreatedAt = now
	contract.UpdatedAt = now
	contract.ChildIDs = nil

	d.contracts[contract.ID] = contract.Clone()
	return nil
}

func (r *contracts) GetByID(_ context.Context, id int64) (*model.Contract, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	stored, ok := r.state.data.contracts[id]
	if !ok {
		return nil, nil
	}
	return r.withChildren(stored), nil
}

func (r *contracts) Update(_ context.Context, contract *model.Contract) error {
	defer r.state.lockWrite(r.inTx)()

	stored, ok := r.state.data.contracts[contract.ID]
	if !ok {
		return &model.NotFoundError{Entity: "contract", ID: contract.ID}
	}

	contract.CreatedAt = stored.CreatedAt
	contract.UpdatedAt = r.state.now()
	updated := contract.Clone()
	updated.ChildIDs = nil
	r.state.data.contracts[contract.ID] = updated
	return nil
}

func (r *contracts) Delete(_ context.Context, id int64) (bool, error) {
	defer r.state.lockWrite(r.inTx)()

	d := r.state.data
	if _, ok := d.contracts[id]; !ok {
		return false, nil
	}
	delete(d.contracts, id)

	for key := range d.lessons {
		if key.contractID == id {
			delete(d.lessons, key)
		}
	}
	for _, c := range d.contracts {
		if c.ParentID != nil && *c.ParentID == id {
			c.ParentID = nil
		}
	}
	return true, nil
}

func (r *contracts) Find(_ context.Context, filter repository.ContractFilter) ([]*model.Contract, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	var out []*model.Contract
	for _, c := range r.state.data.contracts {
		if matches(c, filter) {
			out = append(out, r.withChildren(c))
		}
	}
	sortContracts(out)
	return out, nil
}

func (r *contracts) DetachChildren(_ context.Context, parentID int64) (int64, error) {
	defer r.state.lockWrite(r.inTx)()

	var affected int64
	now := r.state.now()
	for _, c := range r.state.data.contracts {
		if c.ParentID != nil && *c.ParentID == parentID {
			c.ParentID = nil
			c.UpdatedAt = now
			affected++
		}
	}
	return affected, nil
}

// withChildren копирует контракт и заполняет ChildIDs; вызывается под блокировкой
func (r *contracts) withChildren(stored *model.Contract) *model.Contract {
	out := stored.Clone()
	out.ChildIDs = nil
	for _, c := range r.state.data.contracts {
		if c.ParentID != nil && *c.ParentID == stored.ID {
			out.ChildIDs = append(out.ChildIDs, c.ID)
		}
	}
	slices.Sort(out.ChildIDs)
	return out
}

func matches(c *model.Contract, f repository.ContractFilter) bool {
	if f.TeacherID != nil && (c.TeacherID == nil || *c.TeacherID != *f.TeacherID) {
		return false
	}
	if len(f.CustomerIDs) > 0 && !slices.ContainsFunc(c.CustomerIDs, func(id int64) bool {
		return slices.Contains(f.CustomerIDs, id)
	}) {
		return false
	}
	if len(f.States) > 0 && !slices.Contains(f.States, c.State) {
		return false
	}
	if f.ActiveFrom != nil && c.EndDate != nil && c.EndDate.Before(*f.ActiveFrom) {
		return false
	}
	if f.ActiveTo != nil && c.StartDate.After(*f.ActiveTo) {
		return false
	}
	if slices.Contains(f.ExcludeIDs, c.ID) {
		return false
	}
	if f.ParentID != nil && (c.ParentID == nil || *c.ParentID != *f.ParentID) {
		return false
	}
	return true
}
