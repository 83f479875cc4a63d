package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/contract_scheduler/internal/model"
	"github.com/Freeeeeet/contract_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const contractColumns = `
	c.id, c.subject_id, c.customer_ids, c.teacher_id, c.state, c.contract_type,
	c.start_date, c.end_date, c.interval_weeks, c.start_minute, c.end_minute, c.parent_id,
	ARRAY(SELECT ch.id FROM contracts ch WHERE ch.parent_id = c.id ORDER BY ch.id) AS child_ids,
	c.created_at, c.updated_at
`

// PgxContractRepository хранит контракты в PostgreSQL
type PgxContractRepository struct {
	*base.Repository
}

func NewPgxContractRepository(db base.DBTX) *PgxContractRepository {
	return &PgxContractRepository{Repository: base.NewRepository(db)}
}

// Create создаёт контракт
func (r *PgxContractRepository) Create(ctx context.Context, contract *model.Contract) error {
	query := `
		INSERT INTO contracts (subject_id, customer_ids, teacher_id, state, contract_type,
			start_date, end_date, interval_weeks, start_minute, end_minute, parent_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx,
		query,
		contract.SubjectID,
		contract.CustomerIDs,
		contract.TeacherID,
		string(contract.State),
		string(contract.Type),
		contract.StartDate,
		contract.EndDate,
		contract.IntervalWeeks,
		int(contract.StartTime),
		int(contract.EndTime),
		contract.ParentID,
	).Scan(&contract.ID, &contract.CreatedAt, &contract.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create contract: %w", base.MapError(err))
	}

	return nil
}

// GetByID получает контракт по ID
func (r *PgxContractRepository) GetByID(ctx context.Context, id int64) (*model.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts c WHERE c.id = $1`

	contract, err := scanContract(r.QueryRow(ctx, query, id))
	if base.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get contract by id: %w", err)
	}

	return contract, nil
}

// Update перезаписывает изменяемые поля контракта
func (r *PgxContractRepository) Update(ctx context.Context, contract *model.Contract) error {
	query := `
		UPDATE contracts
		SET subject_id = $2, customer_ids = $3, teacher_id = $4, state = $5, contract_type = $6,
			start_date = $7, end_date = $8, interval_weeks = $9, start_minute = $10, end_minute = $11,
			parent_id = $12, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.QueryRow(
		ctx,
		query,
		contract.ID,
		contract.SubjectID,
		contract.CustomerIDs,
		contract.TeacherID,
		string(contract.State),
		string(contract.Type),
		contract.StartDate,
		contract.EndDate,
		contract.IntervalWeeks,
		int(contract.StartTime),
		int(contract.EndTime),
		contract.ParentID,
	).Scan(&contract.UpdatedAt)

	if base.IsNotFound(err) {
		return &model.NotFoundError{Entity: "contract", ID: contract.ID}
	}
	if err != nil {
		return fmt.Errorf("update contract: %w", base.MapError(err))
	}

	return nil
}

// Delete удаляет контракт; занятия удаляются каскадно
func (r *PgxContractRepository) Delete(ctx context.Context, id int64) (bool, error) {
	affected, err := r.ExecAffected(ctx, `DELETE FROM contracts WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete contract: %w", base.MapError(err))
	}
	return affected > 0, nil
}

// Find возвращает контракты по фильтру, упорядоченные по дате начала и времени
func (r *PgxContractRepository) Find(ctx context.Context, filter ContractFilter) ([]*model.Contract, error) {
	var conds base.Conditions
	if filter.TeacherID != nil {
		conds.Add("c.teacher_id = $%d", *filter.TeacherID)
	}
	if len(filter.CustomerIDs) > 0 {
		conds.Add("c.customer_ids && $%d", filter.CustomerIDs)
	}
	if len(filter.States) > 0 {
		states := make([]string, 0, len(filter.States))
		for _, s := range filter.States {
			states = append(states, string(s))
		}
		conds.Add("c.state = ANY($%d)", states)
	}
	if filter.ActiveFrom != nil {
		conds.Add("(c.end_date IS NULL OR c.end_date >= $%d)", *filter.ActiveFrom)
	}
	if filter.ActiveTo != nil {
		conds.Add("c.start_date <= $%d", *filter.ActiveTo)
	}
	if len(filter.ExcludeIDs) > 0 {
		conds.Add("NOT (c.id = ANY($%d))", filter.ExcludeIDs)
	}
	if filter.ParentID != nil {
		conds.Add("c.parent_id = $%d", *filter.ParentID)
	}

	query := `SELECT ` + contractColumns + ` FROM contracts c` + conds.Where() +
		` ORDER BY c.start_date, c.start_minute, c.id`

	rows, err := r.Query(ctx, query, conds.Args()...)
	if err != nil {
		return nil, fmt.Errorf("find contracts: %w", err)
	}
	defer rows.Close()

	var contracts []*model.Contract
	for rows.Next() {
		contract, err := scanContract(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contract: %w", err)
		}
		contracts = append(contracts, contract)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contracts: %w", err)
	}

	return contracts, nil
}

// DetachChildren обнуляет ссылку на родителя у всех дочерних контрактов
func (r *PgxContractRepository) DetachChildren(ctx context.Context, parentID int64) (int64, error) {
	affected, err := r.ExecAffected(ctx,
		`UPDATE contracts SET parent_id = NULL, updated_at = NOW() WHERE parent_id = $1`, parentID)
	if err != nil {
		return 0, fmt.Errorf("detach child contracts: %w", base.MapError(err))
	}
	return affected, nil
}

func scanContract(row pgx.Row) (*model.Contract, error) {
	var (
		contract     model.Contract
		state        string
		contractType string
		startMinute  int
		endMinute    int
	)

	err := row.Scan(
		&contract.ID,
		&contract.SubjectID,
		&contract.CustomerIDs,
		&contract.TeacherID,
		&state,
		&contractType,
		&contract.StartDate,
		&contract.EndDate,
		&contract.IntervalWeeks,
		&startMinute,
		&endMinute,
		&contract.ParentID,
		&contract.ChildIDs,
		&contract.CreatedAt,
		&contract.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	contract.State = model.ContractState(state)
	contract.Type = model.ContractType(contractType)
	contract.StartTime = model.TimeOfDay(startMinute)
	contract.EndTime = model.TimeOfDay(endMinute)

	return &contract, nil
}
