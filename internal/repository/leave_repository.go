package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/contract_scheduler/internal/model"
	"github.com/Freeeeeet/contract_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

// PgxLeaveRepository хранит отпуска и больничные учителей
type PgxLeaveRepository struct {
	*base.Repository
}

func NewPgxLeaveRepository(db base.DBTX) *PgxLeaveRepository {
	return &PgxLeaveRepository{Repository: base.NewRepository(db)}
}

// Create создаёт отпуск
func (r *PgxLeaveRepository) Create(ctx context.Context, leave *model.Leave) error {
	query := `
		INSERT INTO leaves (teacher_id, type, state, start_date, end_date, attachment_ref)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx,
		query,
		leave.TeacherID,
		string(leave.Type),
		string(leave.State),
		leave.StartDate,
		leave.EndDate,
		leave.AttachmentRef,
	).Scan(&leave.ID, &leave.CreatedAt, &leave.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create leave: %w", base.MapError(err))
	}

	return nil
}

// GetByID получает отпуск по ID
func (r *PgxLeaveRepository) GetByID(ctx context.Context, id int64) (*model.Leave, error) {
	query := `
		SELECT id, teacher_id, type, state, start_date, end_date, attachment_ref, created_at, updated_at
		FROM leaves
		WHERE id = $1
	`

	leave, err := scanLeave(r.QueryRow(ctx, query, id))
	if base.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get leave by id: %w", err)
	}

	return leave, nil
}

// UpdateState меняет состояние отпуска, возвращает nil если отпуска нет
func (r *PgxLeaveRepository) UpdateState(ctx context.Context, id int64, state model.LeaveState) (*model.Leave, error) {
	query := `
		UPDATE leaves SET state = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, teacher_id, type, state, start_date, end_date, attachment_ref, created_at, updated_at
	`

	leave, err := scanLeave(r.QueryRow(ctx, query, id, string(state)))
	if base.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update leave state: %w", base.MapError(err))
	}

	return leave, nil
}

// Find возвращает отпуска по фильтру, упорядоченные по учителю и дате начала
func (r *PgxLeaveRepository) Find(ctx context.Context, filter LeaveFilter) ([]*model.Leave, error) {
	var conds base.Conditions
	if len(filter.TeacherIDs) > 0 {
		conds.Add("teacher_id = ANY($%d)", filter.TeacherIDs)
	}
	if len(filter.States) > 0 {
		states := make([]string, 0, len(filter.States))
		for _, s := range filter.States {
			states = append(states, string(s))
		}
		conds.Add("state = ANY($%d)", states)
	}
	if filter.From != nil {
		conds.Add("end_date >= $%d", *filter.From)
	}
	if filter.To != nil {
		conds.Add("start_date <= $%d", *filter.To)
	}

	query := `
		SELECT id, teacher_id, type, state, start_date, end_date, attachment_ref, created_at, updated_at
		FROM leaves` + conds.Where() + `
		ORDER BY teacher_id, start_date, id
	`

	rows, err := r.Query(ctx, query, conds.Args()...)
	if err != nil {
		return nil, fmt.Errorf("find leaves: %w", err)
	}
	defer rows.Close()

	var leaves []*model.Leave
	for rows.Next() {
		leave, err := scanLeave(rows)
		if err != nil {
			return nil, fmt.Errorf("scan leave: %w", err)
		}
		leaves = append(leaves, leave)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaves: %w", err)
	}

	return leaves, nil
}

func scanLeave(row pgx.Row) (*model.Leave, error) {
	var (
		leave     model.Leave
		leaveType string
		state     string
	)
	err := row.Scan(
		&leave.ID,
		&leave.TeacherID,
		&leaveType,
		&state,
		&leave.StartDate,
		&leave.EndDate,
		&leave.AttachmentRef,
		&leave.CreatedAt,
		&leave.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	leave.Type = model.LeaveType(leaveType)
	leave.State = model.LeaveState(state)
	return &leave, nil
}
