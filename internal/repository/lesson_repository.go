package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/contract_scheduler/internal/model"
	"github.com/Freeeeeet/contract_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

// PgxLessonRepository хранит записанные состояния занятий.
// Незаписанная дата считается idle и строки не имеет.
type PgxLessonRepository struct {
	*base.Repository
}

func NewPgxLessonRepository(db base.DBTX) *PgxLessonRepository {
	return &PgxLessonRepository{Repository: base.NewRepository(db)}
}

// Get получает занятие контракта на дату
func (r *PgxLessonRepository) Get(ctx context.Context, contractID int64, date time.Time) (*model.Lesson, error) {
	query := `
		SELECT id, contract_id, date, state, notes, created_at, updated_at
		FROM lessons
		WHERE contract_id = $1 AND date = $2
	`

	lesson, err := scanLesson(r.QueryRow(ctx, query, contractID, date))
	if base.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get lesson: %w", err)
	}

	return lesson, nil
}

// Upsert записывает состояние занятия по ключу (контракт, дата)
func (r *PgxLessonRepository) Upsert(ctx context.Context, lesson *model.Lesson) error {
	query := `
		INSERT INTO lessons (contract_id, date, state, notes)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (contract_id, date)
		DO UPDATE SET state = EXCLUDED.state, notes = EXCLUDED.notes, updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(ctx, query, lesson.ContractID, lesson.Date, string(lesson.State), lesson.Notes).
		Scan(&lesson.ID, &lesson.CreatedAt, &lesson.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert lesson: %w", base.MapError(err))
	}

	return nil
}

// ListByContracts возвращает записанные занятия контрактов в диапазоне дат включительно
func (r *PgxLessonRepository) ListByContracts(ctx context.Context, contractIDs []int64, from, to time.Time) ([]*model.Lesson, error) {
	if len(contractIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, contract_id, date, state, notes, created_at, updated_at
		FROM lessons
		WHERE contract_id = ANY($1) AND date BETWEEN $2 AND $3
		ORDER BY date, contract_id
	`

	rows, err := r.Query(ctx, query, contractIDs, from, to)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	defer rows.Close()

	var lessons []*model.Lesson
	for rows.Next() {
		lesson, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		lessons = append(lessons, lesson)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lessons: %w", err)
	}

	return lessons, nil
}

// DeleteAfter удаляет записи занятий после даты (при досрочном завершении контракта)
func (r *PgxLessonRepository) DeleteAfter(ctx context.Context, contractID int64, date time.Time) (int64, error) {
	affected, err := r.ExecAffected(ctx, `DELETE FROM lessons WHERE contract_id = $1 AND date > $2`, contractID, date)
	if err != nil {
		return 0, fmt.Errorf("delete lessons after %s: %w", date.Format(time.DateOnly), err)
	}
	return affected, nil
}

// Delete удаляет записи занятий контракта на перечисленные даты
func (r *PgxLessonRepository) Delete(ctx context.Context, contractID int64, dates []time.Time) (int64, error) {
	if len(dates) == 0 {
		return 0, nil
	}
	affected, err := r.ExecAffected(ctx, `DELETE FROM lessons WHERE contract_id = $1 AND date = ANY($2::date[])`, contractID, dates)
	if err != nil {
		return 0, fmt.Errorf("delete lessons: %w", err)
	}
	return affected, nil
}

func scanLesson(row pgx.Row) (*model.Lesson, error) {
	var (
		lesson model.Lesson
		state  string
	)
	err := row.Scan(
		&lesson.ID,
		&lesson.ContractID,
		&lesson.Date,
		&state,
		&lesson.Notes,
		&lesson.CreatedAt,
		&lesson.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	lesson.State = model.LessonState(state)
	return &lesson, nil
}
