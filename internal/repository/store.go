package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/contract_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PgxStore реализует Store поверх pgxpool
type PgxStore struct {
	pool      *pgxpool.Pool
	db        base.DBTX
	inTx      bool
	contracts *PgxContractRepository
	lessons   *PgxLessonRepository
	leaves    *PgxLeaveRepository
	logger    *zap.Logger
}

// NewPgxStore создаёт хранилище на пуле соединений
func NewPgxStore(pool *pgxpool.Pool, logger *zap.Logger) *PgxStore {
	return newPgxStore(pool, pool, false, logger)
}

func newPgxStore(pool *pgxpool.Pool, db base.DBTX, inTx bool, logger *zap.Logger) *PgxStore {
	return &PgxStore{
		pool:      pool,
		db:        db,
		inTx:      inTx,
		contracts: NewPgxContractRepository(db),
		lessons:   NewPgxLessonRepository(db),
		leaves:    NewPgxLeaveRepository(db),
		logger:    logger,
	}
}

func (s *PgxStore) Contracts() ContractRepository { return s.contracts }
func (s *PgxStore) Lessons() LessonRepository     { return s.lessons }
func (s *PgxStore) Leaves() LeaveRepository       { return s.leaves }

// Serializable выполняет fn в транзакции SERIALIZABLE.
// Ошибка сериализации при фиксации возвращается как ConflictError, повтора нет.
func (s *PgxStore) Serializable(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(newPgxStore(s.pool, tx, true, s.logger)); err != nil {
		return base.MapError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		mapped := base.MapError(err)
		if mapped != err {
			s.logger.Warn("Serializable transaction aborted", zap.Error(err))
			return mapped
		}
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
