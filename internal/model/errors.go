package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Категории ошибок ядра, проверяются через errors.Is
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrBlocked    = errors.New("lesson is blocked")
)

// ValidationError нарушение инварианта, отклоняется до записи в БД
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ConflictError жёсткий конфликт расписания при фиксации или блокировка удаления
type ConflictError struct {
	Reason      string
	ContractIDs []int64
}

func (e *ConflictError) Error() string {
	if len(e.ContractIDs) == 0 {
		return "conflict: " + e.Reason
	}
	ids := make([]string, 0, len(e.ContractIDs))
	for _, id := range e.ContractIDs {
		ids = append(ids, fmt.Sprint(id))
	}
	return fmt.Sprintf("conflict: %s (contracts %s)", e.Reason, strings.Join(ids, ", "))
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// NotFoundError неизвестный идентификатор
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// BlockedMutationError попытка изменить занятие, попадающее в отпуск учителя
type BlockedMutationError struct {
	ContractID int64
	Date       time.Time
}

func (e *BlockedMutationError) Error() string {
	return fmt.Sprintf("lesson of contract %d on %s is blocked by teacher leave",
		e.ContractID, e.Date.Format("2006-01-02"))
}

func (e *BlockedMutationError) Is(target error) bool {
	return target == ErrBlocked
}
