package model

import "time"

type LessonState string

const (
	LessonStateIdle      LessonState = "idle"
	LessonStateHeld      LessonState = "held"
	LessonStateCancelled LessonState = "cancelled"
)

func (s LessonState) Valid() bool {
	switch s {
	case LessonStateIdle, LessonStateHeld, LessonStateCancelled:
		return true
	}
	return false
}

// Lesson конкретное занятие контракта в определённую дату.
// Строка в БД создаётся лениво: незаписанная дата считается idle.
type Lesson struct {
	ID         int64       `json:"id"` // 0 для синтезированных занятий
	ContractID int64       `json:"contract_id"`
	Date       time.Time   `json:"date"`
	State      LessonState `json:"state"`
	Notes      string      `json:"notes"`
	Blocked    bool        `json:"blocked"` // вычисляется, в БД не хранится
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// IsStored проверяет есть ли у занятия запись в БД
func (l *Lesson) IsStored() bool {
	return l.ID != 0
}

// WeekView неделя Пн–Пт: контракты с датами и занятия (записанные или idle)
type WeekView struct {
	WeekStart time.Time      `json:"week_start"`
	WeekEnd   time.Time      `json:"week_end"`
	Contracts []WeekContract `json:"contracts"`
	Lessons   []*Lesson      `json:"lessons"`
}
