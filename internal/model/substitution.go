package model

import "time"

// SubstitutionPolicy что делать при замене контракта, который сам является заменой
type SubstitutionPolicy string

const (
	SubstitutionDisallow SubstitutionPolicy = "disallow" // отклонить
	SubstitutionRoot     SubstitutionPolicy = "root"     // заменить корневой контракт цепочки
)

func (p SubstitutionPolicy) Valid() bool {
	return p == SubstitutionDisallow || p == SubstitutionRoot
}

// DateRange диапазон дат включительно, например период отсутствия учителя
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// SubstitutionPlan результат подбора замены: затронутые даты и кандидаты
type SubstitutionPlan struct {
	Parent        *Contract    `json:"parent"`
	AffectedDates []time.Time  `json:"affected_dates"`
	From          time.Time    `json:"from"` // понедельник первой затронутой недели
	To            time.Time    `json:"to"`   // пятница последней
	Suggestions   []Suggestion `json:"suggestions"`
}

// SubstitutionChoice выбранный кандидат и время
type SubstitutionChoice struct {
	TeacherID *int64
	DayOfWeek time.Weekday
	Start     TimeOfDay
	End       TimeOfDay
	Confirm   bool // сразу accepted вместо pending
}
