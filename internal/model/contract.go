package model

import "time"

type ContractState string

const (
	ContractStatePending  ContractState = "pending"  // Ожидает подтверждения
	ContractStateAccepted ContractState = "accepted" // Подтверждён
	ContractStateDeclined ContractState = "declined" // Отклонён
)

// Valid проверяет что состояние известно
func (s ContractState) Valid() bool {
	switch s {
	case ContractStatePending, ContractStateAccepted, ContractStateDeclined:
		return true
	}
	return false
}

// Occupies возвращает true, если контракт в этом состоянии занимает время учителя
func (s ContractState) Occupies() bool {
	return s == ContractStatePending || s == ContractStateAccepted
}

// OccupyingStates состояния, в которых контракт участвует в проверке конфликтов
var OccupyingStates = []ContractState{ContractStatePending, ContractStateAccepted}

type ContractType string

const (
	ContractTypeStandard ContractType = "standard"
	ContractTypeOnline   ContractType = "online"
)

func (t ContractType) Valid() bool {
	return t == ContractTypeStandard || t == ContractTypeOnline
}

// Contract регулярное еженедельное занятие между клиентами и предметом,
// опционально закреплённое за учителем
type Contract struct {
	ID            int64         `json:"id"`
	SubjectID     int64         `json:"subject_id"`
	CustomerIDs   []int64       `json:"customer_ids"`
	TeacherID     *int64        `json:"teacher_id"` // nil = не назначен
	State         ContractState `json:"state"`
	Type          ContractType  `json:"contract_type"`
	StartDate     time.Time     `json:"start_date"`
	EndDate       *time.Time    `json:"end_date"` // nil = бессрочный
	IntervalWeeks int           `json:"interval_weeks"`
	StartTime     TimeOfDay     `json:"start_time"`
	EndTime       TimeOfDay     `json:"end_time"`
	ParentID      *int64        `json:"parent_contract_id"`
	ChildIDs      []int64       `json:"child_contract_ids"` // вычисляется при чтении
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// DayOfWeek день недели, выводится из даты начала
func (c *Contract) DayOfWeek() time.Weekday {
	return c.StartDate.Weekday()
}

// HasTeacher проверяет назначен ли учитель
func (c *Contract) HasTeacher() bool {
	return c.TeacherID != nil
}

// IsSubstitute проверяет является ли контракт заменой другого
func (c *Contract) IsSubstitute() bool {
	return c.ParentID != nil
}

// ActiveOn проверяет попадает ли дата в диапазон действия контракта
func (c *Contract) ActiveOn(date time.Time) bool {
	if date.Before(c.StartDate) {
		return false
	}
	return c.EndDate == nil || !date.After(*c.EndDate)
}

// LiveOn проверяет что контракт ещё действует (не отклонён и не закончился до даты)
func (c *Contract) LiveOn(today time.Time) bool {
	if c.State == ContractStateDeclined {
		return false
	}
	return c.EndDate == nil || !c.EndDate.Before(today)
}

// Clone возвращает копию контракта, не разделяющую срезы и указатели
func (c *Contract) Clone() *Contract {
	out := *c
	out.CustomerIDs = append([]int64(nil), c.CustomerIDs...)
	out.ChildIDs = append([]int64(nil), c.ChildIDs...)
	if c.TeacherID != nil {
		id := *c.TeacherID
		out.TeacherID = &id
	}
	if c.ParentID != nil {
		id := *c.ParentID
		out.ParentID = &id
	}
	if c.EndDate != nil {
		end := *c.EndDate
		out.EndDate = &end
	}
	return &out
}

// WeekOccurrence дата занятия контракта внутри недели
type WeekOccurrence struct {
	Date    time.Time `json:"date"`
	Blocked bool      `json:"blocked"`
}

// WeekContract контракт с его датами на запрошенной неделе
type WeekContract struct {
	Contract    *Contract        `json:"contract"`
	Occurrences []WeekOccurrence `json:"occurrences"`
}
