package model

import "time"

// UnassignedTeacherName имя синтетического кандидата "без учителя"
const UnassignedTeacherName = "unassigned"

// Suggestion вычисляемый кандидат (учитель + свободные окна), в БД не хранится
type Suggestion struct {
	TeacherID   *int64          `json:"teacher_id"` // nil = не назначен
	TeacherName string          `json:"teacher_name"`
	Slots       []SuggestedSlot `json:"slots"`
}

// IsUnassigned проверяет синтетического кандидата
func (s *Suggestion) IsUnassigned() bool {
	return s.TeacherID == nil
}

// SuggestedSlot свободное окно в определённый день недели.
// OverlapContractIDs - контракты, которые могут пересечься (мягкое предупреждение).
type SuggestedSlot struct {
	DayOfWeek          time.Weekday `json:"day_of_week"`
	Start              TimeOfDay    `json:"start"`
	End                TimeOfDay    `json:"end"`
	OverlapContractIDs []int64      `json:"overlap_contract_ids"`
}

// Fits проверяет помещается ли интервал [start, end) в окно
func (s SuggestedSlot) Fits(day time.Weekday, start, end TimeOfDay) bool {
	return s.DayOfWeek == day && start >= s.Start && end <= s.End && start < end
}
