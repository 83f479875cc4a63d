package model

// Subject запись справочника предметов
type Subject struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	ShortForm string `json:"short_form"`
}

type EmploymentState string

const (
	EmploymentEmployed  EmploymentState = "employed"
	EmploymentContract  EmploymentState = "contract"
	EmploymentFormer    EmploymentState = "former"
	EmploymentApplicant EmploymentState = "applicant"
)

// CanTeach проверяет может ли учитель с таким статусом получать контракты
func (s EmploymentState) CanTeach() bool {
	return s == EmploymentEmployed || s == EmploymentContract
}

// Teacher запись справочника учителей
type Teacher struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	SubjectIDs      []int64         `json:"subject_ids"`
	EmploymentState EmploymentState `json:"employment_state"`
	City            string          `json:"city"`
	TelegramID      *int64          `json:"telegram_id,omitempty"`
}

// Teaches проверяет ведёт ли учитель предмет
func (t *Teacher) Teaches(subjectID int64) bool {
	for _, id := range t.SubjectIDs {
		if id == subjectID {
			return true
		}
	}
	return false
}

// QualifiedFor checks both the subject and the employment state
func (t *Teacher) QualifiedFor(subjectID int64) bool {
	return t.EmploymentState.CanTeach() && t.Teaches(subjectID)
}
