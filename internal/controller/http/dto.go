package http

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/Freeeeeet/contract_scheduler/internal/model"
	"github.com/Freeeeeet/contract_scheduler/internal/service"
	"github.com/google/uuid"
)

const dateLayout = time.DateOnly

// Date календарная дата в формате YYYY-MM-DD
type Date struct {
	time.Time
}

// ParseDate разбирает YYYY-MM-DD в полночь UTC
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(d.String())), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func toDate(t time.Time) Date {
	return Date{Time: t}
}

func toDatePtr(t *time.Time) *Date {
	if t == nil {
		return nil
	}
	d := toDate(*t)
	return &d
}

func fromDatePtr(d *Date) *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

// ---------- запросы ----------

type contractRequest struct {
	SubjectID     int64               `json:"subject_id" validate:"required,gt=0"`
	CustomerIDs   []int64             `json:"customer_ids" validate:"required,min=1,dive,gt=0"`
	TeacherID     *int64              `json:"teacher_id" validate:"omitempty,gt=0"`
	State         model.ContractState `json:"state" validate:"omitempty,oneof=pending accepted declined"`
	Type          model.ContractType  `json:"contract_type" validate:"omitempty,oneof=standard online"`
	StartDate     Date                `json:"start_date"`
	EndDate       *Date               `json:"end_date"`
	IntervalWeeks int                 `json:"interval_weeks" validate:"required,gte=1,lte=52"`
	StartTime     model.TimeOfDay     `json:"start_time"`
	EndTime       model.TimeOfDay     `json:"end_time"`
	ParentID      *int64              `json:"parent_contract_id" validate:"omitempty,gt=0"`
}

func (r contractRequest) toInput() service.ContractInput {
	return service.ContractInput{
		SubjectID:     r.SubjectID,
		CustomerIDs:   r.CustomerIDs,
		TeacherID:     r.TeacherID,
		State:         r.State,
		Type:          r.Type,
		StartDate:     r.StartDate.Time,
		EndDate:       fromDatePtr(r.EndDate),
		IntervalWeeks: r.IntervalWeeks,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		ParentID:      r.ParentID,
	}
}

// contractPatchRequest частичное изменение; clear_* сбрасывают необязательные поля
type contractPatchRequest struct {
	SubjectID     *int64               `json:"subject_id" validate:"omitempty,gt=0"`
	CustomerIDs   []int64              `json:"customer_ids" validate:"omitempty,min=1,dive,gt=0"`
	TeacherID     *int64               `json:"teacher_id" validate:"omitempty,gt=0"`
	ClearTeacher  bool                 `json:"clear_teacher"`
	State         *model.ContractState `json:"state" validate:"omitempty,oneof=pending accepted declined"`
	Type          *model.ContractType  `json:"contract_type" validate:"omitempty,oneof=standard online"`
	StartDate     *Date                `json:"start_date"`
	EndDate       *Date                `json:"end_date"`
	ClearEndDate  bool                 `json:"clear_end_date"`
	IntervalWeeks *int                 `json:"interval_weeks" validate:"omitempty,gte=1,lte=52"`
	StartTime     *model.TimeOfDay     `json:"start_time"`
	EndTime       *model.TimeOfDay     `json:"end_time"`
}

func (r contractPatchRequest) toPatch() service.ContractPatch {
	return service.ContractPatch{
		SubjectID:     r.SubjectID,
		CustomerIDs:   r.CustomerIDs,
		TeacherID:     r.TeacherID,
		ClearTeacher:  r.ClearTeacher,
		State:         r.State,
		Type:          r.Type,
		StartDate:     fromDatePtr(r.StartDate),
		EndDate:       fromDatePtr(r.EndDate),
		ClearEndDate:  r.ClearEndDate,
		IntervalWeeks: r.IntervalWeeks,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
	}
}

type endContractRequest struct {
	EndDate Date `json:"end_date"`
}

type lessonRequest struct {
	ContractID int64             `json:"contract_id" validate:"required,gt=0"`
	Date       Date              `json:"date"`
	State      model.LessonState `json:"state" validate:"required,oneof=idle held cancelled"`
	Notes      string            `json:"notes" validate:"max=2000"`
}

type leaveRequest struct {
	TeacherID     int64           `json:"teacher_id" validate:"required,gt=0"`
	Type          model.LeaveType `json:"type" validate:"required,oneof=regular sick"`
	StartDate     Date            `json:"start_date"`
	EndDate       Date            `json:"end_date"`
	AttachmentRef *uuid.UUID      `json:"attachment_ref"`
}

type windowRequest struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

func (r windowRequest) toRange() model.DateRange {
	return model.DateRange{Start: r.Start.Time, End: r.End.Time}
}

type substitutionRequest struct {
	windowRequest
	TeacherID *int64          `json:"teacher_id" validate:"omitempty,gt=0"`
	DayOfWeek time.Weekday    `json:"day_of_week" validate:"gte=1,lte=5"`
	StartTime model.TimeOfDay `json:"start_time"`
	EndTime   model.TimeOfDay `json:"end_time"`
	Confirm   bool            `json:"confirm"`
}

func (r substitutionRequest) toChoice() model.SubstitutionChoice {
	return model.SubstitutionChoice{
		TeacherID: r.TeacherID,
		DayOfWeek: r.DayOfWeek,
		Start:     r.StartTime,
		End:       r.EndTime,
		Confirm:   r.Confirm,
	}
}

// ---------- ответы ----------

type contractResponse struct {
	ID            int64               `json:"id"`
	SubjectID     int64               `json:"subject_id"`
	CustomerIDs   []int64             `json:"customer_ids"`
	TeacherID     *int64              `json:"teacher_id"`
	State         model.ContractState `json:"state"`
	Type          model.ContractType  `json:"contract_type"`
	DayOfWeek     time.Weekday        `json:"day_of_week"`
	StartDate     Date                `json:"start_date"`
	EndDate       *Date               `json:"end_date"`
	IntervalWeeks int                 `json:"interval_weeks"`
	StartTime     model.TimeOfDay     `json:"start_time"`
	EndTime       model.TimeOfDay     `json:"end_time"`
	ParentID      *int64              `json:"parent_contract_id"`
	ChildIDs      []int64             `json:"child_contract_ids"`
}

func newContractResponse(c *model.Contract) contractResponse {
	children := c.ChildIDs
	if children == nil {
		children = []int64{}
	}
	return contractResponse{
		ID:            c.ID,
		SubjectID:     c.SubjectID,
		CustomerIDs:   c.CustomerIDs,
		TeacherID:     c.TeacherID,
		State:         c.State,
		Type:          c.Type,
		DayOfWeek:     c.DayOfWeek(),
		StartDate:     toDate(c.StartDate),
		EndDate:       toDatePtr(c.EndDate),
		IntervalWeeks: c.IntervalWeeks,
		StartTime:     c.StartTime,
		EndTime:       c.EndTime,
		ParentID:      c.ParentID,
		ChildIDs:      children,
	}
}

type occurrenceResponse struct {
	Date    Date `json:"date"`
	Blocked bool `json:"blocked"`
}

type weekContractResponse struct {
	contractResponse
	Occurrences []occurrenceResponse `json:"occurrences"`
}

type lessonResponse struct {
	ID         int64             `json:"id"`
	ContractID int64             `json:"contract_id"`
	Date       Date              `json:"date"`
	State      model.LessonState `json:"state"`
	Notes      string            `json:"notes"`
	Blocked    bool              `json:"blocked"`
}

func newLessonResponse(l *model.Lesson) lessonResponse {
	return lessonResponse{
		ID:         l.ID,
		ContractID: l.ContractID,
		Date:       toDate(l.Date),
		State:      l.State,
		Notes:      l.Notes,
		Blocked:    l.Blocked,
	}
}

type weekResponse struct {
	WeekStart Date                   `json:"week_start"`
	WeekEnd   Date                   `json:"week_end"`
	Contracts []weekContractResponse `json:"contracts"`
	Lessons   []lessonResponse       `json:"lessons"`
}

func newWeekResponse(v *model.WeekView) weekResponse {
	resp := weekResponse{
		WeekStart: toDate(v.WeekStart),
		WeekEnd:   toDate(v.WeekEnd),
		Contracts: make([]weekContractResponse, 0, len(v.Contracts)),
		Lessons:   make([]lessonResponse, 0, len(v.Lessons)),
	}
	for _, wc := range v.Contracts {
		item := weekContractResponse{contractResponse: newContractResponse(wc.Contract)}
		for _, o := range wc.Occurrences {
			item.Occurrences = append(item.Occurrences, occurrenceResponse{Date: toDate(o.Date), Blocked: o.Blocked})
		}
		resp.Contracts = append(resp.Contracts, item)
	}
	for _, l := range v.Lessons {
		resp.Lessons = append(resp.Lessons, newLessonResponse(l))
	}
	return resp
}

type leaveResponse struct {
	ID            int64            `json:"id"`
	TeacherID     int64            `json:"teacher_id"`
	Type          model.LeaveType  `json:"type"`
	State         model.LeaveState `json:"state"`
	StartDate     Date             `json:"start_date"`
	EndDate       Date             `json:"end_date"`
	AttachmentRef *uuid.UUID       `json:"attachment_ref"`
}

func newLeaveResponse(l *model.Leave) leaveResponse {
	return leaveResponse{
		ID:            l.ID,
		TeacherID:     l.TeacherID,
		Type:          l.Type,
		State:         l.State,
		StartDate:     toDate(l.StartDate),
		EndDate:       toDate(l.EndDate),
		AttachmentRef: l.AttachmentRef,
	}
}

type teacherLeavesResponse struct {
	TeacherID int64           `json:"teacher_id"`
	Leaves    []leaveResponse `json:"leaves"`
}

type substitutionPlanResponse struct {
	Parent        contractResponse   `json:"parent"`
	AffectedDates []Date             `json:"affected_dates"`
	From          Date               `json:"from"`
	To            Date               `json:"to"`
	Suggestions   []model.Suggestion `json:"suggestions"`
}

func newSubstitutionPlanResponse(p *model.SubstitutionPlan) substitutionPlanResponse {
	resp := substitutionPlanResponse{
		Parent:      newContractResponse(p.Parent),
		From:        toDate(p.From),
		To:          toDate(p.To),
		Suggestions: p.Suggestions,
	}
	for _, d := range p.AffectedDates {
		resp.AffectedDates = append(resp.AffectedDates, toDate(d))
	}
	return resp
}
