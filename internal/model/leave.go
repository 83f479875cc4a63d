package model

import (
	"time"

	"github.com/google/uuid"
)

type LeaveType string

const (
	LeaveTypeRegular LeaveType = "regular" // отпуск
	LeaveTypeSick    LeaveType = "sick"    // больничный
)

func (t LeaveType) Valid() bool {
	return t == LeaveTypeRegular || t == LeaveTypeSick
}

type LeaveState string

const (
	LeaveStatePending  LeaveState = "pending"
	LeaveStateAccepted LeaveState = "accepted"
	LeaveStateDeclined LeaveState = "declined"
)

// Leave период отсутствия учителя, даты включительно
type Leave struct {
	ID            int64      `json:"id"`
	TeacherID     int64      `json:"teacher_id"`
	Type          LeaveType  `json:"type"`
	State         LeaveState `json:"state"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       time.Time  `json:"end_date"`
	AttachmentRef *uuid.UUID `json:"attachment_ref,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// IsAccepted checks if the leave blocks lessons
func (l *Leave) IsAccepted() bool {
	return l.State == LeaveStateAccepted
}

// TeacherLeaves отпуска одного учителя
type TeacherLeaves struct {
	TeacherID int64    `json:"teacher_id"`
	Leaves    []*Leave `json:"leaves"`
}
