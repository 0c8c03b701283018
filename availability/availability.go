// Package availability manages mentors' weekly availability slots.
package availability

import (
	"context"
	"time"
)

// DayOfWeek is a lowercase weekday name.
type DayOfWeek string

const (
	Monday    DayOfWeek = "monday"
	Tuesday   DayOfWeek = "tuesday"
	Wednesday DayOfWeek = "wednesday"
	Thursday  DayOfWeek = "thursday"
	Friday    DayOfWeek = "friday"
	Saturday  DayOfWeek = "saturday"
	Sunday    DayOfWeek = "sunday"
)

// dayOrder gives the natural Monday → Sunday sort order for display.
var dayOrder = map[DayOfWeek]int{
	Monday:    0,
	Tuesday:   1,
	Wednesday: 2,
	Thursday:  3,
	Friday:    4,
	Saturday:  5,
	Sunday:    6,
}

// Slot is one weekly availability window. StartTime and EndTime are
// "HH:MM" strings; lexicographic comparison is identical to chronological.
type Slot struct {
	ID        string    `json:"id"`
	MentorID  string    `json:"mentor_id"`
	DayOfWeek DayOfWeek `json:"day_of_week"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Repo stores availability slots. FindOverlap returns the first active
// slot of the mentor on the given day whose half-open interval intersects
// [startTime, endTime), excluding excludeID, or apperrors.ErrSlotNotFound
// when there is none.
type Repo interface {
	Create(ctx context.Context, slot *Slot) error
	GetByID(ctx context.Context, id string) (*Slot, error)
	ListByMentor(ctx context.Context, mentorID string, activeOnly bool) ([]*Slot, error)
	FindOverlap(ctx context.Context, mentorID string, day DayOfWeek, startTime, endTime, excludeID string) (*Slot, error)
	Update(ctx context.Context, slot *Slot) error
	Delete(ctx context.Context, id string) error
}
