package models

import "time"

// Kind tags the two reminder-bearing item variants.
type Kind string

const (
	KindEvent Kind = "event"
	KindTodo  Kind = "todo"
)

func (k Kind) Valid() bool {
	return k == KindEvent || k == KindTodo
}

// PendingStatus is the status a freshly created item of this kind carries,
// and the only status the due scan matches.
func (k Kind) PendingStatus() Status {
	if k == KindTodo {
		return StatusPending
	}
	return StatusActive
}

// TargetView is the client view the push payload deep-links to.
func (k Kind) TargetView() string {
	if k == KindTodo {
		return "todo"
	}
	return "calendar"
}

type Status string

const (
	StatusActive    Status = "active"    // event waiting for its trigger
	StatusPending   Status = "pending"   // todo waiting for its trigger
	StatusSent      Status = "sent"      // one-shot notification delivered
	StatusCompleted Status = "completed" // recurring event retired
)

// Terminal reports whether no further scheduled processing occurs.
func (s Status) Terminal() bool {
	return s == StatusSent || s == StatusCompleted
}

type Recurrence string

const (
	RecurNone    Recurrence = "none"
	RecurDaily   Recurrence = "daily"
	RecurWeekly  Recurrence = "weekly"
	RecurMonthly Recurrence = "monthly"
)

func (r Recurrence) Valid() bool {
	switch r {
	case RecurNone, RecurDaily, RecurWeekly, RecurMonthly:
		return true
	}
	return false
}

// LeadTime is the offset between an item's anchor time and the moment its
// notification should fire.
type LeadTime string

const (
	LeadNone  LeadTime = "none"
	Lead15Min LeadTime = "15m"
	LeadHour  LeadTime = "1h"
	LeadDay   LeadTime = "1d"
)

func (l LeadTime) Valid() bool {
	switch l {
	case LeadNone, Lead15Min, LeadHour, LeadDay:
		return true
	}
	return false
}

func (l LeadTime) Offset() time.Duration {
	switch l {
	case Lead15Min:
		return 15 * time.Minute
	case LeadHour:
		return time.Hour
	case LeadDay:
		return 24 * time.Hour
	}
	return 0
}

// ReminderItem is a reminder-bearing item of either kind. Ownership is stored
// directly on the row rather than derived from where it lives.
type ReminderItem struct {
	ID            string     `json:"id"`
	OwnerID       string     `json:"owner_id"`
	Kind          Kind       `json:"kind"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Responsible   string     `json:"responsible"` // todos only
	AnchorTime    time.Time  `json:"anchor_time"` // event start time, or todo due time
	LeadTime      LeadTime   `json:"lead_time"`
	Recurrence    Recurrence `json:"recurrence"`
	NextTriggerAt *time.Time `json:"next_trigger_at"` // nil once terminal
	Status        Status     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Recurring reports whether the item re-arms after a notification. Todos
// never recur, whatever their stored recurrence says.
func (i *ReminderItem) Recurring() bool {
	return i.Kind == KindEvent && i.Recurrence != RecurNone && i.Recurrence != ""
}

// InitialTrigger derives the first notification time for a new item.
func InitialTrigger(anchor time.Time, lead LeadTime) time.Time {
	return anchor.Add(-lead.Offset())
}

// ItemMutation is one staged state transition from a scheduler run. A nil
// NextTriggerAt unschedules the item.
type ItemMutation struct {
	ID            string
	Status        Status
	NextTriggerAt *time.Time
}
