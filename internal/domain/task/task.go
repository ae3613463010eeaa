package task

import (
	"errors"
	"time"

	"github.com/taskhub/taskhub/internal/domain/user"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Valid reports whether s is one of the known statuses. Query-string
// filters arrive unvalidated, unlike bound JSON bodies.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ProjectRef is the slice of the parent project that task payloads carry.
type ProjectRef struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Color   string `json:"color"`
	OwnerID string `json:"ownerId"`
}

type Task struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Status       Status     `json:"status"`
	Priority     Priority   `json:"priority"`
	DueDate      *time.Time `json:"dueDate"`
	ProjectID    string     `json:"projectId"`
	Project      ProjectRef `json:"project"`
	AssignedUser *user.User `json:"assignedUser"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

var ErrNotFound = errors.New("task not found")

type CreateTaskRequest struct {
	Title          string     `json:"title" binding:"required,min=1,max=200"`
	Description    string     `json:"description" binding:"omitempty,max=2000"`
	ProjectID      string     `json:"projectId" binding:"required,uuid"`
	Status         Status     `json:"status" binding:"omitempty,oneof=pending in-progress completed"`
	Priority       Priority   `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate        *time.Time `json:"dueDate" binding:"omitempty"`
	AssignedUserID *string    `json:"assignedUserId" binding:"omitempty,uuid"`
}

// partial update, nil means "leave as is"; AssignedUserID distinguishes
// absent (no change) from JSON null (unassign) via Unassign.
type UpdateTaskRequest struct {
	Title          *string    `json:"title" binding:"omitempty,min=1,max=200"`
	Description    *string    `json:"description" binding:"omitempty,max=2000"`
	Status         *Status    `json:"status" binding:"omitempty,oneof=pending in-progress completed"`
	Priority       *Priority  `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate        *time.Time `json:"dueDate" binding:"omitempty"`
	AssignedUserID *string    `json:"assignedUserId" binding:"omitempty,uuid"`
	Unassign       bool       `json:"-"`
}

// with pointers if optional, it will be nil
type ListTasksFilter struct {
	Status         *Status
	Priority       *Priority
	ProjectID      *string
	AssignedUserID *string
	SortBy         string
	SortOrder      string
	Limit          int
	Offset         int
}
