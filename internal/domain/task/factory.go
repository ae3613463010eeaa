package task

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NewFromCreateRequest builds a Task from the incoming DTO, applying the
// default status/priority when the client omitted them.
func NewFromCreateRequest(req CreateTaskRequest) Task {
	now := time.Now().UTC()

	status := req.Status
	if status == "" {
		status = StatusPending
	}

	priority := req.Priority
	if priority == "" {
		priority = PriorityMedium
	}

	return Task{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		Priority:    priority,
		DueDate:     req.DueDate,
		ProjectID:   req.ProjectID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Apply copies the non-nil fields of a partial update onto t. Assignment is
// handled by the caller since it needs a membership check first.
func (t *Task) Apply(req UpdateTaskRequest) {
	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Status != nil {
		t.Status = *req.Status
	}
	if req.Priority != nil {
		t.Priority = *req.Priority
	}
	if req.DueDate != nil {
		t.DueDate = req.DueDate
	}
	t.UpdatedAt = time.Now().UTC()
}

// UnmarshalJSON keeps the standard decoding but additionally records whether
// the client sent an explicit "assignedUserId": null, which means unassign
// rather than leave-as-is.
func (r *UpdateTaskRequest) UnmarshalJSON(b []byte) error {
	type alias UpdateTaskRequest

	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*r = UpdateTaskRequest(a)

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(b, &probe); err == nil {
		if raw, ok := probe["assignedUserId"]; ok && string(raw) == "null" {
			r.Unassign = true
		}
	}

	return nil
}

// sortColumns is the whitelist of client-facing sort keys. Anything else
// silently falls back to createdAt.
var sortColumns = map[string]struct{}{
	"createdAt": {},
	"dueDate":   {},
	"priority":  {},
	"status":    {},
	"title":     {},
}

// NormalizeSort maps the requested sort key/order onto the whitelist,
// defaulting to createdAt DESC.
func NormalizeSort(sortBy, sortOrder string) (string, string) {
	if _, ok := sortColumns[sortBy]; !ok {
		sortBy = "createdAt"
	}

	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	return sortBy, sortOrder
}
