package task_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/taskhub/taskhub/internal/domain/task"
)

func TestNewFromCreateRequest_Defaults(t *testing.T) {
	got := task.NewFromCreateRequest(task.CreateTaskRequest{
		Title:     "Write copy",
		ProjectID: "p1",
	})

	if got.Status != task.StatusPending {
		t.Fatalf("status = %q, want pending", got.Status)
	}

	if got.Priority != task.PriorityMedium {
		t.Fatalf("priority = %q, want medium", got.Priority)
	}

	if got.ID == "" {
		t.Fatal("expected a generated id")
	}

	if got.CreatedAt.IsZero() || !got.CreatedAt.Equal(got.UpdatedAt) {
		t.Fatalf("timestamps not initialized together: %v vs %v", got.CreatedAt, got.UpdatedAt)
	}
}

func TestNewFromCreateRequest_KeepsExplicitValues(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	got := task.NewFromCreateRequest(task.CreateTaskRequest{
		Title:     "Ship homepage",
		ProjectID: "p1",
		Status:    task.StatusInProgress,
		Priority:  task.PriorityHigh,
		DueDate:   &due,
	})

	if got.Status != task.StatusInProgress || got.Priority != task.PriorityHigh {
		t.Fatalf("explicit status/priority overwritten: %q/%q", got.Status, got.Priority)
	}

	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Fatalf("dueDate = %v, want %v", got.DueDate, due)
	}
}

func TestApply_OnlyTouchesProvidedFields(t *testing.T) {
	tk := task.Task{
		Title:       "Original",
		Description: "keep me",
		Status:      task.StatusPending,
		Priority:    task.PriorityLow,
	}

	status := task.StatusCompleted
	tk.Apply(task.UpdateTaskRequest{Status: &status})

	if tk.Status != task.StatusCompleted {
		t.Fatalf("status = %q, want completed", tk.Status)
	}

	if tk.Title != "Original" || tk.Description != "keep me" || tk.Priority != task.PriorityLow {
		t.Fatalf("untouched fields changed: %+v", tk)
	}

	if tk.UpdatedAt.IsZero() {
		t.Fatal("UpdatedAt not bumped")
	}
}

// The wire format distinguishes "assignedUserId": null (unassign) from the
// key being absent (leave as is).
func TestUpdateTaskRequest_UnmarshalNullAssignee(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		wantUnassign bool
		wantID       *string
	}{
		{"explicit_null", `{"assignedUserId": null}`, true, nil},
		{"key_absent", `{"title": "x"}`, false, nil},
		{"real_id", `{"assignedUserId": "0d6f9a2e-8f4b-4bd4-9a1e-1f2a3b4c5d6e"}`, false, ptr("0d6f9a2e-8f4b-4bd4-9a1e-1f2a3b4c5d6e")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req task.UpdateTaskRequest

			if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}

			if req.Unassign != tt.wantUnassign {
				t.Fatalf("Unassign = %v, want %v", req.Unassign, tt.wantUnassign)
			}

			if (req.AssignedUserID == nil) != (tt.wantID == nil) {
				t.Fatalf("AssignedUserID = %v, want %v", req.AssignedUserID, tt.wantID)
			}

			if tt.wantID != nil && *req.AssignedUserID != *tt.wantID {
				t.Fatalf("AssignedUserID = %q, want %q", *req.AssignedUserID, *tt.wantID)
			}
		})
	}
}

func TestNormalizeSort(t *testing.T) {
	tests := []struct {
		name      string
		sortBy    string
		sortOrder string
		wantBy    string
		wantOrder string
	}{
		{"defaults", "", "", "createdAt", "DESC"},
		{"whitelisted", "dueDate", "ASC", "dueDate", "ASC"},
		{"unknown_key_falls_back", "passwordHash", "ASC", "createdAt", "ASC"},
		{"bad_order_falls_back", "title", "sideways", "title", "DESC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			by, order := task.NormalizeSort(tt.sortBy, tt.sortOrder)

			if by != tt.wantBy || order != tt.wantOrder {
				t.Fatalf("got (%q,%q), want (%q,%q)", by, order, tt.wantBy, tt.wantOrder)
			}
		})
	}
}

func ptr(s string) *string { return &s }
