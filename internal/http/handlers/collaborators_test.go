package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/taskhub/taskhub/internal/domain/project"
	"github.com/taskhub/taskhub/internal/domain/user"
	"github.com/taskhub/taskhub/internal/http/handlers"
)

type fakeCollabRepo struct {
	getFn     func(ctx context.Context, id string) (project.Project, error)
	addFn     func(ctx context.Context, projectID, userID string) error
	addBulkFn func(ctx context.Context, projectID string, userIDs []string) error
	removeFn  func(ctx context.Context, projectID, userID string) error
}

func (f *fakeCollabRepo) GetByID(ctx context.Context, id string) (project.Project, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}

	return project.Project{}, nil
}

func (f *fakeCollabRepo) AddCollaborator(ctx context.Context, projectID, userID string) error {
	if f.addFn != nil {
		return f.addFn(ctx, projectID, userID)
	}

	return nil
}

func (f *fakeCollabRepo) AddCollaborators(ctx context.Context, projectID string, userIDs []string) error {
	if f.addBulkFn != nil {
		return f.addBulkFn(ctx, projectID, userIDs)
	}

	return nil
}

func (f *fakeCollabRepo) RemoveCollaborator(ctx context.Context, projectID, userID string) error {
	if f.removeFn != nil {
		return f.removeFn(ctx, projectID, userID)
	}

	return nil
}

func TestAddCollaboratorHandler(t *testing.T) {
	owner := testUser(newUUID(), "owner")
	collaborator := testUser(newUUID(), "collab")
	newcomer := testUser(newUUID(), "newcomer")
	missingID := newUUID()
	projectID := newUUID()

	p := testProject(projectID, owner, collaborator)

	directory := &fakeUsersRepo{
		getByIDFn: func(ctx context.Context, id string) (user.User, error) {
			if id == missingID {
				return user.User{}, user.ErrNotFound
			}
			return testUser(id, "someone"), nil
		},
	}

	tests := []struct {
		name           string
		callerID       string
		body           string
		wantStatusCode int
		wantCode       string
	}{
		{
			name:           "owner_adds_new_user",
			callerID:       owner.ID,
			body:           `{"userId": "` + newcomer.ID + `"}`,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "unknown_user",
			callerID:       owner.ID,
			body:           `{"userId": "` + missingID + `"}`,
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "already_collaborator",
			callerID:       owner.ID,
			body:           `{"userId": "` + collaborator.ID + `"}`,
			wantStatusCode: http.StatusBadRequest,
			wantCode:       "already_collaborator",
		},
		{
			name:           "owner_as_collaborator",
			callerID:       owner.ID,
			body:           `{"userId": "` + owner.ID + `"}`,
			wantStatusCode: http.StatusBadRequest,
			wantCode:       "owner_collaborator",
		},
		{
			name:           "collaborator_cannot_manage",
			callerID:       collaborator.ID,
			body:           `{"userId": "` + newcomer.ID + `"}`,
			wantStatusCode: http.StatusForbidden,
		},
		{
			name:           "stranger_sees_nothing",
			callerID:       newUUID(),
			body:           `{"userId": "` + newcomer.ID + `"}`,
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "invalid_body",
			callerID:       owner.ID,
			body:           `{"userId": "nope"}`,
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeCollabRepo{
				getFn: func(ctx context.Context, id string) (project.Project, error) { return p, nil },
			}

			h := handlers.NewCollaboratorsHandler(repo, directory)
			r := setupRouterAs(tt.callerID, http.MethodPost, "/api/projects/:id/collaborators", h.AddCollaborator)

			req := httptest.NewRequest(http.MethodPost, "/api/projects/"+projectID+"/collaborators", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantCode != "" {
				var resp struct {
					Error struct {
						Code string `json:"code"`
					} `json:"error"`
				}

				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}

				if resp.Error.Code != tt.wantCode {
					t.Fatalf("got error code %q, want %q", resp.Error.Code, tt.wantCode)
				}
			}
		})
	}
}

// Bulk add: every id is classified, only the added set is persisted, and the
// call succeeds even when nothing was added.

func TestAddCollaboratorsBulkHandler(t *testing.T) {
	owner := testUser(newUUID(), "owner")
	existing := testUser(newUUID(), "existing")
	fresh := testUser(newUUID(), "fresh")
	missingID := newUUID()
	projectID := newUUID()

	p := testProject(projectID, owner, existing)

	directory := &fakeUsersRepo{
		existingIDsFn: func(ctx context.Context, ids []string) (map[string]bool, error) {
			out := make(map[string]bool)
			for _, id := range ids {
				if id != missingID {
					out[id] = true
				}
			}
			return out, nil
		},
	}

	persistCalls := 0
	var persisted []string

	repo := &fakeCollabRepo{
		getFn: func(ctx context.Context, id string) (project.Project, error) { return p, nil },
		addBulkFn: func(ctx context.Context, projectID string, userIDs []string) error {
			persistCalls++
			persisted = userIDs
			return nil
		},
	}

	h := handlers.NewCollaboratorsHandler(repo, directory)
	r := setupRouterAs(owner.ID, http.MethodPost, "/api/projects/:id/collaborators/bulk", h.AddCollaborators)

	// owner + existing collaborator + unknown + fresh, with a duplicate
	body := `{"userIds": ["` + owner.ID + `", "` + existing.ID + `", "` + missingID + `", "` + fresh.ID + `", "` + fresh.ID + `"]}`

	req := httptest.NewRequest(http.MethodPost, "/api/projects/"+projectID+"/collaborators/bulk", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Added    []string                       `json:"added"`
		Skipped  []handlers.SkippedCollaborator `json:"skipped"`
		NotFound []string                       `json:"notFound"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if !reflect.DeepEqual(resp.Added, []string{fresh.ID}) {
		t.Fatalf("added = %v, want [%s]", resp.Added, fresh.ID)
	}

	wantSkipped := []handlers.SkippedCollaborator{
		{UserID: owner.ID, Reason: "owner"},
		{UserID: existing.ID, Reason: "already_collaborator"},
	}

	if !reflect.DeepEqual(resp.Skipped, wantSkipped) {
		t.Fatalf("skipped = %v, want %v", resp.Skipped, wantSkipped)
	}

	if !reflect.DeepEqual(resp.NotFound, []string{missingID}) {
		t.Fatalf("notFound = %v, want [%s]", resp.NotFound, missingID)
	}

	if persistCalls != 1 {
		t.Fatalf("expected exactly one persist call, got %d", persistCalls)
	}

	if !reflect.DeepEqual(persisted, []string{fresh.ID}) {
		t.Fatalf("persisted = %v, want only the added set", persisted)
	}
}

func TestAddCollaboratorsBulkHandler_AllSkipped(t *testing.T) {
	owner := testUser(newUUID(), "owner")
	existing := testUser(newUUID(), "existing")
	projectID := newUUID()

	p := testProject(projectID, owner, existing)

	persistedEmpty := false

	repo := &fakeCollabRepo{
		getFn: func(ctx context.Context, id string) (project.Project, error) { return p, nil },
		addBulkFn: func(ctx context.Context, projectID string, userIDs []string) error {
			persistedEmpty = len(userIDs) == 0
			return nil
		},
	}

	h := handlers.NewCollaboratorsHandler(repo, &fakeUsersRepo{})
	r := setupRouterAs(owner.ID, http.MethodPost, "/api/projects/:id/collaborators/bulk", h.AddCollaborators)

	body := `{"userIds": ["` + owner.ID + `", "` + existing.ID + `"]}`

	req := httptest.NewRequest(http.MethodPost, "/api/projects/"+projectID+"/collaborators/bulk", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	if !persistedEmpty {
		t.Fatalf("expected persist with empty added set")
	}
}

func TestListCollaboratorsHandler(t *testing.T) {
	owner := testUser(newUUID(), "owner")
	collaborator := testUser(newUUID(), "collab")
	projectID := newUUID()

	p := testProject(projectID, owner, collaborator)

	tests := []struct {
		name           string
		callerID       string
		wantStatusCode int
	}{
		{"owner_lists", owner.ID, http.StatusOK},
		{"collaborator_cannot_manage", collaborator.ID, http.StatusForbidden},
		{"stranger_sees_nothing", newUUID(), http.StatusNotFound},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeCollabRepo{
				getFn: func(ctx context.Context, id string) (project.Project, error) { return p, nil },
			}

			h := handlers.NewCollaboratorsHandler(repo, &fakeUsersRepo{})
			r := setupRouterAs(tt.callerID, http.MethodGet, "/api/projects/:id/collaborators", h.ListCollaborators)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/projects/"+projectID+"/collaborators", nil))

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode != http.StatusOK {
				return
			}

			var resp struct {
				Collaborators []user.User `json:"collaborators"`
				Count         int         `json:"count"`
			}

			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}

			if resp.Count != 1 || len(resp.Collaborators) != 1 || resp.Collaborators[0].ID != collaborator.ID {
				t.Fatalf("unexpected collaborator list: %+v", resp)
			}
		})
	}
}

func TestRemoveCollaboratorHandler(t *testing.T) {
	owner := testUser(newUUID(), "owner")
	collaborator := testUser(newUUID(), "collab")
	outsider := testUser(newUUID(), "outsider")
	projectID := newUUID()

	p := testProject(projectID, owner, collaborator)

	tests := []struct {
		name           string
		callerID       string
		body           string
		repoSetup      func(*fakeCollabRepo)
		wantStatusCode int
	}{
		{
			name:     "owner_removes_collaborator",
			callerID: owner.ID,
			body:     `{"userId": "` + collaborator.ID + `"}`,
			repoSetup: func(f *fakeCollabRepo) {
				f.removeFn = func(ctx context.Context, projectID, userID string) error { return nil }
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:     "not_a_collaborator",
			callerID: owner.ID,
			body:     `{"userId": "` + outsider.ID + `"}`,
			repoSetup: func(f *fakeCollabRepo) {
				f.removeFn = func(ctx context.Context, projectID, userID string) error {
					return project.ErrNotCollaborator
				}
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "collaborator_cannot_manage",
			callerID:       collaborator.ID,
			body:           `{"userId": "` + collaborator.ID + `"}`,
			wantStatusCode: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeCollabRepo{
				getFn: func(ctx context.Context, id string) (project.Project, error) { return p, nil },
			}

			if tt.repoSetup != nil {
				tt.repoSetup(repo)
			}

			h := handlers.NewCollaboratorsHandler(repo, &fakeUsersRepo{})
			r := setupRouterAs(tt.callerID, http.MethodDelete, "/api/projects/:id/collaborators", h.RemoveCollaborator)

			req := httptest.NewRequest(http.MethodDelete, "/api/projects/"+projectID+"/collaborators", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}
