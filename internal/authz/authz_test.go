package authz_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub/internal/authz"
	"github.com/taskhub/taskhub/internal/domain/project"
	"github.com/taskhub/taskhub/internal/domain/user"
)

func testProject(ownerID string, collaboratorIDs ...string) project.Project {
	p := project.Project{
		ID:    uuid.NewString(),
		Name:  "Roadmap",
		Owner: user.User{ID: ownerID, Email: "owner@example.com", Name: "Owner"},
	}

	for _, id := range collaboratorIDs {
		p.Collaborators = append(p.Collaborators, user.User{ID: id})
	}

	return p
}

func TestCanView(t *testing.T) {
	owner := uuid.NewString()
	collab := uuid.NewString()
	stranger := uuid.NewString()

	p := testProject(owner, collab)

	tests := []struct {
		name   string
		userID string
		want   bool
	}{
		{"owner", owner, true},
		{"collaborator", collab, true},
		{"stranger", stranger, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := authz.CanView(p, tt.userID); got != tt.want {
				t.Fatalf("CanView(%s) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestCheckEdit_OrderingOfOutcomes(t *testing.T) {
	owner := uuid.NewString()
	collab := uuid.NewString()
	stranger := uuid.NewString()

	p := testProject(owner, collab)

	tests := []struct {
		name   string
		userID string
		want   authz.Decision
	}{
		{"owner_authorized", owner, authz.Authorized},
		// a collaborator can see the project, so the failure is Forbidden
		{"collaborator_forbidden", collab, authz.Forbidden},
		// a stranger must not learn the project exists
		{"stranger_not_found", stranger, authz.NotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := authz.CheckEdit(p, tt.userID); got != tt.want {
				t.Fatalf("CheckEdit(%s) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestCheckView_HidesExistenceFromStrangers(t *testing.T) {
	owner := uuid.NewString()
	p := testProject(owner)

	if got := authz.CheckView(p, uuid.NewString()); got != authz.NotFound {
		t.Fatalf("CheckView(stranger) = %v, want NotFound", got)
	}

	if got := authz.CheckView(p, owner); got != authz.Authorized {
		t.Fatalf("CheckView(owner) = %v, want Authorized", got)
	}
}

func TestCanEditTask_AnyMemberMayMutate(t *testing.T) {
	owner := uuid.NewString()
	collab := uuid.NewString()

	p := testProject(owner, collab)

	if !authz.CanEditTask(p, collab) {
		t.Fatalf("collaborator should be allowed to edit tasks")
	}

	if authz.CanEditTask(p, uuid.NewString()) {
		t.Fatalf("stranger should not be allowed to edit tasks")
	}
}
