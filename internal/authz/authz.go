// Package authz decides what an authenticated user may do with a project or
// task. Predicates operate on already-loaded relation data and never touch
// storage or the HTTP layer; handlers load the entity first and act on the
// returned Decision.
package authz

import "github.com/taskhub/taskhub/internal/domain/project"

type Decision int

const (
	// Authorized: the user may perform the requested operation.
	Authorized Decision = iota
	// Forbidden: the user can see the entity but lacks the required right.
	Forbidden
	// NotFound: the entity must be presented as non-existent to this user.
	NotFound
)

// CanView reports whether userID is the owner or a collaborator.
func CanView(p project.Project, userID string) bool {
	return p.Owner.ID == userID || p.IsCollaborator(userID)
}

// CanEdit is strict owner-only: project mutation and collaborator management.
func CanEdit(p project.Project, userID string) bool {
	return p.Owner.ID == userID
}

// CanEditTask is broader than CanEdit: any member of the parent project may
// mutate any of its tasks.
func CanEditTask(p project.Project, userID string) bool {
	return CanView(p, userID)
}

// CheckView hides existence from non-members: a user who cannot view the
// project is told it does not exist.
func CheckView(p project.Project, userID string) Decision {
	if !CanView(p, userID) {
		return NotFound
	}
	return Authorized
}

// CheckEdit layers the owner-only rule on top of visibility. Non-members get
// NotFound, members without ownership get Forbidden.
func CheckEdit(p project.Project, userID string) Decision {
	if !CanView(p, userID) {
		return NotFound
	}
	if !CanEdit(p, userID) {
		return Forbidden
	}
	return Authorized
}
