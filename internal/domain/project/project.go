package project

import (
	"errors"
	"time"

	"github.com/taskhub/taskhub/internal/domain/user"
)

type Project struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	Color         string      `json:"color"`
	Owner         user.User   `json:"owner"`
	Collaborators []user.User `json:"collaborators"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

var ErrNotFound = errors.New("project not found")

// collaborator set violations, both surfaced as client errors
var ErrAlreadyCollaborator = errors.New("user is already a collaborator")
var ErrOwnerCollaborator = errors.New("owner cannot be a collaborator")
var ErrNotCollaborator = errors.New("user is not a collaborator")

// IsCollaborator reports whether userID is in the loaded collaborator set.
func (p Project) IsCollaborator(userID string) bool {
	for _, c := range p.Collaborators {
		if c.ID == userID {
			return true
		}
	}
	return false
}

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=120"`
	Description string `json:"description" binding:"omitempty,max=1000"`
	Color       string `json:"color" binding:"required,hexcolor"`
}

// partial update, nil means "leave as is"
type UpdateProjectRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=120"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
	Color       *string `json:"color" binding:"omitempty,hexcolor"`
}

// with pointers if optional, it will be nil
type ListProjectsFilter struct {
	Search *string
	Limit  int
	Offset int
}
