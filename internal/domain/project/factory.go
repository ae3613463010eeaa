package project

import (
	"time"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub/internal/domain/user"
)

// NewFromCreateRequest builds a Project owned by owner from the incoming DTO.
func NewFromCreateRequest(req CreateProjectRequest, owner user.User) Project {
	now := time.Now().UTC()

	return Project{
		ID:            uuid.NewString(),
		Name:          req.Name,
		Description:   req.Description,
		Color:         req.Color,
		Owner:         owner,
		Collaborators: []user.User{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Apply copies the non-nil fields of a partial update onto p.
func (p *Project) Apply(req UpdateProjectRequest) {
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Color != nil {
		p.Color = *req.Color
	}
	p.UpdatedAt = time.Now().UTC()
}
