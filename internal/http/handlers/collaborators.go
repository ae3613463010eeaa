package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskhub/taskhub/internal/authz"
	"github.com/taskhub/taskhub/internal/config"
	"github.com/taskhub/taskhub/internal/domain/project"
	"github.com/taskhub/taskhub/internal/domain/user"
	"github.com/taskhub/taskhub/internal/http/middlewares"
	"github.com/taskhub/taskhub/internal/utils"
)

type CollaboratorsStore interface {
	GetByID(ctx context.Context, id string) (project.Project, error)
	AddCollaborator(ctx context.Context, projectID, userID string) error
	AddCollaborators(ctx context.Context, projectID string, userIDs []string) error
	RemoveCollaborator(ctx context.Context, projectID, userID string) error
}

// UserDirectory is what collaborator management needs from the users store.
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)
}

type CollaboratorsHandler struct {
	repo  CollaboratorsStore
	users UserDirectory
}

func NewCollaboratorsHandler(repo CollaboratorsStore, users UserDirectory) *CollaboratorsHandler {
	return &CollaboratorsHandler{repo: repo, users: users}
}

type CollaboratorRequest struct {
	UserID string `json:"userId" binding:"required,uuid"`
}

type BulkCollaboratorsRequest struct {
	UserIDs []string `json:"userIds" binding:"required,min=1,max=50,dive,uuid"`
}

// SkippedCollaborator says why a bulk-add id was left out: the project owner
// cannot be its own collaborator, and re-adding a member is a no-op.
type SkippedCollaborator struct {
	UserID string `json:"userId"`
	Reason string `json:"reason"`
}

const (
	skipReasonOwner   = "owner"
	skipReasonAlready = "already_collaborator"
)

// loadOwned loads the project and enforces the owner-only rule shared by all
// collaborator mutations. It writes the response itself on failure.
func (h *CollaboratorsHandler) loadOwned(ctx *gin.Context, cctx context.Context, projectID, userID string) (project.Project, bool) {
	p, err := h.repo.GetByID(cctx, projectID)

	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			RespondNotFound(ctx, "Project not found")
			return project.Project{}, false
		}

		RespondInternal(ctx, "Could not load project")
		return project.Project{}, false
	}

	switch authz.CheckEdit(p, userID) {
	case authz.NotFound:
		RespondNotFound(ctx, "Project not found")
		return project.Project{}, false
	case authz.Forbidden:
		RespondForbidden(ctx, "Only the project owner can manage collaborators")
		return project.Project{}, false
	}

	return p, true
}

// ListCollaborators is owner-only like the mutations: collaborator
// management is a single surface with one access rule.
func (h *CollaboratorsHandler) ListCollaborators(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	projectID := ctx.Param("id")

	if !utils.IsUUID(projectID) {
		RespondBadRequest(ctx, "project id must be a valid UUID", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	p, ok := h.loadOwned(ctx, cctx, projectID, userID)

	if !ok {
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"collaborators": p.Collaborators,
		"count":         len(p.Collaborators),
	})
}

func (h *CollaboratorsHandler) AddCollaborator(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	projectID := ctx.Param("id")

	if !utils.IsUUID(projectID) {
		RespondBadRequest(ctx, "project id must be a valid UUID", nil)
		return
	}

	var req CollaboratorRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	p, ok := h.loadOwned(ctx, cctx, projectID, userID)

	if !ok {
		return
	}

	// the target must exist before any set rules apply
	if _, err := h.users.GetByID(cctx, req.UserID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not add collaborator")
		return
	}

	if p.IsCollaborator(req.UserID) {
		RespondClientError(ctx, "already_collaborator", "User is already a collaborator on this project.")
		return
	}

	if req.UserID == p.Owner.ID {
		RespondClientError(ctx, "owner_collaborator", "The owner cannot be added as a collaborator.")
		return
	}

	err := h.repo.AddCollaborator(cctx, projectID, req.UserID)

	if err != nil {
		if errors.Is(err, project.ErrAlreadyCollaborator) {
			RespondClientError(ctx, "already_collaborator", "User is already a collaborator on this project.")
			return
		}

		RespondInternal(ctx, "Could not add collaborator")
		return
	}

	updated, err := h.repo.GetByID(cctx, projectID)

	if err != nil {
		RespondInternal(ctx, "Could not add collaborator")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Collaborator added",
		"project": updated,
	})
}

// AddCollaborators classifies the whole batch first, then persists the
// additions in one go. A request that is all skips/misses still succeeds;
// the report tells the client what happened to each id.
func (h *CollaboratorsHandler) AddCollaborators(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	projectID := ctx.Param("id")

	if !utils.IsUUID(projectID) {
		RespondBadRequest(ctx, "project id must be a valid UUID", nil)
		return
	}

	var req BulkCollaboratorsRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	p, ok := h.loadOwned(ctx, cctx, projectID, userID)

	if !ok {
		return
	}

	ids := utils.DedupeIDs(req.UserIDs)

	existing, err := h.users.ExistingIDs(cctx, ids)

	if err != nil {
		RespondInternal(ctx, "Could not add collaborators")
		return
	}

	added := make([]string, 0, len(ids))
	skipped := make([]SkippedCollaborator, 0)
	notFound := make([]string, 0)

	// classification order per id: owner, then membership, then existence
	for _, id := range ids {
		switch {
		case id == p.Owner.ID:
			skipped = append(skipped, SkippedCollaborator{UserID: id, Reason: skipReasonOwner})
		case p.IsCollaborator(id):
			skipped = append(skipped, SkippedCollaborator{UserID: id, Reason: skipReasonAlready})
		case !existing[id]:
			notFound = append(notFound, id)
		default:
			added = append(added, id)
		}
	}

	err = h.repo.AddCollaborators(cctx, projectID, added)

	if err != nil {
		RespondInternal(ctx, "Could not add collaborators")
		return
	}

	updated, err := h.repo.GetByID(cctx, projectID)

	if err != nil {
		RespondInternal(ctx, "Could not add collaborators")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message":  fmt.Sprintf("%d collaborator(s) added", len(added)),
		"added":    added,
		"skipped":  skipped,
		"notFound": notFound,
		"project":  updated,
	})
}

func (h *CollaboratorsHandler) RemoveCollaborator(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	projectID := ctx.Param("id")

	if !utils.IsUUID(projectID) {
		RespondBadRequest(ctx, "project id must be a valid UUID", nil)
		return
	}

	var req CollaboratorRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if _, ok := h.loadOwned(ctx, cctx, projectID, userID); !ok {
		return
	}

	err := h.repo.RemoveCollaborator(cctx, projectID, req.UserID)

	if err != nil {
		if errors.Is(err, project.ErrNotCollaborator) {
			RespondClientError(ctx, "not_collaborator", "User is not a collaborator on this project.")
			return
		}

		RespondInternal(ctx, "Could not remove collaborator")
		return
	}

	updated, err := h.repo.GetByID(cctx, projectID)

	if err != nil {
		RespondInternal(ctx, "Could not remove collaborator")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Collaborator removed",
		"project": updated,
	})
}
