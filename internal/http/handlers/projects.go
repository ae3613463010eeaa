package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskhub/taskhub/internal/authz"
	"github.com/taskhub/taskhub/internal/config"
	"github.com/taskhub/taskhub/internal/domain/project"
	"github.com/taskhub/taskhub/internal/http/middlewares"
	"github.com/taskhub/taskhub/internal/utils"
)

// Task lists tolerate bigger pages than project lists: boards pull a whole
// column of tasks at once, while the project sidebar pages in tens.
const (
	defaultPageLimit    = 10
	maxProjectPageLimit = 50

	defaultTaskPageLimit = 20
	maxTaskPageLimit     = 100
)

type ProjectsStore interface {
	Create(ctx context.Context, p project.Project) error
	GetByID(ctx context.Context, id string) (project.Project, error)
	ListVisible(ctx context.Context, userID string, f project.ListProjectsFilter) ([]project.Project, int, error)
	Update(ctx context.Context, p project.Project) error
	Delete(ctx context.Context, id string) error
}

type ProjectsHandler struct {
	repo  ProjectsStore
	users UserReader
}

func NewProjectsHandler(repo ProjectsStore, users UserReader) *ProjectsHandler {
	return &ProjectsHandler{repo: repo, users: users}
}

func (h *ProjectsHandler) CreateProject(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	var req project.CreateProjectRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	// load the full owner record so the response carries it
	owner, err := h.users.GetByID(cctx, userID)

	if err != nil {
		RespondInternal(ctx, "Could not create project")
		return
	}

	p := project.NewFromCreateRequest(req, owner)

	err = h.repo.Create(cctx, p)

	if err != nil {
		RespondInternal(ctx, "Could not create project")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"project": p})
}

func (h *ProjectsHandler) ListProjects(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	page, _ := strconv.Atoi(ctx.Query("page"))
	limit, _ := strconv.Atoi(ctx.Query("limit"))
	page, limit = utils.PageDefaults(page, limit, defaultPageLimit, maxProjectPageLimit)

	filter := project.ListProjectsFilter{
		Limit:  limit,
		Offset: utils.Offset(page, limit),
	}

	if s := ctx.Query("search"); s != "" {
		filter.Search = &s
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	projects, total, err := h.repo.ListVisible(cctx, userID, filter)

	if err != nil {
		RespondInternal(ctx, "Could not list projects")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"projects":   projects,
		"pagination": utils.NewPagination(total, page, limit),
	})
}

func (h *ProjectsHandler) GetProject(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "project id must be a valid UUID", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	p, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			RespondNotFound(ctx, "Project not found")
			return
		}

		RespondInternal(ctx, "Could not fetch project")
		return
	}

	if authz.CheckView(p, userID) != authz.Authorized {
		// hide existence from non-members
		RespondNotFound(ctx, "Project not found")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{"project": p})
}

func (h *ProjectsHandler) UpdateProject(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "project id must be a valid UUID", nil)
		return
	}

	var req project.UpdateProjectRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	p, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			RespondNotFound(ctx, "Project not found")
			return
		}

		RespondInternal(ctx, "Could not update project")
		return
	}

	switch authz.CheckEdit(p, userID) {
	case authz.NotFound:
		RespondNotFound(ctx, "Project not found")
		return
	case authz.Forbidden:
		RespondForbidden(ctx, "Only the project owner can update the project")
		return
	}

	p.Apply(req)

	err = h.repo.Update(cctx, p)

	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			RespondNotFound(ctx, "Project not found")
			return
		}

		RespondInternal(ctx, "Could not update project")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"project": p})
}

// DeleteProject also removes every task in the project via the cascade.
func (h *ProjectsHandler) DeleteProject(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "project id must be a valid UUID", nil)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	p, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			RespondNotFound(ctx, "Project not found")
			return
		}

		RespondInternal(ctx, "Could not delete project")
		return
	}

	switch authz.CheckEdit(p, userID) {
	case authz.NotFound:
		RespondNotFound(ctx, "Project not found")
		return
	case authz.Forbidden:
		RespondForbidden(ctx, "Only the project owner can delete the project")
		return
	}

	err = h.repo.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			RespondNotFound(ctx, "Project not found")
			return
		}

		RespondInternal(ctx, "Could not delete project")
		return
	}

	ctx.Status(http.StatusNoContent)
}
