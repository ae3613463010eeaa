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
	"github.com/taskhub/taskhub/internal/domain/task"
	"github.com/taskhub/taskhub/internal/domain/user"
	"github.com/taskhub/taskhub/internal/http/middlewares"
	"github.com/taskhub/taskhub/internal/utils"
)

type TasksStore interface {
	Create(ctx context.Context, t task.Task) error
	GetVisibleByID(ctx context.Context, id, userID string) (task.Task, error)
	ListVisible(ctx context.Context, userID string, f task.ListTasksFilter) ([]task.Task, int, error)
	Update(ctx context.Context, t task.Task) error
	Delete(ctx context.Context, id string) error
}

// ProjectGetter is the slice of the projects store tasks need for membership
// checks.
type ProjectGetter interface {
	GetByID(ctx context.Context, id string) (project.Project, error)
}

type TasksHandler struct {
	repo     TasksStore
	projects ProjectGetter
	users    UserReader
}

func NewTasksHandler(repo TasksStore, projects ProjectGetter, users UserReader) *TasksHandler {
	return &TasksHandler{repo: repo, projects: projects, users: users}
}

// resolveAssignee checks the candidate is a member of the project and loads
// their record. A non-member assignee (including an unknown id) is rejected
// the same way; task assignment is not an existence oracle.
func (h *TasksHandler) resolveAssignee(ctx *gin.Context, cctx context.Context, p project.Project, assigneeID string) (*user.User, bool) {
	if assigneeID != p.Owner.ID && !p.IsCollaborator(assigneeID) {
		RespondClientError(ctx, "assignee_not_member", "Assigned user must be a member of the project.")
		return nil, false
	}

	u, err := h.users.GetByID(cctx, assigneeID)

	if err != nil {
		RespondInternal(ctx, "Could not resolve assigned user")
		return nil, false
	}

	return &u, true
}

func (h *TasksHandler) CreateTask(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	var req task.CreateTaskRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	p, err := h.projects.GetByID(cctx, req.ProjectID)

	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			RespondNotFound(ctx, "Project not found")
			return
		}

		RespondInternal(ctx, "Could not create task")
		return
	}

	// any member may create tasks; non-members are told the project does
	// not exist
	if authz.CheckView(p, userID) != authz.Authorized {
		RespondNotFound(ctx, "Project not found")
		return
	}

	t := task.NewFromCreateRequest(req)
	t.Project = task.ProjectRef{
		ID:      p.ID,
		Name:    p.Name,
		Color:   p.Color,
		OwnerID: p.Owner.ID,
	}

	if req.AssignedUserID != nil {
		assignee, ok := h.resolveAssignee(ctx, cctx, p, *req.AssignedUserID)

		if !ok {
			return
		}

		t.AssignedUser = assignee
	}

	err = h.repo.Create(cctx, t)

	if err != nil {
		RespondInternal(ctx, "Could not create task")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"task": t})
}

func (h *TasksHandler) ListTasks(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	page, _ := strconv.Atoi(ctx.Query("page"))
	limit, _ := strconv.Atoi(ctx.Query("limit"))
	page, limit = utils.PageDefaults(page, limit, defaultTaskPageLimit, maxTaskPageLimit)

	filter := task.ListTasksFilter{
		SortBy:    ctx.Query("sortBy"),
		SortOrder: ctx.Query("sortOrder"),
		Limit:     limit,
		Offset:    utils.Offset(page, limit),
	}

	// enum filters are rejected here, before any storage access; only
	// sortBy/sortOrder fall back silently
	if s := ctx.Query("status"); s != "" {
		status := task.Status(s)
		if !status.Valid() {
			RespondBadRequest(ctx, "status must be one of pending, in-progress, completed", nil)
			return
		}
		filter.Status = &status
	}

	if s := ctx.Query("priority"); s != "" {
		priority := task.Priority(s)
		if !priority.Valid() {
			RespondBadRequest(ctx, "priority must be one of low, medium, high", nil)
			return
		}
		filter.Priority = &priority
	}

	if s := ctx.Query("projectId"); s != "" {
		if !utils.IsUUID(s) {
			RespondBadRequest(ctx, "projectId must be a valid UUID", nil)
			return
		}
		filter.ProjectID = &s
	}

	if s := ctx.Query("assignedUserId"); s != "" {
		if !utils.IsUUID(s) {
			RespondBadRequest(ctx, "assignedUserId must be a valid UUID", nil)
			return
		}
		filter.AssignedUserID = &s
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	tasks, total, err := h.repo.ListVisible(cctx, userID, filter)

	if err != nil {
		RespondInternal(ctx, "Could not list tasks")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"tasks":      tasks,
		"pagination": utils.NewPagination(total, page, limit),
	})
}

func (h *TasksHandler) GetTask(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "task id must be a valid UUID", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	t, err := h.repo.GetVisibleByID(cctx, id, userID)

	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "Task not found")
			return
		}

		RespondInternal(ctx, "Could not fetch task")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{"task": t})
}

func (h *TasksHandler) UpdateTask(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "task id must be a valid UUID", nil)
		return
	}

	var req task.UpdateTaskRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	// visibility doubles as the edit right: any member may update
	t, err := h.repo.GetVisibleByID(cctx, id, userID)

	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "Task not found")
			return
		}

		RespondInternal(ctx, "Could not update task")
		return
	}

	t.Apply(req)

	switch {
	case req.Unassign:
		t.AssignedUser = nil
	case req.AssignedUserID != nil:
		p, err := h.projects.GetByID(cctx, t.ProjectID)

		if err != nil {
			RespondInternal(ctx, "Could not update task")
			return
		}

		assignee, ok := h.resolveAssignee(ctx, cctx, p, *req.AssignedUserID)

		if !ok {
			return
		}

		t.AssignedUser = assignee
	}

	err = h.repo.Update(cctx, t)

	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "Task not found")
			return
		}

		RespondInternal(ctx, "Could not update task")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"task": t})
}

func (h *TasksHandler) DeleteTask(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "task id must be a valid UUID", nil)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if _, err := h.repo.GetVisibleByID(cctx, id, userID); err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "Task not found")
			return
		}

		RespondInternal(ctx, "Could not delete task")
		return
	}

	err := h.repo.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "Task not found")
			return
		}

		RespondInternal(ctx, "Could not delete task")
		return
	}

	ctx.Status(http.StatusNoContent)
}
