package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskhub/taskhub/internal/cache"
	"github.com/taskhub/taskhub/internal/config"
	"github.com/taskhub/taskhub/internal/domain/user"
	"github.com/taskhub/taskhub/internal/utils"
)

type UsersLister interface {
	List(ctx context.Context) ([]user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
}

// UsersHandler serves the user directory that collaborator pickers and
// assignee dropdowns read from. The directory changes rarely and is hit on
// every picker open, so a short TTL cache in front is a clear win.
type UsersHandler struct {
	repo  UsersLister
	cache *cache.Cache
}

func NewUsersHandler(repo UsersLister, c *cache.Cache) *UsersHandler {
	return &UsersHandler{repo: repo, cache: c}
}

func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	key := utils.BuildUsersListCacheKey()

	if h.cache != nil {
		if v, ok := h.cache.Get(key); ok {
			if users, ok := v.([]user.User); ok {
				RespondJSONWithETag(ctx, http.StatusOK, gin.H{
					"users": users,
					"count": len(users),
				})
				return
			}
		}
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	users, err := h.repo.List(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not list users")
		return
	}

	if h.cache != nil {
		h.cache.Set(key, users)
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"users": users,
		"count": len(users),
	})
}

// GetUser returns a single directory entry. Any authenticated user may look
// up any other; the payload never carries credential material.
func (h *UsersHandler) GetUser(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "user id must be a valid UUID", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not fetch user")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{"user": u})
}
