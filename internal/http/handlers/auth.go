package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/taskhub/taskhub/internal/cache"
	"github.com/taskhub/taskhub/internal/config"
	"github.com/taskhub/taskhub/internal/domain/user"
	"github.com/taskhub/taskhub/internal/http/middlewares"
	"github.com/taskhub/taskhub/internal/security"
	"github.com/taskhub/taskhub/internal/utils"
)

type UserReader interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
}

type UserWriter interface {
	Create(ctx context.Context, u user.User) error
}

// TokenIssuer is the slice of the JWT manager the handler needs.
type TokenIssuer interface {
	GenerateAccessToken(userID, email string) (string, error)
}

type AuthHandler struct {
	users      UserReader
	userWriter UserWriter
	jwt        TokenIssuer
	directory  *cache.Cache
}

// directory may be nil; when set, registering a user invalidates the cached
// user directory so the new account shows up in pickers right away.
func NewAuthHandler(users UserReader, userWriter UserWriter, jwt TokenIssuer, directory *cache.Cache) *AuthHandler {
	return &AuthHandler{
		users:      users,
		userWriter: userWriter,
		jwt:        jwt,
		directory:  directory,
	}
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	err = h.userWriter.Create(cctx, u)

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondClientError(ctx, "email_taken", "Email is already in use.")
			return
		}

		RespondInternal(ctx, "Could not create user")
		return
	}

	if h.directory != nil {
		h.directory.Delete(utils.BuildUsersListCacheKey())
	}

	token, err := h.jwt.GenerateAccessToken(u.ID, u.Email)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"user":  u,
		"token": token,
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)

	// Unknown email and wrong password answer identically so login cannot be
	// used to probe which emails exist.
	if err != nil {
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	token, err := h.jwt.GenerateAccessToken(foundUser.ID, foundUser.Email)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"user":  foundUser,
		"token": token,
	})
}

// Profile returns the authenticated user's own record.
func (h *AuthHandler) Profile(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, userID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// token outlived the account
			RespondUnAuthorized(ctx, "unauthorized", "Account no longer exists")
			return
		}

		RespondInternal(ctx, "Could not load profile")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": u})
}
