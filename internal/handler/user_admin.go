package handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mehdiyara/stockroom/internal/assets"
	"github.com/mehdiyara/stockroom/internal/audit"
	"github.com/mehdiyara/stockroom/internal/httpx"
	"github.com/mehdiyara/stockroom/internal/middleware"
	"github.com/mehdiyara/stockroom/internal/model"
	"github.com/mehdiyara/stockroom/internal/repository"
)

// UserAdminHandler implements the admin-only user management surface:
// listing accounts, changing roles and deleting accounts.
type UserAdminHandler struct {
	Users  UserStore
	Assets assets.Store
	Audit  audit.Recorder
}

func NewUserAdminHandler(users UserStore, store assets.Store, rec audit.Recorder) *UserAdminHandler {
	return &UserAdminHandler{Users: users, Assets: store, Audit: rec}
}

type updateRoleReq struct {
	Role string `json:"role" validate:"required"`
}

// ListUsers returns every account as a public profile.
func (h *UserAdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.ListAll(ctx)
	if err != nil {
		return httpx.Internal("Failed to fetch users")
	}
	out := make([]model.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return httpx.Respond(c, http.StatusOK, "Users fetched successfully", out)
}

// UpdateRole assigns a new role from the closed enum.  Admins cannot
// change their own role, so an account can never elevate or strand
// itself.
func (h *UserAdminHandler) UpdateRole(c echo.Context) error {
	admin, ok := middleware.CurrentUser(c)
	if !ok {
		return httpx.Unauthorized("Unauthorized request")
	}

	var req updateRoleReq
	if err := c.Bind(&req); err != nil {
		return httpx.BadRequest("Invalid request body")
	}
	role, valid := model.ParseRole(req.Role)
	if !valid {
		return httpx.BadRequest("Invalid role")
	}

	targetID := c.Param("id")
	if targetID == admin.ID {
		return httpx.Forbidden("Cannot change your own role")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	target, err := h.Users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httpx.NotFound("User not found")
		}
		return httpx.Internal("Failed to update role")
	}
	if err := h.Users.UpdateRole(ctx, target.ID, role); err != nil {
		return httpx.Internal("Failed to update role")
	}

	h.record(ctx, model.ActionUpdateUserRole, target.ID,
		fmt.Sprintf("Role of %q changed from %s to %s", target.Email, target.Role, role), admin.ID)

	return httpx.Respond(c, http.StatusOK, "User role updated successfully", echo.Map{
		"id":   target.ID,
		"role": role,
	})
}

// DeleteUser removes an account and, best effort, its stored avatar
// asset.  Audit entries referencing the user are kept.
func (h *UserAdminHandler) DeleteUser(c echo.Context) error {
	admin, ok := middleware.CurrentUser(c)
	if !ok {
		return httpx.Unauthorized("Unauthorized request")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	target, err := h.Users.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httpx.NotFound("User not found")
		}
		return httpx.Internal("Failed to delete user")
	}

	if name, ok := assetName(target.AvatarURL, avatarBucket); ok {
		if err := h.Assets.Remove(ctx, avatarBucket, name); err != nil {
			log.Printf("admin: avatar removal failed for %s: %v", target.ID, err)
		}
	}

	if err := h.Users.Delete(ctx, target.ID); err != nil {
		return httpx.Internal("Failed to delete user")
	}

	h.record(ctx, model.ActionDeleteUser, target.ID,
		fmt.Sprintf("User %q deleted", target.Email), admin.ID)

	return httpx.Respond(c, http.StatusOK, "User deleted successfully", nil)
}

func (h *UserAdminHandler) record(ctx context.Context, action model.Action, entityID, message, performedBy string) {
	if h.Audit == nil {
		return
	}
	h.Audit.Record(ctx, audit.Event{
		Action:      action,
		EntityType:  model.EntityUser,
		EntityID:    entityID,
		Message:     message,
		PerformedBy: performedBy,
		OccurredAt:  time.Now().UTC().Format(time.RFC3339),
	})
}
