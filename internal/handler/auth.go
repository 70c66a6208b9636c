package handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mehdiyara/stockroom/internal/assets"
	"github.com/mehdiyara/stockroom/internal/audit"
	"github.com/mehdiyara/stockroom/internal/config"
	"github.com/mehdiyara/stockroom/internal/httpx"
	"github.com/mehdiyara/stockroom/internal/middleware"
	"github.com/mehdiyara/stockroom/internal/model"
	"github.com/mehdiyara/stockroom/internal/repository"
	"github.com/mehdiyara/stockroom/internal/utils"
)

const (
	accessCookie  = middleware.AccessCookieName
	refreshCookie = "refreshToken"

	avatarBucket = "avatars"
)

// AuthHandler implements the session lifecycle: register, login,
// logout, refresh, password change, current user and avatar update.
type AuthHandler struct {
	Cfg    config.Config
	Users  UserStore
	Assets assets.Store
	Audit  audit.Recorder
}

func NewAuthHandler(cfg config.Config, users UserStore, store assets.Store, rec audit.Recorder) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Assets: store, Audit: rec}
}

// ----- DTOs -----

type registerReq struct {
	FullName string `json:"fullName" form:"fullName" validate:"required"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=8"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordReq struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

type loginResp struct {
	User         model.PublicUser `json:"user"`
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken"`
}

// Register creates a new account with role `user`.  An avatar may ride
// along as a multipart file; upload failure falls back to the default
// avatar and never blocks registration.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return httpx.BadRequest("Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return httpx.BadRequest("All fields are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return httpx.Internal("Something went wrong while registering the user")
	}

	u := model.User{
		ID:           uuid.NewString(),
		FullName:     strings.TrimSpace(req.FullName),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		AvatarURL:    h.Cfg.DefaultAvatarURL,
		Role:         model.RoleUser,
		IsActive:     true,
	}

	if file, err := c.FormFile("avatar"); err == nil && file != nil {
		if url, upErr := h.uploadAvatar(ctx, u.ID, file); upErr == nil {
			u.AvatarURL = url
		} else {
			log.Printf("auth: avatar upload skipped: %v", upErr)
		}
	}

	if err := h.Users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return httpx.Conflict("User with this email already exists")
		}
		return httpx.Internal("Something went wrong while registering the user")
	}

	created, err := h.Users.GetByID(ctx, u.ID)
	if err != nil {
		return httpx.Internal("Something went wrong while registering the user")
	}

	h.record(ctx, model.ActionCreateUser, model.EntityUser, u.ID,
		fmt.Sprintf("User %q registered", u.Email), u.ID)

	return httpx.Respond(c, http.StatusCreated, "User registered successfully", created.Public())
}

// Login verifies credentials, mints a token pair, persists the refresh
// fingerprint and returns both tokens as secure http-only cookies.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return httpx.BadRequest("Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return httpx.BadRequest("Email and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httpx.NotFound("User not found")
		}
		return httpx.Internal("Login failed")
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return httpx.Unauthorized("Invalid credentials")
	}

	access, refresh, err := h.mintTokenPair(u)
	if err != nil {
		return httpx.Internal("Something went wrong while generating tokens")
	}

	now := time.Now().UTC()
	if err := h.Users.SetSession(ctx, u.ID, utils.Fingerprint(refresh.Token), now); err != nil {
		return httpx.Internal("Login failed")
	}
	u.IsActive = true
	u.LastLogin = &now

	setAuthCookies(c, access, refresh)

	h.record(ctx, model.ActionLoginUser, model.EntityUser, u.ID,
		fmt.Sprintf("User %q logged in", u.Email), u.ID)

	return httpx.Respond(c, http.StatusOK, "User logged in successfully", loginResp{
		User:         u.Public(),
		AccessToken:  access.Token,
		RefreshToken: refresh.Token,
	})
}

// Logout revokes the session: the stored fingerprint is cleared so the
// outstanding refresh token is rejected on next use even though it is
// still cryptographically valid, isActive drops, and both cookies are
// cleared.
func (h *AuthHandler) Logout(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return httpx.Unauthorized("Unauthorized request")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.ClearSession(ctx, u.ID); err != nil {
		return httpx.Internal("Logout failed")
	}
	clearAuthCookies(c)

	h.record(ctx, model.ActionLogoutUser, model.EntityUser, u.ID,
		fmt.Sprintf("User %q logged out", u.Email), u.ID)

	return httpx.Respond(c, http.StatusOK, "User logged out successfully", nil)
}

// Refresh rotates the token pair.  The presented refresh token must
// verify and its fingerprint must match the single stored one; a token
// that already lost a rotation race fails here, forcing a fresh login.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw := refreshTokenFromRequest(c)
	if raw == "" {
		return httpx.Unauthorized("Unauthorized request")
	}

	claims, err := utils.ParseRefreshToken(h.Cfg.RefreshSecret, raw)
	if err != nil {
		log.Printf("auth: refresh token rejected: %v", err)
		return httpx.Unauthorized("Invalid refresh token")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, claims.Subject)
	if err != nil {
		return httpx.Unauthorized("Invalid refresh token")
	}
	if u.RefreshFingerprint == "" || utils.Fingerprint(raw) != u.RefreshFingerprint {
		return httpx.Unauthorized("Refresh token is expired or used")
	}

	access, refresh, err := h.mintTokenPair(u)
	if err != nil {
		return httpx.Internal("Something went wrong while generating tokens")
	}
	if err := h.Users.RotateFingerprint(ctx, u.ID, utils.Fingerprint(refresh.Token)); err != nil {
		return httpx.Internal("Refresh failed")
	}

	setAuthCookies(c, access, refresh)

	return httpx.Respond(c, http.StatusOK, "Access token refreshed", loginResp{
		User:         u.Public(),
		AccessToken:  access.Token,
		RefreshToken: refresh.Token,
	})
}

// CurrentUser returns the authenticated user's public profile.
func (h *AuthHandler) CurrentUser(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return httpx.Unauthorized("Unauthorized request")
	}
	return httpx.Respond(c, http.StatusOK, "User fetched successfully", u.Public())
}

// ChangePassword re-hashes the secret and clears the stored refresh
// fingerprint, logging every other session out.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	ident, ok := middleware.CurrentUser(c)
	if !ok {
		return httpx.Unauthorized("Unauthorized request")
	}

	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return httpx.BadRequest("Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return httpx.BadRequest("Old password and new password are required")
	}
	if req.NewPassword == req.OldPassword {
		return httpx.BadRequest("New password must be different from the old password")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// The gate strips credentials from the resolved identity, so fetch
	// the stored hash directly.
	u, err := h.Users.GetByID(ctx, ident.ID)
	if err != nil {
		return httpx.NotFound("User not found")
	}
	if !utils.VerifyPassword(u.PasswordHash, req.OldPassword) {
		return httpx.Unauthorized("Invalid old password")
	}

	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return httpx.Internal("Something went wrong while changing the password")
	}
	if err := h.Users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return httpx.Internal("Something went wrong while changing the password")
	}

	h.record(ctx, model.ActionChangePassword, model.EntityUser, u.ID,
		fmt.Sprintf("User %q changed password", u.Email), u.ID)

	return httpx.Respond(c, http.StatusOK, "Password changed successfully", nil)
}

// UpdateAvatar uploads a new avatar to the asset store and records its
// public URL.  Unlike registration, an upload failure here is the whole
// point of the request and is passed through as an error.
func (h *AuthHandler) UpdateAvatar(c echo.Context) error {
	ident, ok := middleware.CurrentUser(c)
	if !ok {
		return httpx.Unauthorized("Unauthorized request")
	}

	file, err := c.FormFile("avatar")
	if err != nil || file == nil {
		return httpx.BadRequest("Avatar file is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	// Best effort: drop the old asset if it lives in our store.
	if name, ok := assetName(ident.AvatarURL, avatarBucket); ok {
		if err := h.Assets.Remove(ctx, avatarBucket, name); err != nil {
			log.Printf("auth: old avatar removal failed: %v", err)
		}
	}

	url, err := h.uploadAvatar(ctx, ident.ID, file)
	if err != nil {
		return httpx.NewError(http.StatusBadGateway, "Error uploading avatar")
	}
	if err := h.Users.UpdateAvatar(ctx, ident.ID, url); err != nil {
		return httpx.Internal("Something went wrong while updating the avatar")
	}

	h.record(ctx, model.ActionUpdateUserAvatar, model.EntityUser, ident.ID,
		fmt.Sprintf("User %q updated avatar", ident.Email), ident.ID)

	return httpx.Respond(c, http.StatusOK, "Avatar updated successfully", echo.Map{"avatar": url})
}

// ----- helpers -----

func (h *AuthHandler) mintTokenPair(u model.User) (utils.SignedToken, utils.SignedToken, error) {
	access, err := utils.NewAccessToken(h.Cfg.AccessSecret, u.ID, u.Email, u.FullName, h.Cfg.AccessTTLMin)
	if err != nil {
		return utils.SignedToken{}, utils.SignedToken{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshSecret, u.ID, h.Cfg.RefreshTTLDays)
	if err != nil {
		return utils.SignedToken{}, utils.SignedToken{}, err
	}
	return access, refresh, nil
}

func (h *AuthHandler) uploadAvatar(ctx context.Context, userID string, file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := fmt.Sprintf("%s-%d-%s", userID, time.Now().UnixMilli(), file.Filename)
	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return h.Assets.Upload(ctx, avatarBucket, name, contentType, src)
}

// record emits an audit event after the primary mutation committed.
// Recording is fire-and-forget; the recorder logs its own failures.
func (h *AuthHandler) record(ctx context.Context, action model.Action, entity model.EntityType, entityID, message, performedBy string) {
	if h.Audit == nil {
		return
	}
	h.Audit.Record(ctx, audit.Event{
		Action:      action,
		EntityType:  entity,
		EntityID:    entityID,
		Message:     message,
		PerformedBy: performedBy,
		OccurredAt:  time.Now().UTC().Format(time.RFC3339),
	})
}

// assetName extracts the object name from a public asset URL when the
// URL points into the given bucket of our store; external URLs (for
// example the default avatar) return ok=false.
func assetName(url, bucket string) (string, bool) {
	marker := "/object/public/" + bucket + "/"
	idx := strings.Index(url, marker)
	if idx < 0 {
		return "", false
	}
	name := url[idx+len(marker):]
	return name, name != ""
}

func refreshTokenFromRequest(c echo.Context) string {
	if cookie, err := c.Cookie(refreshCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	var req refreshReq
	_ = c.Bind(&req)
	return strings.TrimSpace(req.RefreshToken)
}

func setAuthCookies(c echo.Context, access, refresh utils.SignedToken) {
	c.SetCookie(authCookie(accessCookie, access.Token, access.Exp))
	c.SetCookie(authCookie(refreshCookie, refresh.Token, refresh.Exp))
}

func clearAuthCookies(c echo.Context) {
	expired := time.Unix(0, 0).UTC()
	c.SetCookie(authCookie(accessCookie, "", expired))
	c.SetCookie(authCookie(refreshCookie, "", expired))
}

func authCookie(name, value string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}
