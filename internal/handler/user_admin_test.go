package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mehdiyara/stockroom/internal/model"
)

func TestListUsersIsAdminOnly(t *testing.T) {
	app := newTestApp(t)
	admin := app.seedUser(t, "a-1", "admin@example.com", "admin-password", model.RoleAdmin)
	staff := app.seedUser(t, "s-1", "staff@example.com", "staff-password", model.RoleStaff)

	rec := app.do(t, http.MethodGet, "/api/v1/users/all", nil, app.accessCookie(t, staff))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/v1/users/all", nil, app.accessCookie(t, admin))
	require.Equal(t, http.StatusOK, rec.Code)

	var got []model.PublicUser
	decodeData(t, rec, &got)
	require.Len(t, got, 2)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestUpdateRole(t *testing.T) {
	app := newTestApp(t)
	admin := app.seedUser(t, "a-1", "admin@example.com", "admin-password", model.RoleAdmin)
	target := app.seedUser(t, "u-1", "user@example.com", "user-password", model.RoleUser)
	cookie := app.accessCookie(t, admin)

	// Unknown role name.
	rec := app.do(t, http.MethodPut, "/api/v1/users/"+target.ID+"/role",
		map[string]string{"role": "overlord"}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Self-demotion is blocked.
	rec = app.do(t, http.MethodPut, "/api/v1/users/"+admin.ID+"/role",
		map[string]string{"role": "user"}, cookie)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Cannot change your own role", decodeEnvelope(t, rec).Message)

	// Unknown target.
	rec = app.do(t, http.MethodPut, "/api/v1/users/nope/role",
		map[string]string{"role": "staff"}, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.do(t, http.MethodPut, "/api/v1/users/"+target.ID+"/role",
		map[string]string{"role": "staff"}, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	stored, err := app.users.GetByID(context.Background(), target.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleStaff, stored.Role)
	assert.Equal(t, []model.Action{model.ActionUpdateUserRole}, app.audit.actions())
}

func TestDeleteUser(t *testing.T) {
	app := newTestApp(t)
	admin := app.seedUser(t, "a-1", "admin@example.com", "admin-password", model.RoleAdmin)
	target := app.seedUser(t, "u-1", "user@example.com", "user-password", model.RoleUser)
	cookie := app.accessCookie(t, admin)

	rec := app.do(t, http.MethodDelete, "/api/v1/users/nope", nil, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.do(t, http.MethodDelete, "/api/v1/users/"+target.ID, nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	_, err := app.users.GetByID(context.Background(), target.ID)
	assert.Error(t, err)

	// The deleted account can no longer authenticate even with a token
	// that has not expired yet.
	rec = app.do(t, http.MethodGet, "/api/v1/auth/currentUser", nil, app.accessCookie(t, target))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Equal(t, []model.Action{model.ActionDeleteUser}, app.audit.actions())
}
