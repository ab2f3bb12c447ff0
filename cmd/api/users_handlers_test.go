package main

import (
	"net/http"
	"testing"

	"reviewhub/proj/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListUsersPermissions(t *testing.T) {
	cases := []struct {
		name       string
		role       string
		wantStatus int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"regular user", models.RoleUser, http.StatusForbidden},
		{"moderator", models.RoleModerator, http.StatusForbidden},
		{"admin", models.RoleAdmin, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app, store := NewTestApplication(t)
			var token string
			if tc.role != "" {
				token = store.tokenFor(t, store.addUser(t, "actor", tc.role))
			}
			recorder := app.testRequest(t, http.MethodGet, "/api/v1/users/", token, nil)
			assert.Equal(t, tc.wantStatus, recorder.Code)
		})
	}
}

func TestListUsersFilterValidation(t *testing.T) {
	app, store := NewTestApplication(t)
	token := store.tokenFor(t, store.addUser(t, "admin", models.RoleAdmin))
	t.Run("zero page rejected", func(t *testing.T) {
		recorder := app.testRequest(t, http.MethodGet, "/api/v1/users/?page=0", token, nil)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Contains(t, dataObject(t, parseResponse(t, recorder), "errors"), "page")
	})
	t.Run("unknown sort column rejected", func(t *testing.T) {
		recorder := app.testRequest(t, http.MethodGet, "/api/v1/users/?sort=email", token, nil)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Contains(t, dataObject(t, parseResponse(t, recorder), "errors"), "sort")
	})
	t.Run("sort by created_at accepted", func(t *testing.T) {
		recorder := app.testRequest(t, http.MethodGet, "/api/v1/users/?sort=-created_at", token, nil)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})
}

func TestCreateUser(t *testing.T) {
	app, store := NewTestApplication(t)
	token := store.tokenFor(t, store.addUser(t, "admin", models.RoleAdmin))
	t.Run("created with role", func(t *testing.T) {
		recorder := app.testRequest(t, http.MethodPost, "/api/v1/users/", token, map[string]string{
			"username": "newmod",
			"email":    "newmod@example.com",
			"role":     models.RoleModerator,
		})
		require.Equal(t, http.StatusCreated, recorder.Code)
		resp := parseResponse(t, recorder)
		user := dataObject(t, resp, "user")
		assert.Equal(t, models.RoleModerator, user["role"])
	})
	t.Run("default role is user", func(t *testing.T) {
		recorder := app.testRequest(t, http.MethodPost, "/api/v1/users/", token, map[string]string{
			"username": "plain",
			"email":    "plain@example.com",
		})
		require.Equal(t, http.StatusCreated, recorder.Code)
		resp := parseResponse(t, recorder)
		assert.Equal(t, models.RoleUser, dataObject(t, resp, "user")["role"])
	})
	t.Run("duplicate email", func(t *testing.T) {
		recorder := app.testRequest(t, http.MethodPost, "/api/v1/users/", token, map[string]string{
			"username": "copycat",
			"email":    "plain@example.com",
		})
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		resp := parseResponse(t, recorder)
		assert.Contains(t, dataObject(t, resp, "errors"), "email")
	})
	t.Run("invalid role", func(t *testing.T) {
		recorder := app.testRequest(t, http.MethodPost, "/api/v1/users/", token, map[string]string{
			"username": "superduper",
			"email":    "superduper@example.com",
			"role":     "superuser",
		})
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		resp := parseResponse(t, recorder)
		assert.Contains(t, dataObject(t, resp, "errors"), "role")
	})
}

func TestGetUser(t *testing.T) {
	app, store := NewTestApplication(t)
	token := store.tokenFor(t, store.addUser(t, "admin", models.RoleAdmin))
	store.addUser(t, "target", models.RoleUser)
	t.Run("found", func(t *testing.T) {
		recorder := app.testRequest(t, http.MethodGet, "/api/v1/users/target", token, nil)
		require.Equal(t, http.StatusOK, recorder.Code)
		resp := parseResponse(t, recorder)
		assert.Equal(t, "target", dataObject(t, resp, "user")["username"])
	})
	t.Run("missing", func(t *testing.T) {
		recorder := app.testRequest(t, http.MethodGet, "/api/v1/users/nobody", token, nil)
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}

func TestUpdateUser(t *testing.T) {
	app, store := NewTestApplication(t)
	token := store.tokenFor(t, store.addUser(t, "admin", models.RoleAdmin))
	store.addUser(t, "target", models.RoleUser)
	t.Run("admin promotes to moderator", func(t *testing.T) {
		recorder := app.testRequest(t, http.MethodPatch, "/api/v1/users/target", token, map[string]string{
			"role": models.RoleModerator,
		})
		require.Equal(t, http.StatusOK, recorder.Code)
		resp := parseResponse(t, recorder)
		assert.Equal(t, models.RoleModerator, dataObject(t, resp, "user")["role"])
	})
	t.Run("non-admin forbidden", func(t *testing.T) {
		userToken := store.tokenFor(t, store.addUser(t, "peasant", models.RoleUser))
		recorder := app.testRequest(t, http.MethodPatch, "/api/v1/users/target", userToken, map[string]string{
			"bio": "sneaky",
		})
		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})
}

func TestDeleteUser(t *testing.T) {
	app, store := NewTestApplication(t)
	token := store.tokenFor(t, store.addUser(t, "admin", models.RoleAdmin))
	store.addUser(t, "target", models.RoleUser)
	recorder := app.testRequest(t, http.MethodDelete, "/api/v1/users/target", token, nil)
	assert.Equal(t, http.StatusNoContent, recorder.Code)
	recorder = app.testRequest(t, http.MethodGet, "/api/v1/users/target", token, nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestProfile(t *testing.T) {
	t.Run("anonymous unauthorized", func(t *testing.T) {
		app, _ := NewTestApplication(t)
		recorder := app.testRequest(t, http.MethodGet, "/api/v1/users/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
	t.Run("returns own record", func(t *testing.T) {
		app, store := NewTestApplication(t)
		user := store.addUser(t, "selfie", models.RoleUser)
		recorder := app.testRequest(t, http.MethodGet, "/api/v1/users/me", store.tokenFor(t, user), nil)
		require.Equal(t, http.StatusOK, recorder.Code)
		resp := parseResponse(t, recorder)
		assert.Equal(t, "selfie", dataObject(t, resp, "user")["username"])
	})
	t.Run("patch updates bio", func(t *testing.T) {
		app, store := NewTestApplication(t)
		user := store.addUser(t, "selfie", models.RoleUser)
		recorder := app.testRequest(t, http.MethodPatch, "/api/v1/users/me", store.tokenFor(t, user), map[string]string{
			"bio": "about me",
		})
		require.Equal(t, http.StatusOK, recorder.Code)
		resp := parseResponse(t, recorder)
		assert.Equal(t, "about me", dataObject(t, resp, "user")["bio"])
	})
	t.Run("patch cannot change own role", func(t *testing.T) {
		app, store := NewTestApplication(t)
		user := store.addUser(t, "selfie", models.RoleUser)
		recorder := app.testRequest(t, http.MethodPatch, "/api/v1/users/me", store.tokenFor(t, user), map[string]string{
			"role": models.RoleAdmin,
		})
		require.Equal(t, http.StatusOK, recorder.Code)
		resp := parseResponse(t, recorder)
		assert.Equal(t, models.RoleUser, dataObject(t, resp, "user")["role"])
	})
}
