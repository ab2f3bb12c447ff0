package main

import (
	"net/http"
	"testing"

	"reviewhub/proj/internal/domain/models"

	"github.com/stretchr/testify/assert"
)

func TestListCategories(t *testing.T) {
	app, store := NewTestApplication(t)
	store.addCategory(t, "Movies", "movies")
	store.addCategory(t, "Books", "books")
	recorder := app.testRequest(t, http.MethodGet, "/api/v1/categories/", "", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	resp := parseResponse(t, recorder)
	assert.Len(t, dataList(t, resp, "categories"), 2)
}

func TestListCategoriesFilterValidation(t *testing.T) {
	app, store := NewTestApplication(t)
	store.addCategory(t, "Movies", "movies")
	t.Run("zero page rejected", func(t *testing.T) {
		recorder := app.testRequest(t, http.MethodGet, "/api/v1/categories/?page=0", "", nil)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		resp := parseResponse(t, recorder)
		assert.Contains(t, dataObject(t, resp, "errors"), "page")
	})
	t.Run("oversized page size rejected", func(t *testing.T) {
		recorder := app.testRequest(t, http.MethodGet, "/api/v1/categories/?page_size=500", "", nil)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		resp := parseResponse(t, recorder)
		assert.Contains(t, dataObject(t, resp, "errors"), "page_size")
	})
	t.Run("unknown sort column rejected", func(t *testing.T) {
		recorder := app.testRequest(t, http.MethodGet, "/api/v1/categories/?sort=bogus", "", nil)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		resp := parseResponse(t, recorder)
		assert.Contains(t, dataObject(t, resp, "errors"), "sort")
	})
	t.Run("safelisted sort accepted", func(t *testing.T) {
		recorder := app.testRequest(t, http.MethodGet, "/api/v1/categories/?sort=-slug", "", nil)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})
}

func TestCreateCategoryPermissions(t *testing.T) {
	cases := []struct {
		name       string
		role       string
		wantStatus int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"regular user", models.RoleUser, http.StatusForbidden},
		{"moderator", models.RoleModerator, http.StatusForbidden},
		{"admin", models.RoleAdmin, http.StatusCreated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app, store := NewTestApplication(t)
			var token string
			if tc.role != "" {
				token = store.tokenFor(t, store.addUser(t, "actor", tc.role))
			}
			recorder := app.testRequest(t, http.MethodPost, "/api/v1/categories/", token, map[string]string{
				"name": "Movies",
				"slug": "movies",
			})
			assert.Equal(t, tc.wantStatus, recorder.Code)
		})
	}
}

func TestCreateCategory(t *testing.T) {
	app, store := NewTestApplication(t)
	token := store.tokenFor(t, store.addUser(t, "admin", models.RoleAdmin))
	t.Run("created", func(t *testing.T) {
		recorder := app.testRequest(t, http.MethodPost, "/api/v1/categories/", token, map[string]string{
			"name": "Movies",
			"slug": "movies",
		})
		assert.Equal(t, http.StatusCreated, recorder.Code)
		resp := parseResponse(t, recorder)
		category := dataObject(t, resp, "category")
		assert.Equal(t, "movies", category["slug"])
	})
	t.Run("duplicate slug", func(t *testing.T) {
		recorder := app.testRequest(t, http.MethodPost, "/api/v1/categories/", token, map[string]string{
			"name": "Movies again",
			"slug": "movies",
		})
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		resp := parseResponse(t, recorder)
		assert.Contains(t, dataObject(t, resp, "errors"), "slug")
	})
	t.Run("invalid slug", func(t *testing.T) {
		recorder := app.testRequest(t, http.MethodPost, "/api/v1/categories/", token, map[string]string{
			"name": "Shows",
			"slug": "not a slug!",
		})
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		resp := parseResponse(t, recorder)
		assert.Contains(t, dataObject(t, resp, "errors"), "slug")
	})
}

func TestDeleteCategory(t *testing.T) {
	app, store := NewTestApplication(t)
	token := store.tokenFor(t, store.addUser(t, "admin", models.RoleAdmin))
	store.addCategory(t, "Movies", "movies")
	t.Run("deleted", func(t *testing.T) {
		recorder := app.testRequest(t, http.MethodDelete, "/api/v1/categories/movies", token, nil)
		assert.Equal(t, http.StatusNoContent, recorder.Code)
	})
	t.Run("already gone", func(t *testing.T) {
		recorder := app.testRequest(t, http.MethodDelete, "/api/v1/categories/movies", token, nil)
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
	t.Run("non-admin forbidden", func(t *testing.T) {
		store.addCategory(t, "Books", "books")
		userToken := store.tokenFor(t, store.addUser(t, "reader", models.RoleUser))
		recorder := app.testRequest(t, http.MethodDelete, "/api/v1/categories/books", userToken, nil)
		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})
}

func TestGenres(t *testing.T) {
	app, store := NewTestApplication(t)
	token := store.tokenFor(t, store.addUser(t, "admin", models.RoleAdmin))
	t.Run("create", func(t *testing.T) {
		recorder := app.testRequest(t, http.MethodPost, "/api/v1/genres/", token, map[string]string{
			"name": "Drama",
			"slug": "drama",
		})
		assert.Equal(t, http.StatusCreated, recorder.Code)
	})
	t.Run("list is public", func(t *testing.T) {
		recorder := app.testRequest(t, http.MethodGet, "/api/v1/genres/", "", nil)
		assert.Equal(t, http.StatusOK, recorder.Code)
		resp := parseResponse(t, recorder)
		assert.Len(t, dataList(t, resp, "genres"), 1)
	})
	t.Run("anonymous create unauthorized", func(t *testing.T) {
		recorder := app.testRequest(t, http.MethodPost, "/api/v1/genres/", "", map[string]string{
			"name": "Comedy",
			"slug": "comedy",
		})
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
	t.Run("delete", func(t *testing.T) {
		recorder := app.testRequest(t, http.MethodDelete, "/api/v1/genres/drama", token, nil)
		assert.Equal(t, http.StatusNoContent, recorder.Code)
	})
}
