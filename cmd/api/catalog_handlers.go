package main

import (
	"errors"
	"net/http"

	"reviewhub/proj/internal/domain/filters"
	"reviewhub/proj/internal/lib/validator"
	"reviewhub/proj/internal/permissions"
	"reviewhub/proj/internal/services/catalog"

	"github.com/go-chi/chi/v5"
)

type createSlugInput struct {
	Name string `json:"name" validate:"required,max=256"`
	Slug string `json:"slug" validate:"required,max=50,slug"`
}

func (app *Application) listCategories(w http.ResponseWriter, r *http.Request) {
	input := filters.SearchFilters{Filters: defaultFilters("name", "slug")}
	if !app.decodeQuery(w, r, &input) {
		return
	}
	if !app.validateFilters(w, r, input, &input.Filters) {
		return
	}
	categories, metadata, err := app.Services.Catalog.ListCategories(r.Context(), input.Search, input.Filters)
	if err != nil {
		app.Http.ServerError(w, r, err, "")
		return
	}
	app.Http.Ok(w, r, envelop{"categories": categories, "metadata": metadata}, "")
}

func (app *Application) createCategory(w http.ResponseWriter, r *http.Request) {
	if !app.checkPolicy(w, r, permissions.CatalogWrite, 0) {
		return
	}
	var input createSlugInput
	if err := app.readJSON(w, r, &input); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	if validationErrs := validator.ValidateStruct(app.validator, input); validationErrs != nil {
		app.Http.ValidationFailed(w, r, validationErrs)
		return
	}
	category, err := app.Services.Catalog.CreateCategory(r.Context(), input.Name, input.Slug)
	if err != nil {
		if errors.Is(err, catalog.ErrSlugTaken) {
			app.Http.ValidationFailed(w, r, map[string]string{"slug": err.Error()})
			return
		}
		app.Http.ServerError(w, r, err, "")
		return
	}
	app.Http.Created(w, r, envelop{"category": category}, "")
}

func (app *Application) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if !app.checkPolicy(w, r, permissions.CatalogWrite, 0) {
		return
	}
	if err := app.Services.Catalog.DeleteCategory(r.Context(), chi.URLParam(r, "slug")); err != nil {
		if errors.Is(err, catalog.ErrCategoryNotFound) {
			app.Http.NotFound(w, r, "Category not found")
			return
		}
		app.Http.ServerError(w, r, err, "")
		return
	}
	app.Http.NoContent(w, r, "")
}

func (app *Application) listGenres(w http.ResponseWriter, r *http.Request) {
	input := filters.SearchFilters{Filters: defaultFilters("name", "slug")}
	if !app.decodeQuery(w, r, &input) {
		return
	}
	if !app.validateFilters(w, r, input, &input.Filters) {
		return
	}
	genres, metadata, err := app.Services.Catalog.ListGenres(r.Context(), input.Search, input.Filters)
	if err != nil {
		app.Http.ServerError(w, r, err, "")
		return
	}
	app.Http.Ok(w, r, envelop{"genres": genres, "metadata": metadata}, "")
}

func (app *Application) createGenre(w http.ResponseWriter, r *http.Request) {
	if !app.checkPolicy(w, r, permissions.CatalogWrite, 0) {
		return
	}
	var input createSlugInput
	if err := app.readJSON(w, r, &input); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	if validationErrs := validator.ValidateStruct(app.validator, input); validationErrs != nil {
		app.Http.ValidationFailed(w, r, validationErrs)
		return
	}
	genre, err := app.Services.Catalog.CreateGenre(r.Context(), input.Name, input.Slug)
	if err != nil {
		if errors.Is(err, catalog.ErrSlugTaken) {
			app.Http.ValidationFailed(w, r, map[string]string{"slug": err.Error()})
			return
		}
		app.Http.ServerError(w, r, err, "")
		return
	}
	app.Http.Created(w, r, envelop{"genre": genre}, "")
}

func (app *Application) deleteGenre(w http.ResponseWriter, r *http.Request) {
	if !app.checkPolicy(w, r, permissions.CatalogWrite, 0) {
		return
	}
	if err := app.Services.Catalog.DeleteGenre(r.Context(), chi.URLParam(r, "slug")); err != nil {
		if errors.Is(err, catalog.ErrGenreNotFound) {
			app.Http.NotFound(w, r, "Genre not found")
			return
		}
		app.Http.ServerError(w, r, err, "")
		return
	}
	app.Http.NoContent(w, r, "")
}
