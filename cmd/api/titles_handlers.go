package main

import (
	"errors"
	"net/http"

	"reviewhub/proj/internal/domain/filters"
	"reviewhub/proj/internal/lib/validator"
	"reviewhub/proj/internal/permissions"
	"reviewhub/proj/internal/services/catalog"
)

type createTitleInput struct {
	Name        *string  `json:"name" validate:"required,max=256"`
	Year        *int32   `json:"year" validate:"required,gte=1,notfutureyear"`
	Description *string  `json:"description" validate:"omitempty"`
	Category    *string  `json:"category" validate:"required,slug"`
	Genre       []string `json:"genre" validate:"required,min=1,dive,slug"`
}

type updateTitleInput struct {
	Name        *string  `json:"name" validate:"omitempty,max=256"`
	Year        *int32   `json:"year" validate:"omitempty,gte=1,notfutureyear"`
	Description *string  `json:"description" validate:"omitempty"`
	Category    *string  `json:"category" validate:"omitempty,slug"`
	Genre       []string `json:"genre" validate:"omitempty,min=1,dive,slug"`
}

func (app *Application) listTitles(w http.ResponseWriter, r *http.Request) {
	input := filters.TitleFilters{Filters: defaultFilters("year", "name", "id")}
	input.Sort = "-year"
	if !app.decodeQuery(w, r, &input) {
		return
	}
	if !app.validateFilters(w, r, input, &input.Filters) {
		return
	}
	titles, metadata, err := app.Services.Catalog.ListTitles(r.Context(), input)
	if err != nil {
		app.Http.ServerError(w, r, err, "")
		return
	}
	app.Http.Ok(w, r, envelop{"titles": titles, "metadata": metadata}, "")
}

func (app *Application) getTitle(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r, "title_id")
	if !ok {
		return
	}
	title, err := app.Services.Catalog.GetTitle(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrTitleNotFound) {
			app.Http.NotFound(w, r, "Title not found")
			return
		}
		app.Http.ServerError(w, r, err, "")
		return
	}
	app.Http.Ok(w, r, envelop{"title": title}, "")
}

func (app *Application) createTitle(w http.ResponseWriter, r *http.Request) {
	if !app.checkPolicy(w, r, permissions.CatalogWrite, 0) {
		return
	}
	var input createTitleInput
	if err := app.readJSON(w, r, &input); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	if validationErrs := validator.ValidateStruct(app.validator, input); validationErrs != nil {
		app.Http.ValidationFailed(w, r, validationErrs)
		return
	}
	title, err := app.Services.Catalog.CreateTitle(r.Context(), catalog.TitleParams{
		Name:        input.Name,
		Year:        input.Year,
		Description: input.Description,
		Category:    input.Category,
		Genres:      input.Genre,
	})
	if err != nil {
		app.respondTitleWriteErr(w, r, err)
		return
	}
	app.Http.Created(w, r, envelop{"title": title}, "")
}

func (app *Application) updateTitle(w http.ResponseWriter, r *http.Request) {
	if !app.checkPolicy(w, r, permissions.CatalogWrite, 0) {
		return
	}
	id, ok := app.extractIDParam(w, r, "title_id")
	if !ok {
		return
	}
	var input updateTitleInput
	if err := app.readJSON(w, r, &input); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	if validationErrs := validator.ValidateStruct(app.validator, input); validationErrs != nil {
		app.Http.ValidationFailed(w, r, validationErrs)
		return
	}
	title, err := app.Services.Catalog.UpdateTitle(r.Context(), id, catalog.TitleParams{
		Name:        input.Name,
		Year:        input.Year,
		Description: input.Description,
		Category:    input.Category,
		Genres:      input.Genre,
	})
	if err != nil {
		app.respondTitleWriteErr(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"title": title}, "")
}

func (app *Application) deleteTitle(w http.ResponseWriter, r *http.Request) {
	if !app.checkPolicy(w, r, permissions.CatalogWrite, 0) {
		return
	}
	id, ok := app.extractIDParam(w, r, "title_id")
	if !ok {
		return
	}
	if err := app.Services.Catalog.DeleteTitle(r.Context(), id); err != nil {
		if errors.Is(err, catalog.ErrTitleNotFound) {
			app.Http.NotFound(w, r, "Title not found")
			return
		}
		app.Http.ServerError(w, r, err, "")
		return
	}
	app.Http.NoContent(w, r, "")
}

func (app *Application) respondTitleWriteErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrTitleNotFound):
		app.Http.NotFound(w, r, "Title not found")
	case errors.Is(err, catalog.ErrUnknownCategorySlug):
		app.Http.ValidationFailed(w, r, map[string]string{"category": "No category with that slug exists"})
	case errors.Is(err, catalog.ErrUnknownGenreSlug):
		app.Http.ValidationFailed(w, r, map[string]string{"genre": "No genre with one of those slugs exists"})
	default:
		app.Http.ServerError(w, r, err, "")
	}
}
