package main

import (
	"errors"
	"net/http"

	"reviewhub/proj/internal/domain/filters"
	"reviewhub/proj/internal/lib/validator"
	"reviewhub/proj/internal/permissions"
	"reviewhub/proj/internal/services/users"

	"github.com/go-chi/chi/v5"
)

type createUserInput struct {
	Username string `json:"username" validate:"required,max=150,username,ne=me"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Role     string `json:"role" validate:"omitempty,oneof=user moderator admin"`
	Bio      string `json:"bio" validate:"omitempty"`
}

type updateUserInput struct {
	Username *string `json:"username" validate:"omitempty,max=150,username,ne=me"`
	Email    *string `json:"email" validate:"omitempty,email,max=254"`
	Role     *string `json:"role" validate:"omitempty,oneof=user moderator admin"`
	Bio      *string `json:"bio" validate:"omitempty"`
}

func (app *Application) respondUserErr(w http.ResponseWriter, r *http.Request, err error) {
	var conflictErr *users.ConflictError
	switch {
	case errors.Is(err, users.ErrUserNotFound):
		app.Http.NotFound(w, r, "User not found")
	case errors.As(err, &conflictErr):
		app.Http.ValidationFailed(w, r, conflictErr.Fields)
	default:
		app.Http.ServerError(w, r, err, "")
	}
}

func (app *Application) listUsers(w http.ResponseWriter, r *http.Request) {
	if !app.checkPolicy(w, r, permissions.AdminOnly, 0) {
		return
	}
	input := filters.SearchFilters{Filters: defaultFilters("username", "created_at")}
	if !app.decodeQuery(w, r, &input) {
		return
	}
	if !app.validateFilters(w, r, input, &input.Filters) {
		return
	}
	userList, metadata, err := app.Services.Users.List(r.Context(), input.Search, input.Filters)
	if err != nil {
		app.Http.ServerError(w, r, err, "")
		return
	}
	app.Http.Ok(w, r, envelop{"users": userList, "metadata": metadata}, "")
}

func (app *Application) createUser(w http.ResponseWriter, r *http.Request) {
	if !app.checkPolicy(w, r, permissions.AdminOnly, 0) {
		return
	}
	var input createUserInput
	if err := app.readJSON(w, r, &input); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	if validationErrs := validator.ValidateStruct(app.validator, input); validationErrs != nil {
		app.Http.ValidationFailed(w, r, validationErrs)
		return
	}
	user, err := app.Services.Users.Create(r.Context(), input.Username, input.Email, input.Role, input.Bio)
	if err != nil {
		app.respondUserErr(w, r, err)
		return
	}
	app.Http.Created(w, r, envelop{"user": user}, "")
}

func (app *Application) getUser(w http.ResponseWriter, r *http.Request) {
	if !app.checkPolicy(w, r, permissions.AdminOnly, 0) {
		return
	}
	user, err := app.Services.Users.Get(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		app.respondUserErr(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"user": user}, "")
}

func (app *Application) updateUser(w http.ResponseWriter, r *http.Request) {
	if !app.checkPolicy(w, r, permissions.AdminOnly, 0) {
		return
	}
	var input updateUserInput
	if err := app.readJSON(w, r, &input); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	if validationErrs := validator.ValidateStruct(app.validator, input); validationErrs != nil {
		app.Http.ValidationFailed(w, r, validationErrs)
		return
	}
	user, err := app.Services.Users.Update(r.Context(), chi.URLParam(r, "username"), users.UserParams{
		Username: input.Username,
		Email:    input.Email,
		Bio:      input.Bio,
		Role:     input.Role,
	})
	if err != nil {
		app.respondUserErr(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"user": user}, "")
}

func (app *Application) deleteUser(w http.ResponseWriter, r *http.Request) {
	if !app.checkPolicy(w, r, permissions.AdminOnly, 0) {
		return
	}
	if err := app.Services.Users.Delete(r.Context(), chi.URLParam(r, "username")); err != nil {
		app.respondUserErr(w, r, err)
		return
	}
	app.Http.NoContent(w, r, "")
}

func (app *Application) getProfile(w http.ResponseWriter, r *http.Request) {
	app.Http.Ok(w, r, envelop{"user": app.actor(r)}, "")
}

// updateProfile never touches the role: the stored value is carried over
// even if the payload names one.
func (app *Application) updateProfile(w http.ResponseWriter, r *http.Request) {
	var input updateUserInput
	if err := app.readJSON(w, r, &input); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	if validationErrs := validator.ValidateStruct(app.validator, input); validationErrs != nil {
		app.Http.ValidationFailed(w, r, validationErrs)
		return
	}
	user, err := app.Services.Users.UpdateProfile(r.Context(), app.actor(r), users.UserParams{
		Username: input.Username,
		Email:    input.Email,
		Bio:      input.Bio,
	})
	if err != nil {
		app.respondUserErr(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"user": user}, "")
}
