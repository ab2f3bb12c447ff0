package main

import (
	"errors"
	"net/http"

	"reviewhub/proj/internal/lib/validator"
	"reviewhub/proj/internal/services/auth"
)

type signupInput struct {
	Username string `json:"username" validate:"required,max=150,username,ne=me"`
	Email    string `json:"email" validate:"required,email,max=254"`
}

func (app *Application) signup(w http.ResponseWriter, r *http.Request) {
	var input signupInput
	if err := app.readJSON(w, r, &input); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	if validationErrs := validator.ValidateStruct(app.validator, input); validationErrs != nil {
		app.Http.ValidationFailed(w, r, validationErrs)
		return
	}
	user, err := app.Services.Auth.Signup(r.Context(), input.Username, input.Email)
	if err != nil {
		var conflictErr *auth.ConflictError
		switch {
		case errors.Is(err, auth.ErrReservedUsername):
			app.Http.ValidationFailed(w, r, map[string]string{"username": err.Error()})
		case errors.As(err, &conflictErr):
			app.Http.ValidationFailed(w, r, conflictErr.Fields)
		default:
			app.Http.ServerError(w, r, err, "")
		}
		return
	}
	app.Http.Ok(w, r, envelop{"username": user.Username, "email": user.Email}, "Confirmation code sent")
}

type getTokenInput struct {
	Username         string `json:"username" validate:"required,max=150,username"`
	ConfirmationCode string `json:"confirmation_code" validate:"required"`
}

func (app *Application) getToken(w http.ResponseWriter, r *http.Request) {
	var input getTokenInput
	if err := app.readJSON(w, r, &input); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	if validationErrs := validator.ValidateStruct(app.validator, input); validationErrs != nil {
		app.Http.ValidationFailed(w, r, validationErrs)
		return
	}
	token, err := app.Services.Auth.IssueToken(r.Context(), input.Username, input.ConfirmationCode)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserNotFound):
			app.Http.NotFound(w, r, "User not found")
		case errors.Is(err, auth.ErrInvalidConfirmationCode):
			app.Http.ValidationFailed(w, r, map[string]string{"confirmation_code": "Invalid confirmation code"})
		default:
			app.Http.ServerError(w, r, err, "")
		}
		return
	}
	app.Http.Ok(w, r, envelop{"token": token}, "")
}
