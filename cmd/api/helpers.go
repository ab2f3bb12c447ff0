package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"reviewhub/proj/internal/domain/filters"
	"reviewhub/proj/internal/domain/models"
	"reviewhub/proj/internal/lib/validator"
	"reviewhub/proj/internal/permissions"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/schema"
)

func (app *Application) extractIDParam(w http.ResponseWriter, r *http.Request, name string) (id int64, extracted bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		app.Http.NotFound(w, r, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// actor returns the request user set by the Authenticate middleware,
// falling back to the anonymous sentinel.
func (app *Application) actor(r *http.Request) *models.User {
	user, _ := r.Context().Value(CtxKeyUser).(*models.User)
	if user == nil {
		return models.AnonymousUser
	}
	return user
}

func (app *Application) checkPolicy(w http.ResponseWriter, r *http.Request, policy permissions.Policy, ownerID int64) bool {
	err := policy.Evaluate(permissions.Request{
		Method:  r.Method,
		Actor:   app.actor(r),
		OwnerID: ownerID,
	})
	switch {
	case err == nil:
		return true
	case errors.Is(err, permissions.ErrAuthenticationRequired):
		app.Http.Unauthorized(w, r, "Authentication credentials were not provided")
	case errors.Is(err, permissions.ErrForbidden):
		app.Http.Forbidden(w, r, "You do not have permission to perform this action")
	default:
		app.Http.ServerError(w, r, err, "")
	}
	return false
}

var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

func (app *Application) decodeQuery(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := queryDecoder.Decode(dst, r.URL.Query()); err != nil {
		app.Http.BadRequest(w, r, "Invalid query parameters")
		return false
	}
	return true
}

// validateFilters rejects malformed list parameters with field-scoped
// errors before they can reach a storage query.
func (app *Application) validateFilters(w http.ResponseWriter, r *http.Request, input any, f *filters.Filters) bool {
	validationErrs := validator.ValidateStruct(app.validator, input)
	if !f.ValidSort() {
		if validationErrs == nil {
			validationErrs = make(map[string]string)
		}
		validationErrs["sort"] = "Invalid sort value"
	}
	if validationErrs != nil {
		app.Http.ValidationFailed(w, r, validationErrs)
		return false
	}
	return true
}

func defaultFilters(safelist ...string) filters.Filters {
	return filters.Filters{
		Page:         1,
		PageSize:     10,
		Sort:         safelist[0],
		SortSafelist: safelist,
	}
}

func (app *Application) readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	src := http.MaxBytesReader(w, r.Body, int64(maxBytes))
	defer io.Copy(io.Discard, src)
	dec := json.NewDecoder(src)
	dec.DisallowUnknownFields()
	err := dec.Decode(dst)
	if err != nil {
		return handleJsonErr(err)
	}
	err = dec.Decode(&struct{}{})
	if err != io.EOF {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func handleJsonErr(err error) error {
	var syntaxError *json.SyntaxError
	var unmarshalTypeError *json.UnmarshalTypeError
	var invalidUnmarshalError *json.InvalidUnmarshalError
	switch {
	case errors.As(err, &syntaxError):
		return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)

	case errors.Is(err, io.ErrUnexpectedEOF):
		return errors.New("body contains badly-formed JSON")

	case errors.As(err, &unmarshalTypeError):
		if unmarshalTypeError.Field != "" {
			return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
		}
		return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)

	case errors.Is(err, io.EOF):
		return errors.New("body must not be empty")

	case errors.As(err, &invalidUnmarshalError):
		panic(err)
	default:
		return err
	}
}
