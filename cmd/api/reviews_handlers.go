package main

import (
	"errors"
	"net/http"

	"reviewhub/proj/internal/domain/filters"
	"reviewhub/proj/internal/domain/models"
	"reviewhub/proj/internal/lib/validator"
	"reviewhub/proj/internal/permissions"
	"reviewhub/proj/internal/services/reviews"
)

type createReviewInput struct {
	Text  string `json:"text" validate:"required"`
	Score int    `json:"score" validate:"required,gte=1,lte=10"`
}

type updateReviewInput struct {
	Text  *string `json:"text" validate:"omitempty"`
	Score *int    `json:"score" validate:"omitempty,gte=1,lte=10"`
}

func (app *Application) respondReviewErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, reviews.ErrTitleNotFound):
		app.Http.NotFound(w, r, "Title not found")
	case errors.Is(err, reviews.ErrReviewNotFound):
		app.Http.NotFound(w, r, "Review not found")
	case errors.Is(err, reviews.ErrCommentNotFound):
		app.Http.NotFound(w, r, "Comment not found")
	case errors.Is(err, reviews.ErrReviewExists):
		app.Http.ValidationFailed(w, r, map[string]string{"title": "You have already reviewed this title"})
	default:
		app.Http.ServerError(w, r, err, "")
	}
}

func (app *Application) listReviews(w http.ResponseWriter, r *http.Request) {
	titleID, ok := app.extractIDParam(w, r, "title_id")
	if !ok {
		return
	}
	input := filters.SearchFilters{Filters: defaultFilters("created_at", "score")}
	input.Sort = "-created_at"
	if !app.decodeQuery(w, r, &input) {
		return
	}
	if !app.validateFilters(w, r, input, &input.Filters) {
		return
	}
	reviewList, metadata, err := app.Services.Reviews.ListForTitle(r.Context(), titleID, input.Filters)
	if err != nil {
		app.respondReviewErr(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"reviews": reviewList, "metadata": metadata}, "")
}

func (app *Application) getReview(w http.ResponseWriter, r *http.Request) {
	titleID, ok := app.extractIDParam(w, r, "title_id")
	if !ok {
		return
	}
	reviewID, ok := app.extractIDParam(w, r, "review_id")
	if !ok {
		return
	}
	review, err := app.Services.Reviews.Get(r.Context(), titleID, reviewID)
	if err != nil {
		app.respondReviewErr(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"review": review}, "")
}

func (app *Application) createReview(w http.ResponseWriter, r *http.Request) {
	if !app.checkPolicy(w, r, permissions.ReviewMutate, 0) {
		return
	}
	titleID, ok := app.extractIDParam(w, r, "title_id")
	if !ok {
		return
	}
	var input createReviewInput
	if err := app.readJSON(w, r, &input); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	if validationErrs := validator.ValidateStruct(app.validator, input); validationErrs != nil {
		app.Http.ValidationFailed(w, r, validationErrs)
		return
	}
	review, err := app.Services.Reviews.Create(r.Context(), titleID, app.actor(r), input.Text, input.Score)
	if err != nil {
		app.respondReviewErr(w, r, err)
		return
	}
	app.Http.Created(w, r, envelop{"review": review}, "")
}

// fetchReviewForMutation resolves the review and runs the object-level
// author-or-staff policy against its author.
func (app *Application) fetchReviewForMutation(w http.ResponseWriter, r *http.Request, titleID, reviewID int64) (*models.Review, bool) {
	review, err := app.Services.Reviews.Get(r.Context(), titleID, reviewID)
	if err != nil {
		app.respondReviewErr(w, r, err)
		return nil, false
	}
	if !app.checkPolicy(w, r, permissions.ReviewObject, review.UserID) {
		return nil, false
	}
	return review, true
}

func (app *Application) updateReview(w http.ResponseWriter, r *http.Request) {
	if !app.checkPolicy(w, r, permissions.ReviewMutate, 0) {
		return
	}
	titleID, ok := app.extractIDParam(w, r, "title_id")
	if !ok {
		return
	}
	reviewID, ok := app.extractIDParam(w, r, "review_id")
	if !ok {
		return
	}
	if _, ok := app.fetchReviewForMutation(w, r, titleID, reviewID); !ok {
		return
	}
	var input updateReviewInput
	if err := app.readJSON(w, r, &input); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	if validationErrs := validator.ValidateStruct(app.validator, input); validationErrs != nil {
		app.Http.ValidationFailed(w, r, validationErrs)
		return
	}
	review, err := app.Services.Reviews.Update(r.Context(), titleID, reviewID, input.Text, input.Score)
	if err != nil {
		app.respondReviewErr(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"review": review}, "")
}

func (app *Application) deleteReview(w http.ResponseWriter, r *http.Request) {
	if !app.checkPolicy(w, r, permissions.ReviewMutate, 0) {
		return
	}
	titleID, ok := app.extractIDParam(w, r, "title_id")
	if !ok {
		return
	}
	reviewID, ok := app.extractIDParam(w, r, "review_id")
	if !ok {
		return
	}
	if _, ok := app.fetchReviewForMutation(w, r, titleID, reviewID); !ok {
		return
	}
	if err := app.Services.Reviews.Delete(r.Context(), titleID, reviewID); err != nil {
		app.respondReviewErr(w, r, err)
		return
	}
	app.Http.NoContent(w, r, "")
}
