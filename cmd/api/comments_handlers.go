package main

import (
	"net/http"

	"reviewhub/proj/internal/domain/filters"
	"reviewhub/proj/internal/domain/models"
	"reviewhub/proj/internal/lib/validator"
	"reviewhub/proj/internal/permissions"
)

type createCommentInput struct {
	Text string `json:"text" validate:"required"`
}

type updateCommentInput struct {
	Text *string `json:"text" validate:"omitempty"`
}

func (app *Application) extractCommentPath(w http.ResponseWriter, r *http.Request) (titleID, reviewID int64, ok bool) {
	if titleID, ok = app.extractIDParam(w, r, "title_id"); !ok {
		return 0, 0, false
	}
	if reviewID, ok = app.extractIDParam(w, r, "review_id"); !ok {
		return 0, 0, false
	}
	return titleID, reviewID, true
}

func (app *Application) listComments(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := app.extractCommentPath(w, r)
	if !ok {
		return
	}
	input := filters.SearchFilters{Filters: defaultFilters("created_at")}
	input.Sort = "-created_at"
	if !app.decodeQuery(w, r, &input) {
		return
	}
	if !app.validateFilters(w, r, input, &input.Filters) {
		return
	}
	comments, metadata, err := app.Services.Reviews.ListComments(r.Context(), titleID, reviewID, input.Filters)
	if err != nil {
		app.respondReviewErr(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"comments": comments, "metadata": metadata}, "")
}

func (app *Application) getComment(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := app.extractCommentPath(w, r)
	if !ok {
		return
	}
	commentID, ok := app.extractIDParam(w, r, "comment_id")
	if !ok {
		return
	}
	comment, err := app.Services.Reviews.GetComment(r.Context(), titleID, reviewID, commentID)
	if err != nil {
		app.respondReviewErr(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"comment": comment}, "")
}

func (app *Application) createComment(w http.ResponseWriter, r *http.Request) {
	if !app.checkPolicy(w, r, permissions.ReviewMutate, 0) {
		return
	}
	titleID, reviewID, ok := app.extractCommentPath(w, r)
	if !ok {
		return
	}
	var input createCommentInput
	if err := app.readJSON(w, r, &input); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	if validationErrs := validator.ValidateStruct(app.validator, input); validationErrs != nil {
		app.Http.ValidationFailed(w, r, validationErrs)
		return
	}
	comment, err := app.Services.Reviews.CreateComment(r.Context(), titleID, reviewID, app.actor(r), input.Text)
	if err != nil {
		app.respondReviewErr(w, r, err)
		return
	}
	app.Http.Created(w, r, envelop{"comment": comment}, "")
}

func (app *Application) fetchCommentForMutation(w http.ResponseWriter, r *http.Request, titleID, reviewID, commentID int64) (*models.Comment, bool) {
	comment, err := app.Services.Reviews.GetComment(r.Context(), titleID, reviewID, commentID)
	if err != nil {
		app.respondReviewErr(w, r, err)
		return nil, false
	}
	if !app.checkPolicy(w, r, permissions.ReviewObject, comment.UserID) {
		return nil, false
	}
	return comment, true
}

func (app *Application) updateComment(w http.ResponseWriter, r *http.Request) {
	if !app.checkPolicy(w, r, permissions.ReviewMutate, 0) {
		return
	}
	titleID, reviewID, ok := app.extractCommentPath(w, r)
	if !ok {
		return
	}
	commentID, ok := app.extractIDParam(w, r, "comment_id")
	if !ok {
		return
	}
	if _, ok := app.fetchCommentForMutation(w, r, titleID, reviewID, commentID); !ok {
		return
	}
	var input updateCommentInput
	if err := app.readJSON(w, r, &input); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	if validationErrs := validator.ValidateStruct(app.validator, input); validationErrs != nil {
		app.Http.ValidationFailed(w, r, validationErrs)
		return
	}
	comment, err := app.Services.Reviews.UpdateComment(r.Context(), titleID, reviewID, commentID, input.Text)
	if err != nil {
		app.respondReviewErr(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"comment": comment}, "")
}

func (app *Application) deleteComment(w http.ResponseWriter, r *http.Request) {
	if !app.checkPolicy(w, r, permissions.ReviewMutate, 0) {
		return
	}
	titleID, reviewID, ok := app.extractCommentPath(w, r)
	if !ok {
		return
	}
	commentID, ok := app.extractIDParam(w, r, "comment_id")
	if !ok {
		return
	}
	if _, ok := app.fetchCommentForMutation(w, r, titleID, reviewID, commentID); !ok {
		return
	}
	if err := app.Services.Reviews.DeleteComment(r.Context(), titleID, reviewID, commentID); err != nil {
		app.respondReviewErr(w, r, err)
		return
	}
	app.Http.NoContent(w, r, "")
}
