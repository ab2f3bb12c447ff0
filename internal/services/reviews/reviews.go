package reviews

import (
	"context"
	"errors"
	"log/slog"

	"reviewhub/proj/internal/domain/filters"
	"reviewhub/proj/internal/domain/models"
	"reviewhub/proj/internal/storage"
)

type TitlesStorage interface {
	Get(ctx context.Context, id int64) (*models.Title, error)
}

type ReviewsStorage interface {
	Insert(ctx context.Context, review *models.Review) (*models.Review, error)
	Get(ctx context.Context, titleID, reviewID int64) (*models.Review, error)
	ListForTitle(ctx context.Context, titleID int64, f filters.Filters) ([]models.Review, int, error)
	ExistsForAuthor(ctx context.Context, titleID, userID int64) (bool, error)
	Update(ctx context.Context, review *models.Review) (*models.Review, error)
	Delete(ctx context.Context, id int64) error
}

type CommentsStorage interface {
	Insert(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	Get(ctx context.Context, reviewID, commentID int64) (*models.Comment, error)
	ListForReview(ctx context.Context, reviewID int64, f filters.Filters) ([]models.Comment, int, error)
	Update(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	Delete(ctx context.Context, id int64) error
}

type ReviewService struct {
	log      *slog.Logger
	titles   TitlesStorage
	reviews  ReviewsStorage
	comments CommentsStorage
}

func New(log *slog.Logger, titles TitlesStorage, reviews ReviewsStorage, comments CommentsStorage) *ReviewService {
	return &ReviewService{
		log:      log,
		titles:   titles,
		reviews:  reviews,
		comments: comments,
	}
}

// resolveTitle anchors every nested review path: an unknown title id is a
// NotFound no matter what comes after it.
func (s *ReviewService) resolveTitle(ctx context.Context, titleID int64) (*models.Title, error) {
	title, err := s.titles.Get(ctx, titleID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrTitleNotFound
		}
		return nil, err
	}
	return title, nil
}

// resolveReview requires the review to belong to the title from the URL;
// a review under a different title must read as absent, not as a leak of
// its actual parent.
func (s *ReviewService) resolveReview(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	if _, err := s.resolveTitle(ctx, titleID); err != nil {
		return nil, err
	}
	review, err := s.reviews.Get(ctx, titleID, reviewID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) ListForTitle(ctx context.Context, titleID int64, f filters.Filters) ([]models.Review, filters.Metadata, error) {
	const op = "reviews.ReviewService.ListForTitle"
	if _, err := s.resolveTitle(ctx, titleID); err != nil {
		return nil, filters.Metadata{}, err
	}
	reviews, total, err := s.reviews.ListForTitle(ctx, titleID, f)
	if err != nil {
		s.log.Error(err.Error(), "op", op, "title_id", titleID)
		return nil, filters.Metadata{}, err
	}
	return reviews, filters.CalculateMetadata(total, f.Page, f.PageSize), nil
}

func (s *ReviewService) Get(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	return s.resolveReview(ctx, titleID, reviewID)
}

// Create validates the one-review-per-author invariant before inserting
// and stamps the author and resolved title server-side. The DB unique
// constraint backs the pre-check up against concurrent creates.
func (s *ReviewService) Create(ctx context.Context, titleID int64, actor *models.User, text string, score int) (*models.Review, error) {
	const op = "reviews.ReviewService.Create"
	log := s.log.With("op", op, "title_id", titleID, "user_id", actor.ID)
	title, err := s.resolveTitle(ctx, titleID)
	if err != nil {
		return nil, err
	}
	exists, err := s.reviews.ExistsForAuthor(ctx, title.ID, actor.ID)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}
	if exists {
		log.Info("duplicate review rejected")
		return nil, ErrReviewExists
	}
	review := &models.Review{
		TitleID: title.ID,
		UserID:  actor.ID,
		Text:    text,
		Score:   score,
	}
	created, err := s.reviews.Insert(ctx, review)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			log.Info("duplicate review lost insert race")
			return nil, ErrReviewExists
		}
		log.Error(err.Error())
		return nil, err
	}
	return created, nil
}

// Update patches text and score only; author, title and creation time are
// immutable and the duplicate pre-check does not apply here.
func (s *ReviewService) Update(ctx context.Context, titleID, reviewID int64, text *string, score *int) (*models.Review, error) {
	const op = "reviews.ReviewService.Update"
	review, err := s.resolveReview(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if text != nil {
		review.Text = *text
	}
	if score != nil {
		review.Score = *score
	}
	updated, err := s.reviews.Update(ctx, review)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrReviewNotFound
		}
		s.log.Error(err.Error(), "op", op, "review_id", reviewID)
		return nil, err
	}
	return updated, nil
}

func (s *ReviewService) Delete(ctx context.Context, titleID, reviewID int64) error {
	const op = "reviews.ReviewService.Delete"
	review, err := s.resolveReview(ctx, titleID, reviewID)
	if err != nil {
		return err
	}
	if err := s.reviews.Delete(ctx, review.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrReviewNotFound
		}
		s.log.Error(err.Error(), "op", op, "review_id", reviewID)
		return err
	}
	return nil
}

func (s *ReviewService) resolveComment(ctx context.Context, titleID, reviewID, commentID int64) (*models.Comment, error) {
	review, err := s.resolveReview(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	comment, err := s.comments.Get(ctx, review.ID, commentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return comment, nil
}

func (s *ReviewService) ListComments(ctx context.Context, titleID, reviewID int64, f filters.Filters) ([]models.Comment, filters.Metadata, error) {
	const op = "reviews.ReviewService.ListComments"
	review, err := s.resolveReview(ctx, titleID, reviewID)
	if err != nil {
		return nil, filters.Metadata{}, err
	}
	comments, total, err := s.comments.ListForReview(ctx, review.ID, f)
	if err != nil {
		s.log.Error(err.Error(), "op", op, "review_id", reviewID)
		return nil, filters.Metadata{}, err
	}
	return comments, filters.CalculateMetadata(total, f.Page, f.PageSize), nil
}

func (s *ReviewService) GetComment(ctx context.Context, titleID, reviewID, commentID int64) (*models.Comment, error) {
	return s.resolveComment(ctx, titleID, reviewID, commentID)
}

func (s *ReviewService) CreateComment(ctx context.Context, titleID, reviewID int64, actor *models.User, text string) (*models.Comment, error) {
	const op = "reviews.ReviewService.CreateComment"
	review, err := s.resolveReview(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	comment := &models.Comment{
		ReviewID: review.ID,
		UserID:   actor.ID,
		Text:     text,
	}
	created, err := s.comments.Insert(ctx, comment)
	if err != nil {
		s.log.Error(err.Error(), "op", op, "review_id", reviewID)
		return nil, err
	}
	return created, nil
}

func (s *ReviewService) UpdateComment(ctx context.Context, titleID, reviewID, commentID int64, text *string) (*models.Comment, error) {
	const op = "reviews.ReviewService.UpdateComment"
	comment, err := s.resolveComment(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	if text != nil {
		comment.Text = *text
	}
	updated, err := s.comments.Update(ctx, comment)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrCommentNotFound
		}
		s.log.Error(err.Error(), "op", op, "comment_id", commentID)
		return nil, err
	}
	return updated, nil
}

func (s *ReviewService) DeleteComment(ctx context.Context, titleID, reviewID, commentID int64) error {
	const op = "reviews.ReviewService.DeleteComment"
	comment, err := s.resolveComment(ctx, titleID, reviewID, commentID)
	if err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, comment.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrCommentNotFound
		}
		s.log.Error(err.Error(), "op", op, "comment_id", commentID)
		return err
	}
	return nil
}
