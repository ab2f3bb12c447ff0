package users

import (
	"context"
	"errors"
	"log/slog"

	"reviewhub/proj/internal/domain/filters"
	"reviewhub/proj/internal/domain/models"
	"reviewhub/proj/internal/storage"
)

type UsersStorage interface {
	Insert(ctx context.Context, user *models.User) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context, search string, f filters.Filters) ([]models.User, int, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	Delete(ctx context.Context, username string) error
}

type UserService struct {
	log     *slog.Logger
	storage UsersStorage
}

func New(log *slog.Logger, storage UsersStorage) *UserService {
	return &UserService{log: log, storage: storage}
}

type UserParams struct {
	Username *string
	Email    *string
	Bio      *string
	Role     *string
}

func (s *UserService) List(ctx context.Context, search string, f filters.Filters) ([]models.User, filters.Metadata, error) {
	users, total, err := s.storage.List(ctx, search, f)
	if err != nil {
		s.log.Error(err.Error(), "op", "users.UserService.List")
		return nil, filters.Metadata{}, err
	}
	return users, filters.CalculateMetadata(total, f.Page, f.PageSize), nil
}

func (s *UserService) Get(ctx context.Context, username string) (*models.User, error) {
	user, err := s.storage.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		s.log.Error(err.Error(), "op", "users.UserService.Get", "username", username)
		return nil, err
	}
	return user, nil
}

// Create is the administrative path: the account is usable immediately and
// the role may be set directly.
func (s *UserService) Create(ctx context.Context, username, email, role, bio string) (*models.User, error) {
	const op = "users.UserService.Create"
	log := s.log.With("op", op, "username", username)
	if role == "" {
		role = models.RoleUser
	}
	user := &models.User{
		Username: username,
		Email:    email,
		Bio:      bio,
		Role:     role,
		IsActive: true,
	}
	created, err := s.storage.Insert(ctx, user)
	if err != nil {
		if conflictErr := mapIdentityConflict(err); conflictErr != nil {
			log.Info("user identity conflict", "errors", conflictErr.Fields)
			return nil, conflictErr
		}
		log.Error(err.Error())
		return nil, err
	}
	return created, nil
}

func (s *UserService) Update(ctx context.Context, username string, params UserParams) (*models.User, error) {
	const op = "users.UserService.Update"
	log := s.log.With("op", op, "username", username)
	user, err := s.Get(ctx, username)
	if err != nil {
		return nil, err
	}
	applyParams(user, params)
	if params.Role != nil {
		user.Role = *params.Role
	}
	updated, err := s.storage.Update(ctx, user)
	if err != nil {
		if conflictErr := mapIdentityConflict(err); conflictErr != nil {
			log.Info("user identity conflict", "errors", conflictErr.Fields)
			return nil, conflictErr
		}
		log.Error(err.Error())
		return nil, err
	}
	return updated, nil
}

// UpdateProfile is the self-service path: whatever the client sent, the
// stored role is preserved so users cannot escalate themselves.
func (s *UserService) UpdateProfile(ctx context.Context, actor *models.User, params UserParams) (*models.User, error) {
	const op = "users.UserService.UpdateProfile"
	log := s.log.With("op", op, "username", actor.Username)
	user := *actor
	applyParams(&user, params)
	user.Role = actor.Role
	updated, err := s.storage.Update(ctx, &user)
	if err != nil {
		if conflictErr := mapIdentityConflict(err); conflictErr != nil {
			log.Info("user identity conflict", "errors", conflictErr.Fields)
			return nil, conflictErr
		}
		log.Error(err.Error())
		return nil, err
	}
	return updated, nil
}

func (s *UserService) Delete(ctx context.Context, username string) error {
	const op = "users.UserService.Delete"
	if err := s.storage.Delete(ctx, username); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrUserNotFound
		}
		s.log.Error(err.Error(), "op", op, "username", username)
		return err
	}
	return nil
}

func applyParams(user *models.User, params UserParams) {
	if params.Username != nil {
		user.Username = *params.Username
	}
	if params.Email != nil {
		user.Email = *params.Email
	}
	if params.Bio != nil {
		user.Bio = *params.Bio
	}
}

const usersEmailConstraint = "users_email_key"

func mapIdentityConflict(err error) *ConflictError {
	var constraintErr *storage.ConstraintError
	if !errors.As(err, &constraintErr) {
		return nil
	}
	if constraintErr.Constraint == usersEmailConstraint {
		return &ConflictError{Fields: map[string]string{"email": "A user with that email already exists"}}
	}
	return &ConflictError{Fields: map[string]string{"username": "A user with that username already exists"}}
}
