package auth

import (
	"context"
	"errors"
	"log/slog"

	"reviewhub/proj/internal/domain/models"
	"reviewhub/proj/internal/storage"
)

type MailProvider interface {
	Send(recipient string, tmplName string, tmplData any) error
}

type TaskExecutor interface {
	Add(task func())
}

type UsersStorage interface {
	Insert(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
}

type AuthService struct {
	log          *slog.Logger
	storage      UsersStorage
	tokens       TokenProvider
	mailer       MailProvider
	taskExecutor TaskExecutor
}

func New(
	log *slog.Logger,
	storage UsersStorage,
	tokens TokenProvider,
	mailer MailProvider,
	taskExecutor TaskExecutor,
) *AuthService {
	return &AuthService{
		log:          log,
		storage:      storage,
		tokens:       tokens,
		mailer:       mailer,
		taskExecutor: taskExecutor,
	}
}

func (a *AuthService) sendConfirmationEmail(email string, username string, code string) {
	a.log.Info("sending confirmation email", "email", email)
	err := a.mailer.Send(
		email,
		"confirmation_code.html",
		map[string]any{
			"username":         username,
			"confirmationCode": code,
		})
	if err != nil {
		a.log.Error("Error sending confirmation email", "errMsg", err.Error())
	}
}

// Signup registers a user and dispatches a confirmation code. Repeating a
// signup with the exact username+email pair of an existing registration is
// idempotent: a fresh code is issued and resent instead of erroring.
func (a *AuthService) Signup(ctx context.Context, username, email string) (*models.User, error) {
	const op = "auth.AuthService.Signup"
	log := a.log.With("op", op, "username", username, "email", email)
	if username == models.ReservedUsername {
		return nil, ErrReservedUsername
	}

	byUsername, err := a.storage.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Error(err.Error())
		return nil, err
	}
	byEmail, err := a.storage.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Error(err.Error())
		return nil, err
	}
	if byUsername != nil && byEmail != nil && byUsername.ID == byEmail.ID {
		return a.resendCode(ctx, log, byUsername)
	}
	if conflictErr := signupConflict(byUsername != nil, byEmail != nil); conflictErr != nil {
		log.Info("signup conflict", "errors", conflictErr.Fields)
		return nil, conflictErr
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Role:     models.RoleUser,
	}
	code, hash, err := a.tokens.NewConfirmationCode(user)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}
	user.ConfirmationCodeHash = hash
	created, err := a.storage.Insert(ctx, user)
	if err != nil {
		// a concurrent signup may win the race; the DB constraint is the
		// backstop and must surface as the same field error
		var constraintErr *storage.ConstraintError
		if errors.As(err, &constraintErr) {
			log.Info("signup lost insert race", "constraint", constraintErr.Constraint)
			return nil, signupConflict(
				constraintErr.Constraint != usersEmailConstraint,
				constraintErr.Constraint == usersEmailConstraint,
			)
		}
		log.Error(err.Error())
		return nil, err
	}
	a.taskExecutor.Add(func() {
		a.sendConfirmationEmail(created.Email, created.Username, code)
	})
	return created, nil
}

const usersEmailConstraint = "users_email_key"

func signupConflict(usernameTaken, emailTaken bool) *ConflictError {
	fields := make(map[string]string)
	if usernameTaken {
		fields["username"] = "A user with that username already exists"
	}
	if emailTaken {
		fields["email"] = "A user with that email already exists"
	}
	if len(fields) == 0 {
		return nil
	}
	return &ConflictError{Fields: fields}
}

func (a *AuthService) resendCode(ctx context.Context, log *slog.Logger, user *models.User) (*models.User, error) {
	code, hash, err := a.tokens.NewConfirmationCode(user)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}
	user.ConfirmationCodeHash = hash
	updated, err := a.storage.Update(ctx, user)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}
	log.Info("repeated signup, resending confirmation code")
	a.taskExecutor.Add(func() {
		a.sendConfirmationEmail(updated.Email, updated.Username, code)
	})
	return updated, nil
}

// IssueToken exchanges a confirmation code for an access token and marks
// the account as confirmed.
func (a *AuthService) IssueToken(ctx context.Context, username, code string) (string, error) {
	const op = "auth.AuthService.IssueToken"
	log := a.log.With("op", op, "username", username)
	user, err := a.storage.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("user not found")
			return "", ErrUserNotFound
		}
		log.Error(err.Error())
		return "", err
	}
	if !a.tokens.VerifyConfirmationCode(user, code) {
		log.Info("confirmation code mismatch")
		return "", ErrInvalidConfirmationCode
	}
	if !user.IsActive {
		user.IsActive = true
		if user, err = a.storage.Update(ctx, user); err != nil {
			log.Error(err.Error())
			return "", err
		}
	}
	token, err := a.tokens.NewAccessToken(user)
	if err != nil {
		log.Error(err.Error())
		return "", err
	}
	return token, nil
}

// Authenticate resolves a bearer token to a user record.
func (a *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := a.tokens.ParseAccessToken(token)
	if err != nil {
		return nil, err
	}
	user, err := a.storage.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
