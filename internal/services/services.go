package services

import (
	"log/slog"

	"reviewhub/proj/internal/config"
	"reviewhub/proj/internal/mails"
	"reviewhub/proj/internal/services/auth"
	"reviewhub/proj/internal/services/catalog"
	"reviewhub/proj/internal/services/reviews"
	"reviewhub/proj/internal/services/users"
	"reviewhub/proj/internal/storage/postgres"
	"reviewhub/proj/internal/storage/postgres/models"
)

type Services struct {
	Auth    *auth.AuthService
	Catalog *catalog.CatalogService
	Reviews *reviews.ReviewService
	Users   *users.UserService
}

func New(log *slog.Logger, cfg *config.Config, storage *postgres.Storage, taskExecutor auth.TaskExecutor) *Services {
	mailer := mails.New(
		cfg.SMTPServer.Host,
		cfg.SMTPServer.Port,
		cfg.SMTPServer.Timeout,
		cfg.SMTPServer.Username,
		cfg.SMTPServer.Password,
		cfg.SMTPServer.Sender,
		cfg.SMTPServer.RetriesCount,
	)
	tokens := auth.NewJWTTokens(cfg.AppSecret, cfg.Auth.TokenTTL)
	m := models.New(storage)
	return &Services{
		Auth:    auth.New(log, m.Users, tokens, mailer, taskExecutor),
		Catalog: catalog.New(log, m.Categories, m.Genres, m.Titles, m.Reviews),
		Reviews: reviews.New(log, m.Titles, m.Reviews, m.Comments),
		Users:   users.New(log, m.Users),
	}
}
