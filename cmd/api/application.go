package main

import (
	"log/slog"

	"reviewhub/proj/internal/api/tasks"
	"reviewhub/proj/internal/config"
	"reviewhub/proj/internal/lib/validator"
	"reviewhub/proj/internal/services"
	"reviewhub/proj/internal/storage/postgres"

	govalidator "github.com/go-playground/validator/v10"
)

type Application struct {
	cfg       *config.Config
	log       *slog.Logger
	Http      *Http
	Services  *services.Services
	validator *govalidator.Validate
	bgTasks   *tasks.BackgroundTasks
}

func NewApplication(cfg *config.Config, log *slog.Logger, storage *postgres.Storage) *Application {
	v := govalidator.New(govalidator.WithRequiredStructEnabled())
	validator.Register(v)
	bgTasks := tasks.New(log, cfg.Tasks.MaxWorkers, cfg.Tasks.MaxQueueSize)
	return &Application{
		cfg:       cfg,
		log:       log,
		validator: v,
		bgTasks:   bgTasks,
		Services:  services.New(log, cfg, storage, bgTasks),
		Http: &Http{
			log: log,
			cfg: cfg,
		},
	}
}
