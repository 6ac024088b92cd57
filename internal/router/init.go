package router

import (
	userapp "github.com/tablebook/user-service/internal/application"
	"github.com/tablebook/user-service/internal/container"
	repouser "github.com/tablebook/user-service/internal/domain/repository"
	pginfra "github.com/tablebook/user-service/internal/infrastructure/postgres"
	handlers "github.com/tablebook/user-service/internal/interface/http"
	"github.com/tablebook/user-service/internal/router/modules"
)

type UserModuleDeps struct {
	Repo        repouser.UserRepository
	Service     *userapp.Service
	UserHandler *handlers.UserHandler
	AuthHandler *handlers.AuthHandler
}

func buildUserDeps() UserModuleDeps {
	repo := pginfra.NewUserRepository(container.GetPGPool())
	cfg := container.GetConfig()

	var events, mail userapp.Publisher
	if p := container.GetEventsPub(); p != nil {
		events = p
	}
	if p := container.GetMailPub(); p != nil {
		mail = p
	}

	service := userapp.NewService(
		repo,
		container.GetJWT(),
		container.GetRedis(),
		container.GetLogger(),
		events,
		mail,
		container.GetES(),
		cfg.ESUsersIndex,
		cfg.ResetPasswordURL,
	)

	return UserModuleDeps{
		Repo:        repo,
		Service:     service,
		UserHandler: handlers.NewUserHandler(service, container.GetLogger()),
		AuthHandler: handlers.NewAuthHandler(service, container.GetLogger()),
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	deps := buildUserDeps()
	r.Add(modules.NewUserModule(deps.UserHandler, container.GetJWT()))
	r.Add(modules.NewAuthModule(deps.AuthHandler, container.GetJWT()))
	if container.GetConfig().DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
