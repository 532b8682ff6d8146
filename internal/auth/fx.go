package auth

import (
	"github.com/perly101/purrfectpaw/internal/auth/repository"
	"github.com/perly101/purrfectpaw/internal/auth/service"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
