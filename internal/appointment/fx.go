package appointment

import (
	"github.com/perly101/purrfectpaw/internal/appointment/repository"
	"github.com/perly101/purrfectpaw/internal/appointment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("appointment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
