package clinic

import (
	"github.com/perly101/purrfectpaw/internal/clinic/repository"
	"github.com/perly101/purrfectpaw/internal/clinic/service"
	"go.uber.org/fx"
)

var Module = fx.Module("clinic.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
