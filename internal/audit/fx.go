package audit

import (
	"github.com/perly101/purrfectpaw/internal/audit/repository"
	"github.com/perly101/purrfectpaw/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
