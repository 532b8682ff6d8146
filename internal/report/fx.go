package report

import (
	"github.com/perly101/purrfectpaw/internal/report/service"
	"go.uber.org/fx"
)

var Module = fx.Module("report.service",
	fx.Provide(service.New),
)
