package otp

import (
	"github.com/perly101/purrfectpaw/internal/otp/service"
	"go.uber.org/fx"
)

var Module = fx.Module("otp.service",
	fx.Provide(service.New),
)
