package payment

import (
	"github.com/perly101/purrfectpaw/internal/payment/repository"
	"github.com/perly101/purrfectpaw/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
