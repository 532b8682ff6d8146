package sms

import (
	"github.com/perly101/purrfectpaw/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.sms",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, log *zap.Logger) Provider {
	if cfg.SMS.APIKey == "" {
		log.Named("providers.sms").Warn("no SMS API key configured, messages will be dropped")
		return &NoOpProvider{}
	}
	return NewSemaphore(cfg.SMS)
}
