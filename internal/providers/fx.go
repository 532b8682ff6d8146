package providers

import (
	"github.com/perly101/purrfectpaw/internal/providers/email"
	"github.com/perly101/purrfectpaw/internal/providers/pdf"
	"github.com/perly101/purrfectpaw/internal/providers/sms"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	pdf.Module,
	sms.Module,
)
