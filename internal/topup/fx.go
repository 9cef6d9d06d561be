package topup

import (
	"github.com/pulseware/platform/internal/topup/service"
	"go.uber.org/fx"
)

var Module = fx.Module("topup",
	fx.Provide(service.NewService),
)
