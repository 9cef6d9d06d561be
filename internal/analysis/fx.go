package analysis

import (
	"github.com/pulseware/platform/internal/analysis/service"
	"go.uber.org/fx"
)

var Module = fx.Module("analysis",
	fx.Provide(service.NewService),
)
