package audit

import (
	"github.com/pulseware/platform/internal/audit/repository"
	"github.com/pulseware/platform/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
