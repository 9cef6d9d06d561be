package payment

import (
	"github.com/pulseware/platform/internal/config"
	"github.com/pulseware/platform/internal/payment/gateway"
	"github.com/pulseware/platform/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment",
	fx.Provide(
		func(cfg config.Config) gateway.Adapter {
			return gateway.NewPaystack(cfg.GatewaySecret)
		},
		service.NewService,
	),
)
