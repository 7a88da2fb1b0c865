package payment

import (
	"github.com/vyoniqlabs/backoffice/internal/config"
	"github.com/vyoniqlabs/backoffice/internal/payment/repository"
	paymentservice "github.com/vyoniqlabs/backoffice/internal/payment/service"
	"github.com/vyoniqlabs/backoffice/internal/payment/stripe"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(func(cfg config.Config) *stripe.Client {
		return stripe.NewClient(cfg.StripeSecretKey)
	}),
	fx.Provide(paymentservice.NewService),
)
