package quote

import (
	"github.com/vyoniqlabs/backoffice/internal/config"
	"github.com/vyoniqlabs/backoffice/internal/quote/repository"
	"github.com/vyoniqlabs/backoffice/internal/quote/service"
	"go.uber.org/fx"
)

var Module = fx.Module("quote.service",
	fx.Provide(config.NewQuoteConfigHolder),
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
