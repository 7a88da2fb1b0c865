package pricing

import (
	"github.com/vyoniqlabs/backoffice/internal/pricing/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("pricing",
	fx.Provide(repository.Provide),
)
