package identity

import (
	"github.com/vyoniqlabs/backoffice/internal/identity/repository"
	"github.com/vyoniqlabs/backoffice/internal/identity/service"
	"go.uber.org/fx"
)

var Module = fx.Module("identity.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
