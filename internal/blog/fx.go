package blog

import (
	"github.com/vyoniqlabs/backoffice/internal/blog/repository"
	"github.com/vyoniqlabs/backoffice/internal/blog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("blog",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
