package inquiry

import (
	"github.com/vyoniqlabs/backoffice/internal/inquiry/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("inquiry",
	fx.Provide(repository.Provide),
)
