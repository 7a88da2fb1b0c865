package mcp

import (
	blogdomain "github.com/vyoniqlabs/backoffice/internal/blog/domain"
	"github.com/vyoniqlabs/backoffice/internal/config"
	inquirydomain "github.com/vyoniqlabs/backoffice/internal/inquiry/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type BuildParams struct {
	fx.In

	Config      config.Config
	DB          *gorm.DB
	Log         *zap.Logger
	Blog        blogdomain.Service
	InquiryRepo inquirydomain.Repository
}

func NewDefaultServer(p BuildParams) (*Server, error) {
	registry := NewRegistry()
	err := RegisterDefaultTools(registry, Deps{
		DB:          p.DB,
		Blog:        p.Blog,
		InquiryRepo: p.InquiryRepo,
	})
	if err != nil {
		return nil, err
	}
	return NewServer(registry, p.Log, p.Config.AppName, p.Config.AppVersion), nil
}

var Module = fx.Module("mcp",
	fx.Provide(NewDefaultServer),
)
