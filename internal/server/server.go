package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vyoniqlabs/backoffice/internal/apikey"
	apikeydomain "github.com/vyoniqlabs/backoffice/internal/apikey/domain"
	"github.com/vyoniqlabs/backoffice/internal/blog"
	blogdomain "github.com/vyoniqlabs/backoffice/internal/blog/domain"
	"github.com/vyoniqlabs/backoffice/internal/config"
	"github.com/vyoniqlabs/backoffice/internal/identity"
	identitydomain "github.com/vyoniqlabs/backoffice/internal/identity/domain"
	"github.com/vyoniqlabs/backoffice/internal/inquiry"
	inquirydomain "github.com/vyoniqlabs/backoffice/internal/inquiry/domain"
	"github.com/vyoniqlabs/backoffice/internal/mcp"
	"github.com/vyoniqlabs/backoffice/internal/payment"
	paymentdomain "github.com/vyoniqlabs/backoffice/internal/payment/domain"
	"github.com/vyoniqlabs/backoffice/internal/pricing"
	pricingdomain "github.com/vyoniqlabs/backoffice/internal/pricing/domain"
	"github.com/vyoniqlabs/backoffice/internal/providers/email"
	"github.com/vyoniqlabs/backoffice/internal/quote"
	quotedomain "github.com/vyoniqlabs/backoffice/internal/quote/domain"
	"github.com/vyoniqlabs/backoffice/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	config.Module,
	fx.Provide(registerGin),
	email.Module,
	identity.Module,
	inquiry.Module,
	pricing.Module,
	blog.Module,
	apikey.Module,
	payment.Module,
	quote.Module,
	ratelimit.Module,
	mcp.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin() *gin.Engine {
	return NewEngine()
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	identitySvc   identitydomain.Service
	inquiryRepo   inquirydomain.Repository
	pricingRepo   pricingdomain.Repository
	blogSvc       blogdomain.Service
	quoteSvc      quotedomain.Service
	paymentSvc    paymentdomain.Service
	apiKeySvc     apikeydomain.Service
	publicLimiter *ratelimit.PublicLimiter
	mcpSrv        *mcp.Server
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	IdentitySvc   identitydomain.Service
	InquiryRepo   inquirydomain.Repository
	PricingRepo   pricingdomain.Repository
	BlogSvc       blogdomain.Service
	QuoteSvc      quotedomain.Service
	PaymentSvc    paymentdomain.Service
	APIKeySvc     apikeydomain.Service
	PublicLimiter *ratelimit.PublicLimiter
	MCPSrv        *mcp.Server
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		db:            p.DB,
		log:           p.Log.Named("http.server"),
		genID:         p.GenID,
		identitySvc:   p.IdentitySvc,
		inquiryRepo:   p.InquiryRepo,
		pricingRepo:   p.PricingRepo,
		blogSvc:       p.BlogSvc,
		quoteSvc:      p.QuoteSvc,
		paymentSvc:    p.PaymentSvc,
		apiKeySvc:     p.APIKeySvc,
		publicLimiter: p.PublicLimiter,
		mcpSrv:        p.MCPSrv,
	}

	svc.registerAPIRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Public site --------
	api.POST("/inquiries", s.CreateInquiry)
	api.GET("/pricing", s.ListPricing)
	api.GET("/pricing/:id", s.GetPricingByID)
	api.GET("/blog/posts", s.ListBlogPosts)
	api.GET("/blog/posts/:slug", s.GetBlogPost)
	api.GET("/blog/categories", s.ListBlogCategories)

	// -------- Checkout --------
	api.POST("/checkout", s.CreateCheckoutSession)

	// -------- Payment webhooks --------
	api.POST("/payments/webhooks/stripe", s.HandleStripeWebhook)

	// -------- MCP --------
	mcpGroup := api.Group("/mcp", MCPCORSMiddleware())
	mcpGroup.GET("", s.MCPDiscovery)
	mcpGroup.POST("", s.HandleMCP)
	mcpGroup.OPTIONS("", s.MCPPreflight)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin")
	admin.Use(s.AdminRequired())

	// -------- Inquiries --------
	admin.GET("/inquiries", s.ListInquiries)
	admin.POST("/inquiries/:id/status", s.UpdateInquiryStatus)

	// -------- Quotes --------
	admin.POST("/quotes", s.CreateQuote)
	admin.POST("/quotes/standalone", s.CreateStandaloneQuote)
	admin.GET("/quotes", s.ListQuotes)
	admin.GET("/quotes/:kind/:id", s.GetQuote)
	admin.POST("/quotes/:kind/:id/approve", s.ApproveQuote)

	// -------- API keys --------
	admin.GET("/api-keys/scopes", s.ListAPIKeyScopes)
	admin.GET("/api-keys", s.ListAPIKeys)
	admin.POST("/api-keys", s.CreateAPIKey)
	admin.POST("/api-keys/:key_id/rotate", s.RotateAPIKey)
	admin.POST("/api-keys/:key_id/revoke", s.RevokeAPIKey)
}
