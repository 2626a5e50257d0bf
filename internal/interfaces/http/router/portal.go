package router

import (
	"fmt"

	_ "github.com/dealerportal/backend/docs"
	"github.com/dealerportal/backend/internal/application/portal"
	"github.com/dealerportal/backend/internal/infrastructure/config"
	"github.com/dealerportal/backend/internal/infrastructure/logger"
	"github.com/dealerportal/backend/internal/infrastructure/metrics"
	"github.com/dealerportal/backend/internal/interfaces/http/handler"
	"github.com/dealerportal/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Deps are the collaborators of the portal API
type Deps struct {
	Registry      *portal.Registry
	System        *handler.SystemHandler
	HTTP          config.HTTPConfig
	MetricsConfig config.MetricsConfig
	Metrics       *metrics.Metrics
	Tracing       middleware.TracingConfig
	Swagger       config.SwaggerConfig
	// AuthLimiter throttles the credential endpoints; nil disables it
	AuthLimiter   *middleware.RateLimiter
	Logger        *zap.Logger
}

// NewEngine builds the gin engine with the middleware chain and every
// portal route.
func NewEngine(deps Deps) (*gin.Engine, error) {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(deps.HTTP.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	engine.Use(
		logger.Recovery(log),
		middleware.Tracing(deps.Tracing),
		logger.GinMiddleware(log),
		middleware.SpanEnricher(),
		middleware.HTTPMetrics(deps.Metrics),
		middleware.Secure(),
		middleware.CORSWithConfig(middleware.CORSFromHTTPConfig(deps.HTTP)),
		middleware.BodyLimit(deps.HTTP.MaxBodySize),
	)
	middleware.SetupValidator()

	if deps.System != nil {
		engine.GET("/health", deps.System.Health)
	}
	if deps.MetricsConfig.Enabled && deps.Metrics != nil {
		path := deps.MetricsConfig.Path
		if path == "" {
			path = "/metrics"
		}
		engine.GET(path, gin.WrapH(deps.Metrics.Handler()))
	}
	engine.GET("/swagger/*any", middleware.SwaggerProtection(deps.Swagger), ginSwagger.WrapHandler(swaggerFiles.Handler))

	r := NewRouter(engine)
	for _, group := range portalGroups(deps) {
		r.Register(group)
	}
	r.Setup()
	return engine, nil
}

func portalGroups(deps Deps) []RouteRegistrar {
	requireSession := middleware.SessionAuth(deps.Registry)
	throttle := middleware.RateLimit(deps.AuthLimiter)

	authH := handler.NewAuthHandler(deps.Registry)
	sessionH := handler.NewSessionHandler()
	orderH := handler.NewOrderHandler()
	quoteH := handler.NewQuoteHandler()
	productH := handler.NewProductHandler()

	authGroup := NewDomainGroup("auth", "/auth").
		POST("/sign-in", throttle, authH.SignIn).
		POST("/sign-up", throttle, authH.SignUp).
		POST("/refresh", throttle, authH.Refresh).
		POST("/sign-out", requireSession, authH.SignOut)

	sessionGroup := NewDomainGroup("session", "/session").
		Use(requireSession).
		GET("", sessionH.Get).
		PATCH("/profile", sessionH.UpdateProfile)

	orders := NewDomainGroup("orders", "/orders").
		Use(requireSession).
		GET("", orderH.List).
		POST("", orderH.Create)

	quotes := NewDomainGroup("quotes", "/quotes").
		Use(requireSession).
		GET("", quoteH.List).
		POST("", quoteH.Create)

	products := NewDomainGroup("products", "/products").
		Use(requireSession).
		GET("", productH.List)

	groups := []RouteRegistrar{authGroup, sessionGroup, orders, quotes, products}
	if deps.System != nil {
		groups = append(groups, NewDomainGroup("system", "/system").GET("/info", deps.System.GetSystemInfo))
	}
	return groups
}
