package router

import (
	"net"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/dtroode/taskboard-server/internal/api/http/handler"
	"github.com/dtroode/taskboard-server/internal/api/http/middleware"
	"github.com/dtroode/taskboard-server/internal/logger"
	"github.com/dtroode/taskboard-server/internal/model"
)

// Router wires the REST API onto an echo instance.
type Router struct {
	auth        handler.AuthService
	users       handler.UsersService
	parser      middleware.AccessTokenParser
	db          handler.Pinger
	corsOrigins []string
	proxies     []*net.IPNet
	logger      *logger.Logger
}

// New creates new HTTP Router instance.
func New(
	auth handler.AuthService,
	users handler.UsersService,
	parser middleware.AccessTokenParser,
	db handler.Pinger,
	corsOrigins []string,
	proxies []*net.IPNet,
	logger *logger.Logger,
) *Router {
	return &Router{
		auth:        auth,
		users:       users,
		parser:      parser,
		db:          db,
		corsOrigins: corsOrigins,
		proxies:     proxies,
		logger:      logger,
	}
}

// Register builds the echo instance with common middleware and all routes.
func (r *Router) Register() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.NewErrorHandler(r.logger)
	e.IPExtractor = r.ipExtractor()

	e.Use(
		echomw.Recover(),
		echomw.RequestID(),
		echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins:     r.corsOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
			AllowCredentials: true,
		}),
		middleware.RequestLogger(r.logger),
	)

	r.registerHealthRoutes(e)
	r.registerAuthRoutes(e)
	r.registerUserRoutes(e)

	return e
}

// ipExtractor reads the client address from X-Forwarded-For only when the
// request comes through one of the trusted proxies.
func (r *Router) ipExtractor() echo.IPExtractor {
	if len(r.proxies) == 0 {
		return echo.ExtractIPDirect()
	}

	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, n := range r.proxies {
		opts = append(opts, echo.TrustIPRange(n))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

func (r *Router) registerHealthRoutes(e *echo.Echo) {
	h := handler.NewHealth(r.db, r.logger)
	e.GET("/health/live", h.Live)
	e.GET("/health/ready", h.Ready)
}

func (r *Router) registerAuthRoutes(e *echo.Echo) {
	h := handler.NewAuth(r.auth)
	authn := middleware.NewAuthenticate(r.parser, r.logger)

	g := e.Group("/auth")
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/refresh", h.Refresh)
	g.POST("/logout", h.Logout, authn.RequireAuth)
	g.GET("/sessions", h.Sessions, authn.RequireAuth)
	g.DELETE("/sessions/:id", h.RevokeSession, authn.RequireAuth)
}

func (r *Router) registerUserRoutes(e *echo.Echo) {
	h := handler.NewUsers(r.users)
	authn := middleware.NewAuthenticate(r.parser, r.logger)

	g := e.Group("/users", authn.RequireAuth, middleware.RequireRole(model.RoleAdmin))
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id/block", h.ToggleBlock)
	g.PUT("/:id/activate", h.ToggleActive)
	g.DELETE("/:id", h.Delete)
}
