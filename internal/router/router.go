package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/authgo/backend/api/handler"
	"github.com/authgo/backend/internal/middleware"
)

type Handlers struct {
	Auth   *apiHandler.AuthHandler
	Health *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) fasthttp.RequestHandler {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Public auth routes
	r.POST("/auth/signup", handlers.Auth.SignUp)
	r.POST("/auth/login", handlers.Auth.Login)
	r.POST("/auth/forgot-password", handlers.Auth.ForgotPassword)

	// Token-protected routes
	r.GET("/auth/me", authMiddleware(handlers.Auth.Me))
	r.POST("/auth/logout", authMiddleware(handlers.Auth.Logout))

	return middleware.CORS(r.Handler)
}
