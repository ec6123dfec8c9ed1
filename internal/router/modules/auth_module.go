package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-invoice-dashboard/internal/container"
	handlers "github.com/oksasatya/go-invoice-dashboard/internal/interface/http"
	"github.com/oksasatya/go-invoice-dashboard/internal/interface/middleware"
	"github.com/oksasatya/go-invoice-dashboard/pkg/helpers"
)

// AuthModule wires the login/refresh/logout routes.
// Public: POST /api/login, POST /api/refresh
// Protected: POST /api/logout
type AuthModule struct {
	Handler *handlers.AuthHandler
	JWT     *helpers.JWTManager
}

func NewAuthModule(h *handlers.AuthHandler, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Handler: h, JWT: jwt}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP())
	refreshLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIP())

	rg.POST("/login", loginLimiter, m.Handler.Login)
	rg.POST("/refresh", refreshLimiter, m.Handler.Refresh)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	auth.POST("/logout", m.Handler.Logout)
}
