package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-invoice-dashboard/internal/container"
	handlers "github.com/oksasatya/go-invoice-dashboard/internal/interface/http"
	"github.com/oksasatya/go-invoice-dashboard/internal/interface/middleware"
	"github.com/oksasatya/go-invoice-dashboard/pkg/helpers"
)

// InvoiceModule wires the invoice dashboard routes. Everything here is
// behind the session: reads, the three form mutations, and attachment
// upload.
type InvoiceModule struct {
	Handler *handlers.InvoiceHandler
	JWT     *helpers.JWTManager
}

func NewInvoiceModule(h *handlers.InvoiceHandler, jwt *helpers.JWTManager) *InvoiceModule {
	return &InvoiceModule{Handler: h, JWT: jwt}
}

func (m *InvoiceModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	auth.Use(
		middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP()),
		middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID()),
	)
	{
		auth.GET("/invoices", m.Handler.List)
		auth.GET("/invoices/:id", m.Handler.Get)
		auth.POST("/invoices", m.Handler.Create)
		auth.POST("/invoices/:id", m.Handler.Update)
		auth.POST("/invoices/:id/delete", m.Handler.Delete)
		auth.POST("/invoices/:id/attachment", m.Handler.UploadAttachment)
		auth.GET("/customers", m.Handler.Customers)
	}
}
