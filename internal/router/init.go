package router

import (
	"github.com/oksasatya/go-invoice-dashboard/internal/application"
	"github.com/oksasatya/go-invoice-dashboard/internal/container"
	pginfra "github.com/oksasatya/go-invoice-dashboard/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/go-invoice-dashboard/internal/interface/http"
	"github.com/oksasatya/go-invoice-dashboard/internal/router/modules"
)

// InitModules constructs all application modules from the container
// singletons and registers them with the router registry. Call once
// during startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	pool := container.GetPGPool()

	invoiceRepo := pginfra.NewInvoiceRepository(pool)
	customerRepo := pginfra.NewCustomerRepository(pool)
	userRepo := pginfra.NewUserRepository(pool)

	// typed nils must not end up inside the optional-collaborator interfaces
	var cache application.ListCache
	if vc := container.GetViewCache(); vc != nil {
		cache = vc
	}
	var pub application.EventPublisher
	if rp := container.GetRabbitPub(); rp != nil {
		pub = rp
	}

	invoiceSvc := application.NewInvoiceService(
		invoiceRepo,
		customerRepo,
		cache,
		pub,
		container.GetLogger(),
		container.GetES(),
		cfg.ESInvoicesIndex,
		container.GetGCS(),
		cfg.GCSBucket,
		cfg.InvoicesPerPage,
	)
	authSvc := application.NewAuthService(
		userRepo,
		container.GetJWT(),
		container.GetRedis(),
		container.GetLogger(),
	)

	invoiceHandler := handlers.NewInvoiceHandler(invoiceSvc, container.GetLogger())
	authHandler := handlers.NewAuthHandler(authSvc, container.GetLogger(), cfg.CookieDomain, cfg.CookieSecure)

	r.Add(modules.NewAuthModule(authHandler, container.GetJWT()))
	r.Add(modules.NewInvoiceModule(invoiceHandler, container.GetJWT()))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
