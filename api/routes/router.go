package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lfbag/storefront/api/controllers"
	"github.com/lfbag/storefront/api/middleware"
	"github.com/lfbag/storefront/internal/admin"
	"github.com/lfbag/storefront/internal/cart"
	"github.com/lfbag/storefront/internal/catalog"
	checkoutsvc "github.com/lfbag/storefront/internal/checkout"
	"github.com/lfbag/storefront/pkg/config"
	"github.com/lfbag/storefront/pkg/db"
	"github.com/lfbag/storefront/pkg/logger"
	"github.com/lfbag/storefront/pkg/metrics"
	"github.com/lfbag/storefront/pkg/redis"
)

// Params collects everything the router wires into handlers. DB, Redis and
// Gatherer may be nil in tests.
type Params struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          db.Pinger
	Redis       redis.Pinger
	Idempotency redis.IdempotencyStore
	Sessions    sessions.Store
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	Catalog     *catalog.Reader
	Cart        cart.Service
	Checkout    checkoutsvc.Service
	Admin       admin.Service
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.Metrics),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})
	if p.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	// idempotency resolves rules by the full route pattern, so it is attached
	// per route with With rather than on the subrouter
	idempotent := middleware.Idempotency(p.Idempotency, logg)
	session := middleware.Session(p.Sessions, cfg.Session.CookieName, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/products", controllers.CatalogList(p.Catalog, logg))
			r.Get("/products/{id}", controllers.CatalogProduct(p.Catalog, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(session)
			r.Get("/", controllers.CartGet(p.Cart, logg))
			r.Delete("/", controllers.CartClear(p.Cart, logg))
			r.Post("/items", controllers.CartAddItem(p.Cart, logg))
			r.Patch("/items/{id}", controllers.CartUpdateItem(p.Cart, logg))
			r.Delete("/items/{id}", controllers.CartRemoveItem(p.Cart, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Use(session)
			r.Get("/public-key", controllers.CheckoutPublicKey(p.Checkout, logg))
			r.Get("/address/{cep}", controllers.CheckoutAddress(p.Checkout, logg))
			r.Get("/payment-options", controllers.CheckoutPaymentOptions(p.Checkout, logg))
			r.Get("/payments/{id}", controllers.CheckoutPaymentStatus(p.Checkout, logg))
			r.Get("/attempts", controllers.CheckoutAttempts(p.Checkout, logg))
			r.Post("/begin", controllers.CheckoutBegin(p.Checkout, logg))
			r.Post("/quote", controllers.CheckoutQuote(p.Checkout, logg))
			r.With(idempotent).Post("/submit", controllers.CheckoutSubmit(p.Checkout, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.AdminAuth(cfg.AdminAuth, logg))
			r.Get("/session", controllers.AdminSession(logg))
			r.With(idempotent).Post("/products", controllers.AdminCreateProduct(p.Admin, logg))
			r.Put("/products/{id}", controllers.AdminUpdateProduct(p.Admin, logg))
			r.Delete("/products/{id}", controllers.AdminDeleteProduct(p.Admin, logg))
			r.Get("/orders", controllers.AdminListOrders(p.Admin, logg))
			r.Get("/orders/{id}", controllers.AdminGetOrder(p.Admin, logg))
			r.With(idempotent).Put("/orders/{id}/status", controllers.AdminUpdateOrderStatus(p.Admin, logg))
		})
	})

	return r
}
