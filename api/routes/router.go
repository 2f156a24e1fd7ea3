package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/kitstore-backend/api/controllers"
	"github.com/angelmondragon/kitstore-backend/api/middleware"
	"github.com/angelmondragon/kitstore-backend/internal/admin"
	"github.com/angelmondragon/kitstore-backend/internal/auth"
	"github.com/angelmondragon/kitstore-backend/internal/banners"
	"github.com/angelmondragon/kitstore-backend/internal/cart"
	"github.com/angelmondragon/kitstore-backend/internal/checkout"
	"github.com/angelmondragon/kitstore-backend/internal/delivery"
	"github.com/angelmondragon/kitstore-backend/internal/leagues"
	"github.com/angelmondragon/kitstore-backend/internal/orders"
	"github.com/angelmondragon/kitstore-backend/internal/products"
	"github.com/angelmondragon/kitstore-backend/pkg/auth/session"
	"github.com/angelmondragon/kitstore-backend/pkg/config"
	"github.com/angelmondragon/kitstore-backend/pkg/enums"
	"github.com/angelmondragon/kitstore-backend/pkg/logger"
	"github.com/angelmondragon/kitstore-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/kitstore-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

type redisStore interface {
	pkgredis.IdempotencyStore
	middleware.RateLimiter
}

// Params carries everything the router mounts. Readiness checks and the
// metrics gatherer are optional.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	Redis    redisStore
	Sessions sessionManager

	Auth     auth.Service
	Leagues  leagues.Service
	Products products.Service
	Cart     cart.Service
	Orders   orders.Service
	Checkout checkout.Service
	Delivery delivery.Service
	Banners  banners.Service
	Admin    admin.Service

	Readiness   []controllers.ReadinessCheck
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.HTTPMetrics),
		middleware.CORS(cfg.CORS),
	)

	limiter, idem := rateLimiter(p.Redis), idempotencyStore(p.Redis)

	loginPolicy := middleware.NewRateLimitPolicy("login", cfg.AuthRateLimit.LoginWindow, cfg.AuthRateLimit.LoginIPLimit)
	registerPolicy := middleware.NewRateLimitPolicy("register", cfg.AuthRateLimit.LoginWindow, cfg.AuthRateLimit.LoginIPLimit)
	paymentPolicy := middleware.NewRateLimitPolicy("paystack_initialize", cfg.AuthRateLimit.PaymentInitWindow, cfg.AuthRateLimit.PaymentInitIPLimit)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.Readiness...))
	})
	if p.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, p.Sessions, logg))

			r.Get("/leagues", controllers.ListLeagues(p.Leagues, logg))
			r.Get("/teams", controllers.ListTeams(p.Leagues, logg))
			r.Get("/teams/{teamId}", controllers.GetTeam(p.Leagues, logg))
			r.Get("/products", controllers.ListProducts(p.Products, logg))
			r.Get("/products/{productId}", controllers.GetProduct(p.Products, logg))
			r.Get("/delivery-prices", controllers.DeliveryPrices(p.Delivery, logg))
			r.Get("/banners", controllers.ListBanners(p.Banners, logg))

			r.With(middleware.Idempotency(idem, middleware.CriticalIdempotencyTTL, logg)).
				Post("/orders/create", controllers.CreateOrder(p.Checkout, logg))
			r.Get("/orders/{orderId}", controllers.GetOrder(p.Orders, logg))

			r.With(
				middleware.RateLimit(paymentPolicy, limiter, logg),
				middleware.Idempotency(idem, middleware.DefaultIdempotencyTTL, logg),
			).Post("/paystack/initialize", controllers.PaystackInitialize(p.Checkout, logg))
		})

		r.Post("/paystack/webhook", controllers.PaystackWebhook(p.Checkout, logg))

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.RateLimit(registerPolicy, limiter, logg)).Post("/register", controllers.AuthRegister(p.Auth, logg))
			r.With(middleware.RateLimit(loginPolicy, limiter, logg)).Post("/login", controllers.AuthLogin(p.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(p.Sessions, cfg.JWT, logg))
			r.Post("/logout", controllers.AuthLogout(p.Sessions, cfg.JWT, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))

			r.Get("/me/orders", controllers.MyOrders(p.Orders, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(p.Cart, logg))
				r.Delete("/", controllers.CartClear(p.Cart, logg))
				r.Post("/items", controllers.CartAddItem(p.Cart, logg))
				r.Patch("/items/{itemId}", controllers.CartUpdateItem(p.Cart, logg))
				r.Delete("/items/{itemId}", controllers.CartRemoveItem(p.Cart, logg))
				r.Post("/merge", controllers.CartMerge(p.Cart, logg))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(
				middleware.Auth(cfg.JWT, p.Sessions, logg),
				middleware.RequireRole(logg, enums.UserRoleAdmin),
			)

			r.With(middleware.Idempotency(idem, middleware.DefaultIdempotencyTTL, logg)).
				Post("/orders/update-status", controllers.AdminUpdateOrderStatus(p.Orders, logg))

			r.Route("/admin", func(r chi.Router) {
				r.Get("/dashboard", controllers.AdminDashboard(p.Admin, logg))
				r.Get("/customers", controllers.AdminCustomers(p.Admin, logg))
				r.Get("/analytics/revenue", controllers.AdminRevenue(p.Admin, logg))

				r.Get("/orders", controllers.AdminListOrders(p.Orders, logg))
				r.Delete("/orders/{orderId}", controllers.AdminDeleteOrder(p.Orders, logg))

				r.Route("/leagues", func(r chi.Router) {
					r.Post("/", controllers.AdminCreateLeague(p.Leagues, logg))
					r.Patch("/{leagueId}", controllers.AdminUpdateLeague(p.Leagues, logg))
					r.Delete("/{leagueId}", controllers.AdminDeleteLeague(p.Leagues, logg))
				})
				r.Route("/teams", func(r chi.Router) {
					r.Post("/", controllers.AdminCreateTeam(p.Leagues, logg))
					r.Patch("/{teamId}", controllers.AdminUpdateTeam(p.Leagues, logg))
					r.Delete("/{teamId}", controllers.AdminDeleteTeam(p.Leagues, logg))
				})
				r.Route("/products", func(r chi.Router) {
					r.Get("/", controllers.AdminListProducts(p.Products, logg))
					r.Post("/", controllers.AdminCreateProduct(p.Products, logg))
					r.Get("/{productId}", controllers.AdminGetProduct(p.Products, logg))
					r.Patch("/{productId}", controllers.AdminUpdateProduct(p.Products, logg))
					r.Delete("/{productId}", controllers.AdminDeleteProduct(p.Products, logg))
					r.Post("/{productId}/stock", controllers.AdminAdjustStock(p.Products, logg))
				})
				r.Route("/delivery-prices", func(r chi.Router) {
					r.Get("/", controllers.AdminListDeliveryPrices(p.Delivery, logg))
					r.Put("/", controllers.AdminUpsertDeliveryPrice(p.Delivery, logg))
					r.Delete("/{location}", controllers.AdminDeleteDeliveryPrice(p.Delivery, logg))
				})
				r.Route("/banners", func(r chi.Router) {
					r.Get("/", controllers.AdminListBanners(p.Banners, logg))
					r.Post("/", controllers.AdminCreateBanner(p.Banners, logg))
					r.Post("/upload-url", controllers.AdminBannerUploadURL(p.Banners, logg))
					r.Patch("/{bannerId}", controllers.AdminUpdateBanner(p.Banners, logg))
					r.Delete("/{bannerId}", controllers.AdminDeleteBanner(p.Banners, logg))
				})
			})
		})
	})

	return r
}

// rateLimiter and idempotencyStore return untyped nils when Redis is absent so
// the middleware's nil checks see a nil interface.
func rateLimiter(store redisStore) middleware.RateLimiter {
	if store == nil {
		return nil
	}
	return store
}

func idempotencyStore(store redisStore) pkgredis.IdempotencyStore {
	if store == nil {
		return nil
	}
	return store
}
