package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"shopkart_back_end/internal/audit"
	"shopkart_back_end/internal/auth"
	"shopkart_back_end/internal/cache"
	"shopkart_back_end/internal/config"
	"shopkart_back_end/internal/database"
	"shopkart_back_end/internal/events"
	"shopkart_back_end/internal/handlers"
	"shopkart_back_end/internal/invoice"
	"shopkart_back_end/internal/mailer"
	"shopkart_back_end/internal/middleware"
	"shopkart_back_end/internal/models"
	"shopkart_back_end/internal/payment"
	"shopkart_back_end/internal/repository"
	"shopkart_back_end/internal/routes"
	"shopkart_back_end/internal/search"
	"shopkart_back_end/internal/services"
	"shopkart_back_end/internal/storage"
)

const requestTimeout = 60 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(2)
	}

	lg, err := newLogger(cfg)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, lg); err != nil {
		lg.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// adapters are the optional side-effect integrations. Each one falls back to
// a no-op or a local implementation when it is not configured.
type adapters struct {
	storage  services.FileStorage
	index    services.ProductIndex
	audit    middleware.AuditSink
	events   eventPublisher
	invoices services.InvoiceRenderer
	mailer   services.Mailer
}

type eventPublisher interface {
	services.EventPublisher
	Close() error
}

func newAdapters(ctx context.Context, cfg *config.Config, clients *database.Clients, lg *zap.Logger) (*adapters, error) {
	a := &adapters{
		index:    search.Nop{},
		audit:    audit.Nop{},
		events:   events.Nop{},
		invoices: invoice.Nop{},
	}

	if clients.MinIO != nil {
		a.storage = storage.NewMinioStorage(clients.MinIO, cfg.MinIO.Bucket, cfg.MinIO.PublicURL)
	} else {
		local, err := storage.NewLocalStorage(cfg.Storage.LocalDir, cfg.ServerURL)
		if err != nil {
			return nil, err
		}
		a.storage = local
		lg.Info("Storing uploads on disk", zap.String("dir", local.Dir()))
	}

	if clients.Elastic != nil {
		a.index = search.NewElasticIndex(clients.Elastic, cfg.Elastic.Index)
	}

	if clients.Scylla != nil {
		sink, err := audit.NewScyllaSink(ctx, clients.Scylla)
		if err != nil {
			lg.Warn("Audit table unavailable, audit log disabled", zap.Error(err))
		} else {
			a.audit = sink
		}
	}

	if len(cfg.Kafka.Brokers) > 0 {
		a.events = events.NewKafkaPublisher(cfg.Kafka.Topic, cfg.Kafka.Brokers...)
		lg.Info("Publishing order events", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	if cfg.Invoice.Enabled {
		a.invoices = invoice.NewChromeRenderer(cfg.FrontendURL, cfg.Invoice.Timeout)
	}

	if cfg.SMTP.Host != "" {
		a.mailer = mailer.NewSMTPMailer(cfg.SMTP, lg.Named("mailer"))
	} else {
		lg.Warn("SMTP not configured, emails are only logged")
		a.mailer = mailer.NewLogMailer(lg.Named("mailer"))
	}
	return a, nil
}

func paymentProviders(cfg *config.Config, lg *zap.Logger) (map[models.PaymentProvider]payment.Provider, *payment.Stripe) {
	providers := make(map[models.PaymentProvider]payment.Provider)
	if cfg.Razorpay.KeyID != "" && cfg.Razorpay.KeySecret != "" {
		providers[models.ProviderRazorpay] = payment.WithBreaker(
			payment.NewRazorpay(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, cfg.Razorpay.BaseURL, lg), lg)
		lg.Info("Razorpay payments enabled")
	}
	var st *payment.Stripe
	if cfg.Stripe.SecretKey != "" {
		st = payment.NewStripe(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)
		providers[models.ProviderStripe] = payment.WithBreaker(st, lg)
		lg.Info("Stripe payments enabled")
	}
	if len(providers) == 0 {
		lg.Warn("No payment provider configured, checkout is disabled")
	}
	return providers, st
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", "Stripe-Signature"},
		ExposeHeaders:    []string{"X-Request-ID", "Retry-After", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			// Credentials cannot be combined with a literal wildcard.
			c.AllowOriginFunc = func(string) bool { return true }
			return c
		}
	}
	c.AllowOrigins = origins
	return c
}

func run(ctx context.Context, cfg *config.Config, lg *zap.Logger) error {
	clients, err := database.Connect(ctx, cfg, lg)
	if err != nil {
		return errors.Wrap(err, "connect")
	}
	defer clients.Close(context.Background())

	if err := database.EnsureIndexes(ctx, clients.DB); err != nil {
		return errors.Wrap(err, "ensure indexes")
	}

	ad, err := newAdapters(ctx, cfg, clients, lg)
	if err != nil {
		return errors.Wrap(err, "adapters")
	}
	defer func() {
		if err := ad.events.Close(); err != nil {
			lg.Warn("Close event publisher", zap.Error(err))
		}
	}()

	var (
		users      = repository.NewUserRepository(clients.DB)
		profiles   = repository.NewProfileRepository(clients.DB)
		addresses  = repository.NewAddressRepository(clients.DB)
		categories = repository.NewCategoryRepository(clients.DB)
		products   = repository.NewProductRepository(clients.DB)
		carts      = repository.NewCartRepository(clients.DB)
		coupons    = repository.NewCouponRepository(clients.DB)
		orders     = repository.NewOrderRepository(clients.DB)

		tokens    = cache.NewTokenStore(clients.Redis)
		userCache = cache.NewUserCache(clients.Redis, users, lg.Named("cache"))
		limiter   = cache.NewAttemptLimiter(clients.Redis, "login", cfg.RateLimit.LoginMaxAttempts, cfg.RateLimit.LoginCooldown)
		issuer    = auth.NewIssuer(cfg.Token.AccessSecret, cfg.Token.RefreshSecret, cfg.Token.AccessExpiry, cfg.Token.RefreshExpiry)
		async     = services.GoAsync(lg.Named("async"))
	)

	providers, stripeProvider := paymentProviders(cfg, lg.Named("payment"))

	var google *auth.GoogleOAuth
	if oc := cfg.GoogleOAuthConfig(); oc != nil {
		google = auth.NewGoogleOAuth(oc)
		auth.SetupGothic(oc, cfg.Google.SessionSecret, cfg.IsProduction())
		lg.Info("Google login enabled")
	}

	cartSvc := services.NewCartService(carts, products, coupons, lg.Named("cart"))
	userSvc := services.NewUserService(services.UserDeps{
		Users:       users,
		Profiles:    profiles,
		Carts:       carts,
		Issuer:      issuer,
		Tokens:      tokens,
		Cache:       userCache,
		Mailer:      ad.mailer,
		Storage:     ad.storage,
		Async:       async,
		ServerURL:   cfg.ServerURL,
		FrontendURL: cfg.FrontendURL,
		Logger:      lg.Named("users"),
	})
	checkoutSvc := services.NewCheckoutService(services.CheckoutDeps{
		Orders:        orders,
		Carts:         carts,
		Addresses:     addresses,
		Products:      products,
		Users:         users,
		Cart:          cartSvc,
		Providers:     providers,
		SigningSecret: cfg.Razorpay.KeySecret,
		Mailer:        ad.mailer,
		Events:        ad.events,
		Async:         async,
		Logger:        lg.Named("checkout"),
	})
	orderSvc := services.NewOrderService(orders, users, coupons, products, ad.invoices, lg.Named("orders"))

	var webhook handlers.WebhookVerifier
	if stripeProvider != nil {
		webhook = stripeProvider
	}

	h := routes.Handlers{
		Health: handlers.NewHealthHandler(map[string]handlers.Pinger{
			"mongo": handlers.PingFunc(func(ctx context.Context) error {
				return clients.Mongo.Ping(ctx, readpref.Primary())
			}),
			"redis": handlers.PingFunc(func(ctx context.Context) error {
				return clients.Redis.Ping(ctx).Err()
			}),
		}),
		Users:      handlers.NewUserHandler(userSvc, google, issuer, cfg.FrontendURL, cfg.IsProduction()),
		Profile:    handlers.NewProfileHandler(services.NewProfileService(profiles), orderSvc),
		Addresses:  handlers.NewAddressHandler(services.NewAddressService(addresses)),
		Categories: handlers.NewCategoryHandler(services.NewCategoryService(categories)),
		Products: handlers.NewProductHandler(services.NewProductService(
			products, categories, ad.storage, ad.index, async, lg.Named("products"))),
		Cart:    handlers.NewCartHandler(cartSvc),
		Coupons: handlers.NewCouponHandler(services.NewCouponService(coupons, carts, cartSvc, lg.Named("coupons"))),
		Orders:  handlers.NewOrderHandler(checkoutSvc, orderSvc, webhook, lg.Named("orders")),
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		cors.New(corsConfig(cfg.CORSOrigins)),
		middleware.RequestID(),
		middleware.Logger(lg.Named("http")),
		middleware.ErrorHandler(cfg.IsProduction()),
		middleware.Recovery(),
		middleware.Timeout(requestTimeout),
	)
	if local, ok := ad.storage.(*storage.LocalStorage); ok {
		r.Static("/images", local.Dir())
	}
	routes.Register(r, h, routes.Middleware{
		Auth:         middleware.NewAuthenticator(issuer, tokens, userCache, lg.Named("auth")),
		LoginLimiter: limiter,
		Audit:        ad.audit,
		Logger:       lg.Named("audit"),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", server.Addr), zap.String("env", cfg.Env))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
