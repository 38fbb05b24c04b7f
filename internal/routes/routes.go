package routes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/merchant_portal/internal/auth"
	"github.com/congo-pay/merchant_portal/internal/config"
	"github.com/congo-pay/merchant_portal/internal/credentials"
	"github.com/congo-pay/merchant_portal/internal/flow"
	"github.com/congo-pay/merchant_portal/internal/forms"
	"github.com/congo-pay/merchant_portal/internal/identity"
	"github.com/congo-pay/merchant_portal/internal/locale"
	"github.com/congo-pay/merchant_portal/internal/middleware"
	"github.com/congo-pay/merchant_portal/internal/notification"
	"github.com/congo-pay/merchant_portal/internal/otp"
	"github.com/congo-pay/merchant_portal/internal/upstream"
	"github.com/congo-pay/merchant_portal/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes. DB and Cache
// are optional.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
	// Upstream overrides the client built from Cfg, mainly for tests.
	Upstream *upstream.Client
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	bundle, err := locale.Load(d.Cfg.DefaultLocale)
	if err != nil {
		return err
	}

	api := d.Upstream
	if api == nil {
		api = upstream.New(upstream.Config{
			RegisterURL: d.Cfg.RegisterURL,
			MainURL:     d.Cfg.MainURL,
			MiniURL:     d.Cfg.MiniURL,
			Timeout:     d.Cfg.UpstreamTimeout,
		}, d.Logger)
	}
	validate := credentials.New()

	var denylist auth.Denylist
	if d.Cache != nil {
		denylist = auth.NewRedisDenylist(d.Cache)
	}
	sessions, err := auth.NewService(api, validate, auth.Options{
		Secret:   d.Cfg.SessionSecret,
		MaxAge:   d.Cfg.SessionMaxAge,
		Denylist: denylist,
		Logger:   d.Logger,
	})
	if err != nil {
		return err
	}
	flows := forms.Flows{
		Codec:  flow.NewCodec(auth.DeriveKey(d.Cfg.SessionSecret, "flow"), d.Cfg.FlowTTL),
		Secure: d.Cfg.CookieSecure,
	}

	var prefsRepo notification.Repository
	if d.DB != nil {
		pg := notification.NewPostgresRepository(d.DB)
		if err := pg.EnsureSchema(context.Background()); err != nil {
			return fmt.Errorf("notification schema: %w", err)
		}
		prefsRepo = pg
	} else {
		prefsRepo = notification.NewMemoryRepository()
	}
	prefs := notification.NewService(prefsRepo)
	notifier := notification.NewGatedNotifier(notification.NewLoggerNotifier(d.Logger), prefs, d.Logger)

	codes := otp.NewGateway(api, d.Logger)
	identitySvc := identity.NewService(api, validate, notifier, d.Logger)
	walletSvc := wallet.NewService(api, validate, notifier, d.Logger)

	// Middlewares. Everything registered with Use must come before the
	// guard, which rewrites locale-prefixed paths for the routes below.
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	if d.Cfg.IsDev() {
		// Plain text access log in desired format: [HH:MM:SS] 200 -  145ms METHOD /path
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
		}))
	}
	app.Use(middleware.Audit(d.Logger))
	app.Use(middleware.Session(sessions, d.Cfg.CookieSecure))
	app.Use(middleware.Guard(middleware.GuardConfig{Bundle: bundle, SecureCookies: d.Cfg.CookieSecure}))
	app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, bundle, d.Logger))

	RegisterHealthRoutes(app, d)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	RegisterPublicRoutes(app, bundle)
	limiter := middleware.CodeRequestLimit(d.Cache, d.Cfg.CodeRequestsPerWindow, 0, bundle)
	RegisterCodeRoutes(app, codes, flows, bundle, limiter, d.Logger)
	RegisterAuthRoutes(app, identity.NewHandler(identitySvc, sessions, flows, bundle, d.Cfg.CookieSecure, d.Logger))
	RegisterWalletRoutes(app, wallet.NewHandler(walletSvc, bundle, d.Logger))
	RegisterNotificationRoutes(app, notification.NewHandler(prefs, bundle))

	return nil
}
