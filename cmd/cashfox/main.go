package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	flog "github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ManuelReschke/CashFox/app/repository"
	"github.com/ManuelReschke/CashFox/internal/pkg/apperr"
	"github.com/ManuelReschke/CashFox/internal/pkg/archive"
	"github.com/ManuelReschke/CashFox/internal/pkg/billing"
	"github.com/ManuelReschke/CashFox/internal/pkg/cache"
	"github.com/ManuelReschke/CashFox/internal/pkg/database"
	"github.com/ManuelReschke/CashFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/CashFox/internal/pkg/env"
	"github.com/ManuelReschke/CashFox/internal/pkg/jobqueue"
	"github.com/ManuelReschke/CashFox/internal/pkg/notify"
	"github.com/ManuelReschke/CashFox/internal/pkg/router"
)

func main() {
	app := NewApplication()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		flog.Info("[Server] Shutting down")
		jobqueue.GetManager().Stop()
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	factory := repository.NewFactory(database.GetDB())
	repository.SetGlobalFactory(factory)

	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/cashfox to project root
		"../../../", // Fallback
	}

	// Find the correct base path
	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "views"); !os.IsNotExist(err) {
			basePath = path
			break
		}
	}

	if basePath == "" {
		panic("Could not find project root directory")
	}

	resolver := setupEntitlements(factory)
	setupArchive()
	setupJobs(factory, resolver, basePath)

	// init fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: 4 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{"error": "request_failed", "message": e.Message})
			}
			return apperr.Respond(c, err)
		},
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	app.Use(cors.New(cors.Config{
		AllowOrigins: env.GetEnv("CORS_ALLOW_ORIGINS", "*"),
		AllowHeaders: "Authorization, X-API-Key, Content-Type, Stripe-Signature",
	}))

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "test"),
		},
	}), monitor.New())

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: basePath + "public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app)

	return app
}

// setupEntitlements installs the global resolver. The resolver keeps the
// user's stored plan in sync through the billing observer.
func setupEntitlements(factory *repository.Factory) *entitlements.Resolver {
	var provider entitlements.BillingProvider
	if stripe := billing.NewStripeClientFromEnv(); stripe.Configured() {
		provider = stripe
	} else {
		flog.Warn("[Entitlements] STRIPE_SECRET_KEY is not set, subscription checks will fail")
	}

	store := entitlements.NewRepositoryStore(factory.GetEntitlementRepository(), env.GetDuration("ENTITLEMENT_CACHE_TTL", 5*time.Minute))
	resolver := entitlements.NewResolver(provider, store, entitlements.WithPromoWindow(entitlements.PromoWindowFromEnv()))
	resolver.Subscribe(billing.NewServiceFromDB(database.GetDB()).EntitlementObserver())
	entitlements.InitializeResolver(resolver)
	return resolver
}

func setupArchive() {
	cfg, err := archive.LoadConfig()
	if err != nil {
		flog.Warnf("[Archive] Export archive disabled: %v", err)
		return
	}
	if !cfg.IsEnabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	client, err := archive.NewClient(ctx, cfg)
	if err != nil {
		flog.Errorf("[Archive] Failed to initialize S3 client: %v", err)
		return
	}
	archive.SetDefault(client)
}

func setupJobs(factory *repository.Factory, resolver *entitlements.Resolver, basePath string) {
	templates, err := notify.LoadTemplates(basePath + "views")
	if err != nil {
		flog.Warnf("[Notify] Email reminders disabled: %v", err)
	}
	reminders := notify.NewService(notify.NewTwilioClientFromEnv(), notify.NewEmailSenderFromEnv(), templates, factory.GetNotificationRepository())

	manager := jobqueue.GetManager()
	manager.SetDependencies(jobqueue.DependenciesFromFactory(factory, resolver, reminders))
	manager.Start()
}
