package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/EduPay/internal/pkg/cache"
	"github.com/ManuelReschke/EduPay/internal/pkg/env"
	"github.com/ManuelReschke/EduPay/internal/pkg/jobqueue"
	"github.com/ManuelReschke/EduPay/internal/pkg/lifecycle"
	"github.com/ManuelReschke/EduPay/internal/pkg/lock"
	"github.com/ManuelReschke/EduPay/internal/pkg/metrics"
	"github.com/ManuelReschke/EduPay/internal/pkg/resource"
	"github.com/ManuelReschke/EduPay/internal/pkg/router"
	"github.com/ManuelReschke/EduPay/internal/pkg/services"
	appsession "github.com/ManuelReschke/EduPay/internal/pkg/session"
	"github.com/ManuelReschke/EduPay/internal/pkg/statement"
)

func main() {
	env.SetupEnvFile()

	app, manager := NewApplication()
	if manager != nil {
		manager.Start()
	}

	go func() {
		addr := fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000"))
		if err := app.Listen(addr); err != nil {
			log.Fatalf("[Server] %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("[Server] Shutting down...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Errorf("[Server] Shutdown: %v", err)
	}
	if manager != nil {
		manager.Stop()
	}
}

// NewApplication wires the lifecycle against the ledger API. The returned
// manager is nil when Redis is disabled.
func NewApplication() (*fiber.App, *jobqueue.Manager) {
	useRedis := env.GetEnvBool("CACHE_ENABLED", true)
	m := metrics.New()

	policy, err := lifecycle.ParsePaymentPolicy(env.GetEnv("PAYMENT_POLICY", string(lifecycle.PolicyFlat)))
	if err != nil {
		log.Fatalf("[Config] %v", err)
	}

	svc := services.New(resource.New(resource.LoadConfig(), nil))
	opts := lifecycle.Options{
		Policy:      policy,
		Metrics:     m,
		MaxAttempts: env.GetEnvInt("LIFECYCLE_MAX_ATTEMPTS", lifecycle.DefaultMaxAttempts),
	}

	var manager *jobqueue.Manager
	var client *redis.Client
	if useRedis {
		cache.SetupCache()
		client = cache.GetClient()
		opts.Locker = lock.NewRedisLocker(client, lock.DefaultTTL, lock.DefaultWait)
		opts.Cache = cache.NewStore(client, "edupay:catalog:", env.GetEnvDuration("CATALOG_CACHE_TTL", 5*time.Minute))

		manager = jobqueue.GetManager()
		if err := setupStatements(svc, manager, &opts); err != nil {
			log.Fatalf("[Statement] %v", err)
		}
	} else {
		log.Warn("[Server] CACHE_ENABLED=false, using in-process sessions and locks")
	}

	app := fiber.New(fiber.Config{
		AppName:   "EduPay",
		BodyLimit: 1 << 20,
	})
	app.Use(recover.New(), logger.New())

	// SWAGGER / OPENAPI
	app.Use(swagger.New(swagger.Config{
		BasePath: "/docs/api/",
		FilePath: env.GetEnv("OPENAPI_FILE", "./public/docs/v1/openapi.yml"),
		Path:     "v1",
	}))

	router.InstallRouter(app, router.Dependencies{
		Lifecycle:       lifecycle.New(svc, opts),
		Sessions:        appsession.NewSessionStore(client),
		Queue:           queueOf(manager),
		Metrics:         m,
		RateLimit:       env.GetEnvInt("API_RATE_LIMIT", 120),
		MetricsUser:     env.GetEnv("METRICS_USER", ""),
		MetricsPassword: env.GetEnv("METRICS_PASSWORD", ""),
	})

	return app, manager
}

// setupStatements registers the archive job and its backfill task when statements are enabled.
func setupStatements(svc *services.Services, manager *jobqueue.Manager, opts *lifecycle.Options) error {
	cfg, err := statement.LoadConfig()
	if err != nil {
		return err
	}
	if !cfg.Enabled {
		log.Info("[Statement] Archiving disabled")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := statement.NewClient(ctx, cfg)
	if err != nil {
		return err
	}

	archiver := statement.NewArchiver(svc, client, cfg)
	queue := manager.GetQueue()
	queue.Handle(jobqueue.JobTypeArchiveStatement, archiver.HandleJob)
	manager.AddTask(jobqueue.Task{
		Name:     "statement backfill",
		Interval: env.GetEnvDuration("STATEMENTS_BACKFILL_INTERVAL", time.Hour),
		Run: func(ctx context.Context) error {
			_, err := archiver.Backfill(ctx, queue)
			return err
		},
	})
	opts.Hooks.PlanCompleted = statement.OnPlanCompleted(queue)
	return nil
}

func queueOf(manager *jobqueue.Manager) *jobqueue.Queue {
	if manager == nil {
		return nil
	}
	return manager.GetQueue()
}
