package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"parametric-insurance/internal/config"
	"parametric-insurance/internal/database/minio"
	"parametric-insurance/internal/database/postgres"
	"parametric-insurance/internal/database/redis"
	"parametric-insurance/internal/event"
	"parametric-insurance/internal/oracle"
	"parametric-insurance/internal/repository"
	"parametric-insurance/internal/services"
	"parametric-insurance/internal/worker"

	"github.com/gofiber/fiber/v3"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
)

func setupLogging(cfg *config.EngineConfig) {
	level := slog.LevelDebug
	if cfg.IsProduction() {
		level = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	cfg := config.New()
	setupLogging(cfg)

	slog.Info("starting policy and claim lifecycle engine",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"sandbox_mode", cfg.OracleCfg.SandboxMode)

	db, err := postgres.ConnectAndCreateDB(cfg.PostgresCfg)
	if err != nil {
		slog.Error("failed to connect to database, retrying in background", "error", err)
		go postgres.RetryConnectOnFailed(30*time.Second, &db, cfg.PostgresCfg)
	}

	var observationCache *goredis.Client
	redisClient, err := redis.NewRedisClient(
		cfg.RedisCfg.Host, cfg.RedisCfg.Port, cfg.RedisCfg.Password, cfg.RedisCfg.DB)
	if err != nil {
		slog.Warn("redis unavailable, oracle observations will not be cached", "error", err)
	} else {
		observationCache = redisClient.GetClient()
		defer redisClient.Close()
	}

	contentStore, err := minio.NewMinioClient(cfg.MinioCfg)
	if err != nil {
		slog.Error("failed to connect to content store", "error", err)
		os.Exit(1)
	}

	var lifecycleEvents services.LifecyclePublisher
	rabbitConn, err := event.ConnectRabbitMQ(cfg.RabbitMQCfg)
	if err != nil {
		slog.Warn("rabbitmq unavailable, lifecycle events will not be published", "error", err)
	} else {
		lifecycleEvents = event.NewLifecyclePublisher(rabbitConn)
		defer rabbitConn.Close()
	}

	policyRepo := repository.NewPolicyRepository(db)
	claimRepo := repository.NewClaimRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)
	poolRepo := repository.NewPoolRepository(db)

	locks := services.NewEntityLocks()
	policyService := services.NewPolicyService(policyRepo, poolRepo, contentStore, lifecycleEvents, locks)
	claimService := services.NewClaimService(claimRepo, policyRepo, contentStore, lifecycleEvents, locks)
	settlementService := services.NewSettlementService(claimRepo, policyRepo, payoutRepo, poolRepo, lifecycleEvents, locks)

	verifier := oracle.NewVerifier(cfg.OracleCfg, observationCache)
	claimProcessor := services.NewClaimProcessor(claimService, policyService, settlementService, verifier)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	pool := worker.NewWorkingPool(cfg.WorkerCfg.NumWorkers, cfg.WorkerCfg.QueueSize)
	wg.Add(1)
	go pool.Start(ctx, &wg)

	scheduler := worker.NewJobScheduler("lifecycle-sweeps", cfg.WorkerCfg.ProcessInterval, pool)
	scheduler.AddJob(func(ctx context.Context) error {
		return claimProcessor.ProcessPendingClaims(ctx)
	})
	scheduler.AddJob(func(ctx context.Context) error {
		_, err := policyService.ExpirePolicies(ctx)
		return err
	})
	go scheduler.Run(ctx)

	app := fiber.New()
	app.Get("/checkhealth", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).SendString("Lifecycle engine is healthy")
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("fiber server stopped", "error", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown signal received")

	if err := app.Shutdown(); err != nil {
		slog.Error("failed to shut down http server", "error", err)
	}

	wg.Wait()
	slog.Info("lifecycle engine stopped")
}
