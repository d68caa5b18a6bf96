package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carconnect/common/database"
	"carconnect/common/logger"
	commonredis "carconnect/common/redis"
	"carconnect/internal/audit"
	"carconnect/internal/config"
	httpapi "carconnect/internal/http"
	"carconnect/internal/repository"
	"carconnect/internal/service"
	"carconnect/internal/session"
	"carconnect/internal/store"
	"carconnect/internal/tenant"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "carconnect-api")
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	defer log.Sync()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer database.Close(db)

	registry, err := tenant.NewRegistry(db, cfg.PlatformSchema, log)
	if err != nil {
		log.Fatal("Invalid platform schema", zap.String("schema", cfg.PlatformSchema), zap.Error(err))
	}
	platform := registry.Platform()

	if cfg.DBMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err := repository.MigratePlatform(ctx, db, platform, log)
		cancel()
		if err != nil {
			log.Fatal("Platform migration failed", zap.Error(err))
		}
	}

	// Redis backs the KV store and the audit streams; without it both degrade to in-process
	var (
		redisClient *redis.Client
		kv          store.KV   = store.NewMemoryKV()
		sink        audit.Sink = audit.NopSink{}
	)
	if cfg.RedisEnabled {
		redisClient = commonredis.NewRedisClient(&cfg.Redis)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := commonredis.Ping(ctx, redisClient)
		cancel()
		if err != nil {
			log.Warn("Redis unavailable, using in-memory KV and no audit stream", zap.Error(err))
			_ = commonredis.Close(redisClient)
			redisClient = nil
		} else {
			kv = store.NewRedisKV(redisClient)
			if cfg.Audit.Enabled {
				sink = audit.NewStreamSink(redisClient, cfg.Audit.StreamPrefix, cfg.Audit.StreamMaxLen)
			}
		}
	}
	recorder := audit.NewRecorder(sink, cfg.Audit.Buffer, log)

	provisioner := tenant.NewProvisioner(registry, log)
	tx := repository.NewTransactor(db)
	owners := repository.NewPostgresOwnersRepository(db, platform)
	centers := repository.NewPostgresCentersRepository(db, platform)
	vehicles := repository.NewPostgresVehiclesRepository(db, platform)
	params := repository.NewPostgresParametersRepository(db, platform)
	clients := repository.NewPostgresClientsRepository(db, platform)
	employees := repository.NewPostgresEmployeesRepository(db)
	roles := repository.NewPostgresRolesRepository(db)
	parts := repository.NewPostgresInventoryRepository(db)
	serviceTypes := repository.NewPostgresServiceTypesRepository(db)
	records := repository.NewPostgresServiceRecordsRepository(db)

	issuer := session.NewIssuer(cfg.JWT.Secret, cfg.JWT.TTL, cfg.JWT.Issuer)
	authService := service.NewAuthService(registry, owners, centers, employees, issuer, kv, recorder, log)
	registrationService := service.NewRegistrationService(tx, registry, provisioner, owners, centers, recorder, log)
	passwordService := service.NewPasswordService(owners, centers, employees, authService, recorder, log)
	ownerService := service.NewOwnerService(tx, registry, owners, vehicles, records, cfg.HistoryFanout, recorder, log)

	centerHandler := httpapi.NewCenterHandler(
		service.NewCenterService(centers, recorder, log),
		service.NewEmployeeService(tx, registry, employees, recorder, log),
		service.NewRoleService(roles, log),
		log,
	)

	handlers := httpapi.Handlers{
		Auth:           httpapi.NewAuthHandler(authService, registrationService, passwordService, log),
		Owner:          httpapi.NewOwnerHandler(ownerService, log),
		Center:         centerHandler,
		Inventory:      httpapi.NewInventoryHandler(service.NewInventoryService(parts, serviceTypes, log), log),
		Client:         httpapi.NewClientHandler(service.NewClientService(clients, vehicles, log), log),
		ServiceRecord:  httpapi.NewServiceRecordHandler(service.NewServiceRecordService(tx, records, vehicles, log), log),
		Parameter:      httpapi.NewParameterHandler(service.NewParameterService(params, centers, kv, cfg.ParameterCacheTTL, log), log),
		Issuer:         issuer,
		Authentication: authService,
	}

	router, err := httpapi.NewRouter(httpapi.RouterConfig{
		BodyLimit:      cfg.HTTP.BodyLimit,
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		LoginRateLimit: cfg.LoginRateLimit,
		Health:         healthCheck(db, redisClient),
	}, handlers, log)
	if err != nil {
		log.Fatal("Failed to build router", zap.Error(err))
	}

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server stopped", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown incomplete", zap.Error(err))
	}
	if err := recorder.Close(shutdownCtx); err != nil {
		log.Warn("Audit recorder did not drain", zap.Error(err))
	}
	if redisClient != nil {
		_ = commonredis.Close(redisClient)
	}
}

func healthCheck(db *sql.DB, redisClient *redis.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		if redisClient != nil {
			return commonredis.Ping(ctx, redisClient)
		}
		return nil
	}
}
