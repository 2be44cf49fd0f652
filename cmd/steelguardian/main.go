package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SaloniGupta6/Steel-Guardian/common/database"
	"github.com/SaloniGupta6/Steel-Guardian/common/logger"
	mqttcommon "github.com/SaloniGupta6/Steel-Guardian/common/mqtt"
	rediscommon "github.com/SaloniGupta6/Steel-Guardian/common/redis"
	"github.com/SaloniGupta6/Steel-Guardian/internal/clock"
	"github.com/SaloniGupta6/Steel-Guardian/internal/config"
	httpapi "github.com/SaloniGupta6/Steel-Guardian/internal/http"
	"github.com/SaloniGupta6/Steel-Guardian/internal/idgen"
	"github.com/SaloniGupta6/Steel-Guardian/internal/mqtt"
	"github.com/SaloniGupta6/Steel-Guardian/internal/repository"
	"github.com/SaloniGupta6/Steel-Guardian/internal/service"
	"github.com/SaloniGupta6/Steel-Guardian/internal/store"

	"github.com/heptiolabs/healthcheck"
	"go.uber.org/zap"
)

type repositories struct {
	incidents   repository.IncidentsRepository
	machines    repository.MachinesRepository
	suggestions repository.SuggestionsRepository
	materials   repository.MaterialsRepository
	environment repository.EnvironmentRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "steelguardian")
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	health := healthcheck.NewHandler()
	health.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(1000))

	var (
		db    *sql.DB
		repos repositories
	)
	switch cfg.Store {
	case config.StorePostgres:
		db, err = database.NewPostgresDB(&cfg.Database)
		if err != nil {
			log.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer database.Close(db)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = repository.EnsureSchema(ctx, db)
		cancel()
		if err != nil {
			log.Fatal("Failed to ensure schema", zap.Error(err))
		}
		health.AddReadinessCheck("database", healthcheck.DatabasePingCheck(db, time.Second))
		repos = repositories{
			incidents:   repository.NewPostgresIncidentsRepository(db),
			machines:    repository.NewPostgresMachinesRepository(db),
			suggestions: repository.NewPostgresSuggestionsRepository(db),
			materials:   repository.NewPostgresMaterialsRepository(db),
			environment: repository.NewPostgresEnvironmentRepository(db),
		}
	default:
		log.Warn("Using in-memory store; data is lost on restart")
		repos = repositories{
			incidents:   repository.NewMemoryIncidentsRepository(),
			machines:    repository.NewMemoryMachinesRepository(),
			suggestions: repository.NewMemorySuggestionsRepository(),
			materials:   repository.NewMemoryMaterialsRepository(),
			environment: repository.NewMemoryEnvironmentRepository(),
		}
	}

	var events service.EventPublisher = store.NopPublisher{}
	if cfg.Redis.Enabled {
		redisClient := rediscommon.NewRedisClient(&cfg.Redis.RedisConfig)
		defer rediscommon.Close(redisClient)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rediscommon.Ping(ctx, redisClient); err != nil {
			log.Warn("Redis unreachable; lifecycle events will be dropped until it recovers", zap.Error(err))
		}
		cancel()
		events = store.NewStreamPublisher(redisClient, cfg.Redis.Stream, cfg.Redis.StreamMaxLen, log)
	}

	clk := clock.Real{}
	deps := service.Deps{
		Clock:      clk,
		IDs:        idgen.New(clk, rand.Reader),
		Events:     events,
		IDAttempts: cfg.IDMaxAttempts,
		Logger:     log,
	}
	if cfg.Classifier.URL != "" {
		deps.Classifier = service.NewClassifierClient(cfg.Classifier.URL, cfg.Classifier.APIKey, cfg.Classifier.Timeout, log)
	}

	incidents := service.NewIncidentService(repos.incidents, deps)
	machines := service.NewMachineService(repos.machines, deps)
	suggestions := service.NewSuggestionService(repos.suggestions, deps)
	materials := service.NewMaterialService(repos.materials, deps)
	environment := service.NewEnvironmentService(repos.environment, deps)

	if cfg.MQTT.Enabled {
		mqttClient, err := mqttcommon.NewClient(&cfg.MQTT.MQTTConfig, log)
		if err != nil {
			log.Fatal("Failed to connect to MQTT broker", zap.Error(err))
		}
		defer mqttClient.Disconnect()
		health.AddReadinessCheck("mqtt", mqtt.ConnectedCheck(mqttClient))
		if err := mqtt.NewSensorBroker(mqttClient, machines, cfg.MQTT.QoS, log).Start(); err != nil {
			log.Fatal("Failed to subscribe to sensor telemetry", zap.Error(err))
		}
	}

	router := httpapi.NewRouter(httpapi.NewAuthenticator(cfg.Auth.JWTSecret, log), log)
	router.RegisterSafetyRoutes(httpapi.NewSafetyHandler(incidents, clk, log))
	router.RegisterMaintenanceRoutes(httpapi.NewMaintenanceHandler(machines, clk, log))
	router.RegisterSuggestionRoutes(httpapi.NewSuggestionHandler(suggestions, clk, log))
	router.RegisterMaterialRoutes(httpapi.NewMaterialHandler(materials, clk, log))
	router.RegisterEnvironmentRoutes(httpapi.NewEnvironmentHandler(environment, log))
	router.RegisterOpsRoutes(health)

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
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop HTTP server", zap.Error(err))
	}
}
