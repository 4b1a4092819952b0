package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/iotdataplane"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/VladTomici14/Team1-Magna-Lab/internal/api"
	"github.com/VladTomici14/Team1-Magna-Lab/internal/api/handler"
	"github.com/VladTomici14/Team1-Magna-Lab/internal/api/middleware"
	"github.com/VladTomici14/Team1-Magna-Lab/internal/cache"
	"github.com/VladTomici14/Team1-Magna-Lab/internal/config"
	"github.com/VladTomici14/Team1-Magna-Lab/internal/iot"
	"github.com/VladTomici14/Team1-Magna-Lab/internal/jobs"
	"github.com/VladTomici14/Team1-Magna-Lab/internal/logger"
	"github.com/VladTomici14/Team1-Magna-Lab/internal/metrics"
	"github.com/VladTomici14/Team1-Magna-Lab/internal/repository/postgresql"
	"github.com/VladTomici14/Team1-Magna-Lab/internal/service"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.AppEnv, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgresql.NewDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("could not connect to database")
	}
	defer db.Close()

	if err := postgresql.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("could not apply schema")
	}
	log.Info().Str("driver", cfg.DBDriver).Str("database", cfg.DBName).Msg("database ready")

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		log.Fatal().Err(err).Msg("could not load AWS config")
	}
	sqsClient := sqs.NewFromConfig(awsCfg)
	rekognitionClient := rekognition.NewFromConfig(awsCfg)
	iotDataClient := iotdataplane.NewFromConfig(awsCfg, func(o *iotdataplane.Options) {
		if cfg.IoTMQTTEndpoint == "" {
			return
		}
		endpoint := cfg.IoTMQTTEndpoint
		if !strings.HasPrefix(endpoint, "https://") && !strings.HasPrefix(endpoint, "http://") {
			endpoint = "https://" + endpoint
		}
		o.BaseEndpoint = aws.String(endpoint)
	})
	log.Info().Str("region", cfg.AWSRegion).Msg("AWS clients ready")

	var plateCache cache.PlateCache = cache.Noop{}
	if cfg.RedisAddr != "" {
		redisCache, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.PlateCacheTTL)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, plate lookups go straight to the database")
		} else {
			defer redisCache.Close()
			plateCache = redisCache
			log.Info().Str("addr", cfg.RedisAddr).Dur("ttl", cfg.PlateCacheTTL).Msg("plate cache enabled")
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	userRepo := postgresql.NewPgUserRepository(db)
	vehicleRepo := postgresql.NewPgVehicleRepository(db)
	gateEventRepo := postgresql.NewPgGateEventRepository(db)
	deviceEventsLogRepo := postgresql.NewPgDeviceEventsLogRepository(db)

	wsManager := handler.NewWebSocketManager(log)
	go wsManager.Start(ctx)

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpirationHours, log)
	if cfg.AdminUsername != "" && cfg.AdminPassword != "" {
		if err := authService.BootstrapAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			log.Fatal().Err(err).Msg("could not create admin account")
		}
	}

	plateService := service.NewPlateService(vehicleRepo, plateCache, m, cfg.AutoRegisterPrefixes, log)
	lprService := service.NewLPRService(rekognitionClient, m, log)
	gateService := service.NewGateService(
		plateService,
		gateEventRepo,
		deviceEventsLogRepo,
		iot.NewBarrierPublisher(iotDataClient, log),
		wsManager,
		m,
		service.GateServiceConfig{
			ConfidenceThreshold: cfg.LPRConfidenceThreshold,
			EventTimeout:        cfg.GateEventTimeout,
		},
		log,
	)

	var wg sync.WaitGroup
	if cfg.SQSEventQueueURL == "" {
		log.Warn().Msg("SQS_EVENT_QUEUE_URL not set, device events will not be consumed")
	} else {
		consumer := iot.NewSQSConsumer(sqsClient, cfg.SQSEventQueueURL, gateService, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			consumer.Start(ctx)
		}()
	}

	cleanup := jobs.NewGateCleanup(gateService, cfg.GateCleanupSchedule, log)
	if err := cleanup.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("could not start gate cleanup")
	}

	router := api.SetupRouter(api.Deps{
		Env:       cfg.AppEnv,
		Logger:    log,
		Auth:      authService,
		AuthMw:    middleware.NewAuthMiddleware(authService, log),
		Plates:    plateService,
		Vehicles:  plateService,
		LPR:       lprService,
		Gate:      gateService,
		WSManager: wsManager,
		Metrics:   m.Handler(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.ServerPort).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced http shutdown")
	}
	cleanup.Stop()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		log.Warn().Msg("SQS consumer did not stop in time")
	}

	log.Info().Msg("server stopped")
}
