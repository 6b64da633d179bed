package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/tutor-match-api/api/swagger"
	"github.com/noah-isme/tutor-match-api/internal/handler"
	"github.com/noah-isme/tutor-match-api/internal/location"
	internalmiddleware "github.com/noah-isme/tutor-match-api/internal/middleware"
	"github.com/noah-isme/tutor-match-api/internal/repository"
	"github.com/noah-isme/tutor-match-api/internal/service"
	"github.com/noah-isme/tutor-match-api/pkg/cache"
	"github.com/noah-isme/tutor-match-api/pkg/config"
	"github.com/noah-isme/tutor-match-api/pkg/database"
	"github.com/noah-isme/tutor-match-api/pkg/export"
	"github.com/noah-isme/tutor-match-api/pkg/logger"
	"github.com/noah-isme/tutor-match-api/pkg/media"
	corsmiddleware "github.com/noah-isme/tutor-match-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/tutor-match-api/pkg/middleware/requestid"
	"github.com/noah-isme/tutor-match-api/pkg/validation"
)

// @title Tutor Match API
// @version 1.0.0
// @description Teacher and student listing directory
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]handler.Pinger{}

	store, closeStore, err := openListingStore(ctx, cfg, checks, logr)
	if err != nil {
		logr.Fatal("failed to open listing store", zap.String("backend", cfg.Listings.Backend), zap.Error(err))
	}
	defer closeStore()

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("snapshot cache disabled", zap.Error(err))
		}
	}
	cacheRepo := repository.NewSnapshotCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck
	if cacheRepo.Enabled() {
		checks["redis"] = handler.PingFunc(cacheRepo.Ping)
		// snapshots written by a previous build may not decode
		if err := cacheRepo.Purge(ctx); err != nil {
			logr.Warn("failed to purge listing snapshots", zap.Error(err))
		}
	}

	metrics := service.NewMetricsService()
	snapshots := service.NewSnapshotService(store, cacheRepo, metrics, service.SnapshotConfig{
		TTL:          cfg.Cache.TTL,
		FetchTimeout: cfg.Listings.FetchTimeout,
		Enabled:      cacheRepo.Enabled(),
	}, logr)

	warmer := service.NewSnapshotWarmer(snapshots, service.WarmerConfig{
		Workers:    cfg.Queue.Workers,
		Retries:    cfg.Queue.Retries,
		RetryDelay: cfg.Queue.RetryDelay,
	}, logr)
	warmer.Start(ctx)

	uploader, localMedia, err := openMedia(cfg)
	if err != nil {
		logr.Fatal("failed to init media backend", zap.String("backend", cfg.Media.Backend), zap.Error(err))
	}

	lookup := location.Default()
	identity := service.NewIdentityService(service.IdentityConfig{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
	})

	listings := service.NewListingService(store, snapshots, warmer, uploader, lookup, validation.New(), metrics, service.ListingConfig{
		FetchTimeout:     cfg.Listings.FetchTimeout,
		MaxPhotoBytes:    cfg.Media.MaxFileSizeBytes,
		AllowedPhotoMIME: cfg.Media.AllowedMIMEs,
	}, logr)
	exports := service.NewExportService(listings, logr, export.NewCSVExporter(), export.NewPDFExporter())

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	routes := handler.Routes{
		Listings:  handler.NewListingHandler(listings, exports, cfg.Media.MaxFileSizeBytes),
		Locations: handler.NewLocationHandler(lookup),
		Metrics:   handler.NewMetricsHandler(metrics, checks),
		Verifier:  identity,
	}
	if localMedia != nil {
		routes.Media = handler.NewMediaHandler(localMedia)
	}
	handler.RegisterRoutes(r, cfg.APIPrefix, routes)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "backend", cfg.Listings.Backend, "media", cfg.Media.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	warmer.Stop()
}

func openListingStore(ctx context.Context, cfg *config.Config, checks map[string]handler.Pinger, logr *zap.Logger) (repository.ListingStore, func(), error) {
	switch cfg.Listings.Backend {
	case config.BackendPostgres:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		checks["postgres"] = handler.PingFunc(db.PingContext)
		return repository.NewListingRepository(db), func() { _ = db.Close() }, nil
	case config.BackendMongo, "":
		client, db, err := database.NewMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		checks["mongo"] = handler.PingFunc(func(ctx context.Context) error { return client.Ping(ctx, nil) })
		store := repository.NewListingMongoRepository(db, cfg.Listings.TeacherCollection, cfg.Listings.StudentCollection, logr)
		return store, func() { _ = client.Disconnect(context.Background()) }, nil
	default:
		return nil, nil, fmt.Errorf("unknown listing backend %q", cfg.Listings.Backend)
	}
}

func openMedia(cfg *config.Config) (media.Uploader, *media.LocalStore, error) {
	switch cfg.Media.Backend {
	case config.MediaCloudinary:
		uploader, err := media.NewCloudinaryUploader(cfg.Media.CloudinaryURL, cfg.Media.UploadPreset)
		if err != nil {
			return nil, nil, err
		}
		return uploader, nil, nil
	case config.MediaLocal, "":
		signer := media.NewSigner(cfg.Media.SignedURLSecret, cfg.Media.SignedURLTTL)
		store, err := media.NewLocalStore(cfg.Media.StorageDir, cfg.PublicURL, signer)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("unknown media backend %q", cfg.Media.Backend)
	}
}
