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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-academic-api/api/swagger"
	"github.com/noah-isme/sma-academic-api/internal/academic"
	"github.com/noah-isme/sma-academic-api/internal/handler"
	"github.com/noah-isme/sma-academic-api/internal/repository"
	"github.com/noah-isme/sma-academic-api/internal/repository/memory"
	"github.com/noah-isme/sma-academic-api/internal/service"
	"github.com/noah-isme/sma-academic-api/pkg/cache"
	"github.com/noah-isme/sma-academic-api/pkg/config"
	"github.com/noah-isme/sma-academic-api/pkg/database"
	appErrors "github.com/noah-isme/sma-academic-api/pkg/errors"
	"github.com/noah-isme/sma-academic-api/pkg/logger"
	"github.com/noah-isme/sma-academic-api/pkg/observability"
)

// @title School Academic API
// @version 1.0.0
// @description Role-based academic records: rosters, class-subject assignments, attendance, tests, marks and coursework.
// @BasePath /
// @schemes http
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

	flush, err := observability.InitSentry(cfg.Sentry.DSN, cfg.Env, cfg.Sentry.Release)
	if err != nil {
		logr.Warn("sentry disabled", zap.Error(err))
	}
	defer flush()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, ping, closeStorage, err := openStorage(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to open storage", zap.Error(err))
	}
	defer closeStorage()

	metrics := service.NewMetricsService()
	var cacheRepo service.CacheRepository
	if cfg.Dashboard.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("dashboard cache disabled", zap.Error(err))
		} else {
			defer client.Close() //nolint:errcheck
			cacheRepo = repository.NewCacheRepository(client, logr.Named("cache"))
		}
	}

	loc := cfg.Academic.Location()
	svc := service.New(repos, service.Options{
		Cache:   service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr.Named("cache"), cacheRepo != nil),
		Metrics: metrics,
		Logger:  logr,
		Auth: service.AuthConfig{
			AccessTokenSecret: cfg.JWT.Secret,
			AccessTokenExpiry: cfg.JWT.Expiration,
			Issuer:            cfg.JWT.Issuer,
		},
		Location:     loc,
		DueRule:      academic.NewDueRule(loc, cfg.Academic.DueSoonDays),
		DashboardTTL: cfg.Dashboard.CacheTTL,
	})

	if err := bootstrapAdmin(ctx, svc, cfg.Bootstrap); err != nil {
		logr.Fatal("failed to seed admin account", zap.Error(err))
	}

	r := handler.NewRouter(svc, handler.RouterConfig{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Logger:         logr,
		Ping:           ping,
	})
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "storage", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

func openStorage(ctx context.Context, cfg *config.Config, logr *zap.Logger) (service.Repositories, func(context.Context) error, func(), error) {
	if cfg.Storage.Driver == config.StorageMemory {
		logr.Warn("using in-memory storage; data is lost on restart")
		store := memory.NewStore()
		return service.Repositories{
			Users:         store.Users(),
			Classes:       store.Classes(),
			Subjects:      store.Subjects(),
			ClassSubjects: store.ClassSubjects(),
			Memberships:   store.Memberships(),
			Attendance:    store.Attendance(),
			Tests:         store.Tests(),
			Marks:         store.Marks(),
			Assignments:   store.Assignments(),
			Submissions:   store.Submissions(),
		}, nil, func() {}, nil
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return service.Repositories{}, nil, nil, err
	}
	if cfg.Storage.AutoMigrate {
		if err := database.Migrate(ctx, db.DB); err != nil {
			_ = db.Close()
			return service.Repositories{}, nil, nil, err
		}
		logr.Info("database migrations applied")
	}
	return service.Repositories{
		Users:         repository.NewUserRepository(db),
		Classes:       repository.NewClassRepository(db),
		Subjects:      repository.NewSubjectRepository(db),
		ClassSubjects: repository.NewClassSubjectRepository(db),
		Memberships:   repository.NewMembershipRepository(db),
		Attendance:    repository.NewAttendanceRepository(db),
		Tests:         repository.NewTestRepository(db),
		Marks:         repository.NewMarkRepository(db),
		Assignments:   repository.NewAssignmentRepository(db),
		Submissions:   repository.NewSubmissionRepository(db),
	}, db.PingContext, func() { _ = db.Close() }, nil
}

func bootstrapAdmin(ctx context.Context, svc *service.Services, cfg config.BootstrapConfig) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}
	_, err := svc.Users.Create(ctx, service.CreateUserRequest{
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
		FullName: "Administrator",
		Role:     string(academic.RoleAdmin),
	})
	if errors.Is(err, appErrors.ErrConflict) {
		return nil
	}
	return err
}
