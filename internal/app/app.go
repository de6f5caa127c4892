package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"directory_backend/internal/auth"
	"directory_backend/internal/config"
	"directory_backend/internal/database"
	"directory_backend/internal/dedup"
	"directory_backend/internal/email"
	"directory_backend/internal/events"
	"directory_backend/internal/handlers"
	"directory_backend/internal/imageprocessor"
	"directory_backend/internal/logger"
	"directory_backend/internal/middleware"
	"directory_backend/internal/models"
	"directory_backend/internal/notify"
	"directory_backend/internal/realtime"
	"directory_backend/internal/repositories"
	"directory_backend/internal/routes"
	"directory_backend/internal/services"
	"directory_backend/internal/sitestatus"
	"directory_backend/internal/storage"
	"directory_backend/internal/validator"
	"directory_backend/internal/workers"
	"directory_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const dedupTTL = 30 * time.Second

// Repositories - все репозитории приложения
type Repositories struct {
	Users         repositories.UserRepository
	Statuses      repositories.UserStatusRepository
	Roles         repositories.RoleRepository
	RefreshTokens repositories.RefreshTokenRepository
	Countries     repositories.CountryRepository
	Progress      repositories.SignupProgressRepository
	Verifications repositories.VerificationRepository
	Profiles      repositories.ProfileRepository
	SiteStatus    repositories.SiteStatusRepository
	Moderation    repositories.ModerationRepository
}

func newRepositories() *Repositories {
	return &Repositories{
		Users:         repositories.NewUserRepository(),
		Statuses:      repositories.NewUserStatusRepository(),
		Roles:         repositories.NewRoleRepository(),
		RefreshTokens: repositories.NewRefreshTokenRepository(),
		Countries:     repositories.NewCountryRepository(),
		Progress:      repositories.NewSignupProgressRepository(),
		Verifications: repositories.NewVerificationRepository(),
		Profiles:      repositories.NewProfileRepository(),
		SiteStatus:    repositories.NewSiteStatusRepository(),
		Moderation:    repositories.NewModerationRepository(),
	}
}

// Infra - внешние и фоновые компоненты, общие для сервисов и роутера
type Infra struct {
	Redis   *redis.Client
	Bus     *events.Bus
	Hub     *realtime.Hub
	Cache   *sitestatus.Cache
	Guard   *dedup.Guard
	Storage storage.Storage
	Tokens  *auth.TokenManager
}

func Run() {
	if err := config.LoadConfig(); err != nil {
		logger.Fatal("Failed to load config", "error", err)
	}
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	apperrors.SetDebug(cfg.Server.Debug)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Connecting to database...")
	gormDB, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := database.AutoMigrate(gormDB); err != nil {
		logger.Fatal("Migration failed", "error", err)
	}

	repos := newRepositories()
	seeder := database.NewSeeder(repos.Users, repos.Statuses, repos.Roles, repos.SiteStatus)
	if err := seeder.Run(gormDB, database.AdminSeed{Email: cfg.Auth.FirstAdminEmail, Password: cfg.Auth.FirstAdminPassword}); err != nil {
		// без админа и строки site_statuses сервер не запускаем
		logger.Fatal("Failed to seed defaults", "error", err)
	}

	infra, err := initializeInfra(ctx, cfg, gormDB, repos)
	if err != nil {
		logger.Fatal("Failed to initialize infrastructure", "error", err)
	}
	defer infra.close()

	serviceContainer := initializeServices(cfg, repos, infra)
	ginRouter := SetupRouter(cfg, gormDB, repos, infra, serviceContainer)

	workers.NewTokenWorker(gormDB, repos.RefreshTokens).Start(ctx)
	workers.NewProofWorker(gormDB, repos.Verifications, infra.Storage,
		time.Duration(cfg.Workers.ProofSweepInterval)*time.Minute).Start(ctx)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      ginRouter,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server startup error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
}

func initializeInfra(ctx context.Context, cfg *config.Config, gormDB *gorm.DB, repos *Repositories) (*Infra, error) {
	infra := &Infra{
		Hub:    realtime.NewHub(),
		Tokens: auth.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.TTL)*time.Minute),
	}

	store, err := storage.NewStorage(storage.Config{
		Type:       cfg.Storage.Type,
		BasePath:   cfg.Storage.BasePath,
		BaseURL:    cfg.Storage.BaseURL,
		Bucket:     cfg.Storage.Bucket,
		Region:     cfg.Storage.Region,
		AccessKey:  cfg.Storage.AccessKey,
		SecretKey:  cfg.Storage.SecretKey,
		Endpoint:   cfg.Storage.Endpoint,
		AccountID:  cfg.Storage.AccountID,
		UseSSL:     cfg.Storage.UseSSL,
		PublicRead: cfg.Storage.PublicRead,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	infra.Storage = store
	logger.Info("Storage initialized", "type", cfg.Storage.Type)

	infra.Redis = connectRedis(ctx, cfg)

	sinks := []events.Publisher{events.NewLoggingPublisher()}
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, nil)
		if err != nil {
			return nil, fmt.Errorf("kafka: %w", err)
		}
		sinks = append(sinks, kafka)
		logger.Info("Kafka publisher enabled", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}

	var locker dedup.Locker
	if infra.Redis != nil {
		sinks = append(sinks, events.NewRedisPublisher(infra.Redis, events.DefaultRedisChannel))
		locker = dedup.NewRedisLocker(infra.Redis)
	}
	infra.Bus = events.NewBus(sinks...)
	infra.Guard = dedup.NewGuard(locker, dedupTTL)

	if infra.Redis != nil {
		relay := events.NewRedisRelay(infra.Redis, events.DefaultRedisChannel, infra.Bus)
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Redis event relay stopped", "error", err)
			}
		}()
	}

	infra.Cache = sitestatus.NewCache(gormDB, repos.SiteStatus)
	if err := infra.Cache.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("site status: %w", err)
	}
	infra.Bus.Subscribe(events.TypeSiteStatusChanged, infra.Cache.HandleEvent)
	infra.Bus.Subscribe("*", infra.Hub.HandleEvent)
	go infra.Cache.Poll(ctx, time.Duration(cfg.SiteStatus.PollInterval)*time.Second)
	go infra.Hub.Run(ctx)

	return infra, nil
}

// connectRedis: без redis работаем в режиме одного инстанса
func connectRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		logger.Warn("Redis is not configured: dedup, rate limit and cross-instance events are local only")
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("Redis unavailable, continuing without it", "addr", cfg.Redis.Addr, "error", err)
		_ = client.Close()
		return nil
	}
	logger.Info("Redis connected", "addr", cfg.Redis.Addr)
	return client
}

func (i *Infra) close() {
	if err := i.Bus.Close(); err != nil {
		logger.Warn("Event sinks closed with errors", "error", err)
	}
	if i.Redis != nil {
		_ = i.Redis.Close()
	}
}

// initializeNotifier собирает каналы уведомлений администраторов
func initializeNotifier(cfg *config.Config) notify.Notifier {
	var channels notify.Multi

	if cfg.Email.SMTPHost != "" && len(cfg.Email.AdminEmails) > 0 {
		sender, err := email.NewGomailSender(email.SMTPConfig{
			Host:      cfg.Email.SMTPHost,
			Port:      cfg.Email.SMTPPort,
			Username:  cfg.Email.SMTPUsername,
			Password:  cfg.Email.SMTPPassword,
			FromEmail: cfg.Email.FromEmail,
			FromName:  cfg.Email.FromName,
		}, email.NewTemplateManager())
		if err != nil {
			logger.Warn("Email notifications disabled", "error", err)
		} else {
			channels = append(channels, notify.NewEmailNotifier(sender, cfg.Email.AdminEmails))
		}
	}

	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != 0 {
		tg, err := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			logger.Warn("Telegram notifications disabled", "error", err)
		} else {
			channels = append(channels, tg)
		}
	}

	if len(channels) == 0 {
		return notify.Noop{}
	}
	return channels
}

func initializeServices(cfg *config.Config, repos *Repositories, infra *Infra) *services.ServiceContainer {
	notifier := initializeNotifier(cfg)
	signedTTL := cfg.SignedURLTTL()

	authService := services.NewAuthService(
		repos.Users, repos.Statuses, repos.Roles, repos.Progress, repos.RefreshTokens,
		infra.Tokens, time.Duration(cfg.JWT.RefreshTTL)*time.Hour, cfg.Auth.LoginDomain, infra.Bus,
	)
	profileService := services.NewProfileService(
		repos.Profiles, repos.Statuses, repos.Roles, repos.Moderation, infra.Storage,
		imageprocessor.NewProcessor(cfg.Upload.ImageQuality, cfg.Upload.MaxImageSide),
		cfg.Upload.MaxSize, infra.Bus,
	)
	signupService := services.NewSignupService(
		repos.Users, repos.Statuses, repos.Progress, repos.Countries, repos.Verifications,
		authService, infra.Storage, infra.Guard, infra.Bus, notifier,
		services.SignupOptions{
			LoginDomain:  cfg.Auth.LoginDomain,
			MaxProofSize: cfg.Upload.MaxSize,
			AllowedTypes: cfg.Upload.AllowedTypes,
			SignedURLTTL: signedTTL,
		},
	)
	moderationService := services.NewModerationService(
		repos.Verifications, repos.Statuses, repos.Users, repos.SiteStatus, repos.Moderation,
		authService, profileService, infra.Storage, infra.Cache, infra.Guard, infra.Bus, notifier, signedTTL,
	)

	return &services.ServiceContainer{
		AuthService:       authService,
		SignupService:     signupService,
		ModerationService: moderationService,
		CountryService:    services.NewCountryService(repos.Countries, repos.Moderation),
		ProfileService:    profileService,
		UserService:       services.NewUserService(repos.Users),
		StatsService:      services.NewStatsService(repos.Verifications, repos.Statuses, repos.Profiles),
	}
}

func initializeHandlers(cfg *config.Config, svc *services.ServiceContainer, infra *Infra) *handlers.AppHandlers {
	baseHandler := handlers.NewBaseHandler(validator.New(), cfg.Upload.MaxSize)

	return &handlers.AppHandlers{
		AuthHandler:       handlers.NewAuthHandler(baseHandler, svc.AuthService),
		SignupHandler:     handlers.NewSignupHandler(baseHandler, svc.SignupService),
		ModerationHandler: handlers.NewModerationHandler(baseHandler, svc.ModerationService, svc.UserService, svc.StatsService),
		CountryHandler:    handlers.NewCountryHandler(baseHandler, svc.CountryService),
		ProfileHandler:    handlers.NewProfileHandler(baseHandler, svc.ProfileService),
		WSHandler:         handlers.NewWSHandler(baseHandler, infra.Hub, svc.AuthService, cfg.Server.AllowOrigins),
	}
}

// SetupRouter собирает gin: общие middleware, гейт, маршруты
func SetupRouter(cfg *config.Config, gormDB *gorm.DB, repos *Repositories, infra *Infra, svc *services.ServiceContainer) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.Server.AllowOrigins))
	router.Use(middleware.DBMiddleware(gormDB))
	router.Use(middleware.OptionalAuthMiddleware(infra.Tokens))
	router.Use(middleware.GateMiddleware(infra.Cache, repos.Roles, cfg.Gate.ExemptPrefixes))

	rateWindow := time.Duration(cfg.RateLimit.Window) * time.Second
	guards := handlers.Guards{
		Auth:      middleware.AuthMiddleware(infra.Tokens),
		Admin:     middleware.RequireCapability(repos.Roles, models.CapabilityAdmin),
		RateLimit: middleware.RateLimitMiddleware(infra.Redis, cfg.RateLimit.Requests, rateWindow),
	}

	opts := routes.Options{
		Ready: func() error {
			sqlDB, err := gormDB.DB()
			if err != nil {
				return err
			}
			return sqlDB.Ping()
		},
	}
	// абсолютный base_url означает, что файлы раздает кто-то другой
	if cfg.Storage.Type == "local" && strings.HasPrefix(cfg.Storage.BaseURL, "/") {
		opts.UploadsURL = cfg.Storage.BaseURL
		opts.UploadsDir = cfg.Storage.BasePath
	}

	routes.RegisterRoutes(router, initializeHandlers(cfg, svc, infra), guards, opts)
	return router
}
