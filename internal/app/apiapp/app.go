package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ivankudzin/kinmatch/internal/config"
	s3infra "github.com/ivankudzin/kinmatch/internal/infra/s3"
	pgrepo "github.com/ivankudzin/kinmatch/internal/repo/postgres"
	redrepo "github.com/ivankudzin/kinmatch/internal/repo/redis"
	authsvc "github.com/ivankudzin/kinmatch/internal/services/auth"
	compatsvc "github.com/ivankudzin/kinmatch/internal/services/compat"
	discoverysvc "github.com/ivankudzin/kinmatch/internal/services/discovery"
	filtersvc "github.com/ivankudzin/kinmatch/internal/services/filter"
	mediasvc "github.com/ivankudzin/kinmatch/internal/services/media"
	rankingsvc "github.com/ivankudzin/kinmatch/internal/services/ranking"
	ratesvc "github.com/ivankudzin/kinmatch/internal/services/rate"
	swipesvc "github.com/ivankudzin/kinmatch/internal/services/swipes"
	usagesvc "github.com/ivankudzin/kinmatch/internal/services/usage"
	"github.com/ivankudzin/kinmatch/internal/transport/http/handlers"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err := redrepo.Ping(ctx, redisClient); err != nil {
		log.Warn("redis unreachable, cache and throttling degraded", zap.Error(err))
	}

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		Region:    cfg.S3.Region,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		s3Client = c
	}

	txManager := pgrepo.NewTxManager(pool)
	profileRepo := pgrepo.NewProfileRepo(pool)
	tierRepo := pgrepo.NewTierRepo(pool)
	swipeRepo := pgrepo.NewSwipeRepo(pool)
	blockRepo := pgrepo.NewBlockRepo(pool)
	matchRepo := pgrepo.NewMatchRepo(pool)
	conversationRepo := pgrepo.NewConversationRepo(pool)
	usageRepo := pgrepo.NewUsageRepo(pool)
	photoRepo := pgrepo.NewPhotoRepo(pool)
	cacheRepo := redrepo.NewCacheRepo(redisClient, cfg.Discovery.CacheTTL)
	rateRepo := redrepo.NewRateRepo(redisClient)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, 0)

	mediaStorage := mediasvc.NewS3Storage(s3Client, cfg.S3.Bucket)
	if s3Client != nil {
		checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := mediaStorage.EnsureBucket(checkCtx)
		cancel()
		if err != nil {
			log.Warn("photo bucket check failed", zap.String("bucket", cfg.S3.Bucket), zap.Error(err))
		}
	}
	mediaService := mediasvc.NewService(photoRepo, mediaStorage, mediasvc.Config{
		URLTTL:    cfg.S3.URLTTL,
		MaxPhotos: cfg.S3.MaxPhotos,
	})

	usageService := usagesvc.NewService(usagesvc.Dependencies{
		Tx:       txManager,
		Counters: usageRepo,
		Tiers:    tierRepo,
	}, usagesvc.Config{
		FreeLikesPerDay:          cfg.Limits.FreeLikesPerDay,
		FreeSuperLikesPerDay:     cfg.Limits.FreeSuperLikesPerDay,
		FreeSuperLikesPerWeek:    cfg.Limits.FreeSuperLikesPerWeek,
		FreeAdsPerDay:            cfg.Limits.FreeAdsPerDay,
		PremiumLikesPerDay:       cfg.Limits.PremiumLikesPerDay,
		PremiumSuperLikesPerDay:  cfg.Limits.PremiumSuperLikesPerDay,
		PremiumSuperLikesPerWeek: cfg.Limits.PremiumSuperLikesPerWeek,
	})

	scorer := compatsvc.NewScorer()
	filterService := filtersvc.NewService(profileRepo, filtersvc.Config{
		FetchLimit:           cfg.Discovery.FetchLimit,
		PoolCap:              cfg.Discovery.PoolCap,
		ResultCap:            cfg.Discovery.ResultCap,
		DefaultMaxDistanceKM: cfg.Discovery.DefaultMaxDistanceKM,
	})
	discoveryService := discoverysvc.NewService(discoverysvc.Dependencies{
		Profiles:  profileRepo,
		Swipes:    swipeRepo,
		Blocks:    blockRepo,
		Filter:    filterService,
		Ranker:    rankingsvc.NewEngine(scorer),
		Explainer: scorer,
		Photos:    mediaService,
		Cache:     cacheRepo,
	}, discoverysvc.Config{
		DefaultCount: cfg.Discovery.DefaultCount,
		MaxCount:     filterService.ResultCap(),
	})

	swipeService := swipesvc.NewService(swipesvc.Dependencies{
		Tx:            txManager,
		Locker:        txManager,
		Profiles:      profileRepo,
		Blocks:        blockRepo,
		SwipeStore:    swipeRepo,
		MatchStore:    matchRepo,
		Conversations: conversationRepo,
		Usage:         usageService,
		Cache:         cacheRepo,
	}, swipesvc.Config{
		UndoWindow: cfg.Swipes.UndoWindow,
	})

	burstLimiter := ratesvc.NewLimiter(rateRepo, "swipe",
		ratesvc.Window{Name: "1m", Limit: cfg.Swipes.RatePerMinute, Period: time.Minute},
		ratesvc.Window{Name: "10s", Limit: cfg.Swipes.RatePer10Seconds, Period: 10 * time.Second},
	)

	health := handlers.NewHealthHandler()
	health.AddProbe("postgres", func(ctx context.Context) error {
		if pool == nil {
			return errors.New("postgres pool is not initialized")
		}
		return pool.Ping(ctx)
	})
	health.AddProbe("redis", func(ctx context.Context) error {
		return redrepo.Ping(ctx, redisClient)
	})

	RegisterRoutes(r, Dependencies{
		Tokens:    jwtManager,
		Discovery: discoveryService,
		Swipes:    swipeService,
		Usage:     usageService,
		Limiter:   burstLimiter,
		Health:    health,
		Logger:    log,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
