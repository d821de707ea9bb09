package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/raydius-app/backend/internal/config"
	"github.com/raydius-app/backend/internal/infra/mailer"
	s3infra "github.com/raydius-app/backend/internal/infra/s3"
	pgrepo "github.com/raydius-app/backend/internal/repo/postgres"
	redrepo "github.com/raydius-app/backend/internal/repo/redis"
	authsvc "github.com/raydius-app/backend/internal/services/auth"
	feedsvc "github.com/raydius-app/backend/internal/services/feed"
	matchessvc "github.com/raydius-app/backend/internal/services/matches"
	mediasvc "github.com/raydius-app/backend/internal/services/media"
	profilesvc "github.com/raydius-app/backend/internal/services/profiles"
	swipesvc "github.com/raydius-app/backend/internal/services/swipes"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log, cfg.HTTP.AllowedOrigins)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	sessionRepo := redrepo.NewSessionRepo(redisClient)
	loginCodeRepo := redrepo.NewLoginCodeRepo(redisClient)
	userRepo := pgrepo.NewUserRepo(pool)
	profileRepo := pgrepo.NewProfileRepo(pool)
	candidateRepo := pgrepo.NewCandidateRepo(pool)
	swipeRepo := pgrepo.NewSwipeRepo(pool)
	matchRepo := pgrepo.NewMatchRepo(pool)
	txManager := pgrepo.NewTxManager(pool)

	var storage *s3infra.Storage
	if client, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else if s, storageErr := s3infra.NewStorage(client, cfg.S3.Bucket); storageErr != nil {
		log.Warn("s3 storage init failed, continuing in degraded mode", zap.Error(storageErr))
	} else {
		storage = s
		if err := storage.EnsureBucket(ctx); err != nil {
			log.Warn("s3 bucket check failed", zap.Error(err))
		}
	}

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	authService := authsvc.NewService(authsvc.Dependencies{
		JWT:      jwtManager,
		Sessions: sessionRepo,
		Codes:    loginCodeRepo,
		Users:    userRepo,
		Sender: mailer.New(mailer.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}),
	}, authsvc.Config{
		RefreshTTL:     cfg.Auth.RefreshTTL,
		LoginCodeTTL:   cfg.Auth.LoginCodeTTL,
		AllowedDomains: cfg.Auth.AllowedDomains,
	})

	feedService := feedsvc.NewService(candidateRepo, swipeRepo, feedsvc.Config{
		DefaultPageSize: cfg.Feed.DefaultPageSize,
		MaxPageSize:     cfg.Feed.MaxPageSize,
	})
	swipeService := swipesvc.NewService(swipesvc.Dependencies{
		Tx:      txManager,
		Ledger:  swipeRepo,
		Matches: matchRepo,
	})
	profileService := profilesvc.NewService(profileRepo)

	var matchesService *matchessvc.Service
	var mediaService *mediasvc.Service
	if storage != nil {
		feedService.AttachPhotoSigner(storage)
		matchesService = matchessvc.NewService(matchRepo, storage)
		mediaService = mediasvc.NewService(storage)
	} else {
		matchesService = matchessvc.NewService(matchRepo, nil)
	}

	RegisterRoutes(r, Dependencies{
		AuthService:    authService,
		FeedService:    feedService,
		SwipeService:   swipeService,
		MatchService:   matchesService,
		ProfileService: profileService,
		MediaService:   mediaService,
		Logger:         log,
		Config:         cfg,
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
