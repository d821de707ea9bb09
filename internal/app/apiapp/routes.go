package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/raydius-app/backend/internal/config"
	authsvc "github.com/raydius-app/backend/internal/services/auth"
	feedsvc "github.com/raydius-app/backend/internal/services/feed"
	matchessvc "github.com/raydius-app/backend/internal/services/matches"
	mediasvc "github.com/raydius-app/backend/internal/services/media"
	profilesvc "github.com/raydius-app/backend/internal/services/profiles"
	swipesvc "github.com/raydius-app/backend/internal/services/swipes"
	"github.com/raydius-app/backend/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService    *authsvc.Service
	FeedService    *feedsvc.Service
	SwipeService   *swipesvc.Service
	MatchService   *matchessvc.Service
	ProfileService *profilesvc.Service
	MediaService   *mediasvc.Service
	Logger         *zap.Logger
	Config         config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	authHandler := handlers.NewAuthHandler(deps.AuthService)
	feedHandler := handlers.NewFeedHandler(deps.FeedService)
	swipeHandler := handlers.NewSwipeHandler(deps.SwipeService)
	matchesHandler := handlers.NewMatchesHandler(deps.MatchService)
	profileHandler := handlers.NewProfileHandler(deps.ProfileService)
	mediaHandler := handlers.NewMediaHandler(deps.MediaService)
	authMW := AuthMiddleware(deps.AuthService, deps.Logger)

	r.Get("/healthz", handlers.Health)

	r.Route("/v1/auth", func(r chi.Router) {
		r.Post("/otp/request", authHandler.RequestCode)
		r.Post("/otp/verify", authHandler.VerifyCode)
		r.Post("/refresh", authHandler.Refresh)
		r.With(authMW).Post("/logout", authHandler.Logout)
		r.With(authMW).Post("/logout_all", authHandler.LogoutAll)
	})

	r.Route("/v1", func(r chi.Router) {
		r.With(authMW).Get("/feed", feedHandler.Handle)
		r.With(authMW).Post("/swipes", swipeHandler.Handle)
		r.With(authMW).Get("/matches", matchesHandler.List)
		r.With(authMW).Get("/profile", profileHandler.Get)
		r.With(authMW).Put("/profile", profileHandler.Put)
		r.With(authMW).Post("/media/upload-url", mediaHandler.UploadURL)
	})
}
