package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/sbilibin2017/recipe-share/internal/config"
	"github.com/sbilibin2017/recipe-share/internal/handlers"
	"github.com/sbilibin2017/recipe-share/internal/jwt"
	"github.com/sbilibin2017/recipe-share/internal/logger"
	"github.com/sbilibin2017/recipe-share/internal/middlewares"
	"github.com/sbilibin2017/recipe-share/internal/repositories"
	"github.com/sbilibin2017/recipe-share/internal/services"
	"github.com/sbilibin2017/recipe-share/internal/web"
)

// app holds the wired services behind both HTTP surfaces.
type app struct {
	db       *sqlx.DB
	cfg      config.Config
	tokens   *jwt.JWT
	sessions *repositories.SessionRepository

	auth    *services.AuthService
	recipes *services.RecipeService
	social  *services.SocialService
	users   *services.UserService
	admin   *services.AdminService
}

func newApp(db *sqlx.DB, rdb *redis.Client, tokens *jwt.JWT, kafkaWriter services.KafkaWriter, images services.ImageStore, cfg config.Config) *app {
	txGetter := middlewares.GetTxFromContext

	// Initialize repositories
	userReadRepo := repositories.NewUserReadRepository(db, txGetter)
	userWriteRepo := repositories.NewUserWriteRepository(db, txGetter)
	recipeReadRepo := repositories.NewRecipeReadRepository(db, txGetter)
	recipeWriteRepo := repositories.NewRecipeWriteRepository(db, txGetter)
	likeRepo := repositories.NewLikeRepository(db, txGetter)
	favoriteRepo := repositories.NewFavoriteRepository(db, txGetter)
	commentRepo := repositories.NewCommentRepository(db, txGetter)
	sessionRepo := repositories.NewSessionRepository(rdb, cfg.SessionTTL)

	// Initialize services
	events := services.NewEventPublisher(kafkaWriter)
	return &app{
		db:       db,
		cfg:      cfg,
		tokens:   tokens,
		sessions: sessionRepo,
		auth:     services.NewAuthService(userReadRepo, userWriteRepo, sessionRepo, tokens),
		recipes:  services.NewRecipeService(recipeReadRepo, recipeWriteRepo, images, events),
		social:   services.NewSocialService(recipeReadRepo, likeRepo, favoriteRepo, commentRepo, events),
		users:    services.NewUserService(userReadRepo, userWriteRepo, recipeReadRepo, images),
		admin:    services.NewAdminService(recipeReadRepo, recipeWriteRepo, likeRepo, userWriteRepo, events),
	}
}

// router mounts the REST API under /api, Swagger UI and the HTML site.
func (a *app) router() http.Handler {
	tx := middlewares.TxMiddleware(a.db)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewares.LoggingMiddleware(logger.Log))
	r.Use(middlewares.AuthMiddleware(a.tokens, a.auth))

	limiter := middlewares.NewRateLimiter(a.cfg.RateLimitPerMinute)
	r.Route("/api", a.apiRoutes(tx, limiter.Middleware))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(a.cfg.BaseURL+"/swagger/doc.json"),
	))

	site, err := web.NewHandler(a.recipes, a.social, a.users, a.auth, a.sessions, web.Options{
		SessionTTL:   a.cfg.SessionTTL,
		SecureCookie: a.cfg.SecureCookie,
		AuthLimit:    limiter.Middleware,
	})
	if err != nil {
		// Templates are embedded, so this only fails on a broken build.
		panic(err)
	}
	site.Routes(r, tx)

	return r
}

func (a *app) apiRoutes(tx, limit func(http.Handler) http.Handler) func(r chi.Router) {
	return func(r chi.Router) {
		r.NotFound(handlers.NotFound)

		// Auth endpoints are rate limited per client IP
		r.Route("/auth", func(r chi.Router) {
			r.Use(limit)
			r.With(tx).Post("/register", handlers.NewRegisterHandler(a.auth))
			r.Post("/login", handlers.NewLoginHandler(a.auth, a.cfg.SessionTTL, a.cfg.SecureCookie))
			r.Post("/logout", handlers.NewLogoutHandler(a.auth))
			r.With(middlewares.RequireAuth).Get("/me", handlers.NewMeHandler(a.users))
		})

		// Read-only for anonymous callers
		r.Get("/recipes/", handlers.NewListRecipesHandler(a.recipes))
		r.Get("/recipes/my_recipes/", handlers.NewListRecipesHandler(handlers.RecipeListerFunc(a.recipes.Mine)))
		r.Get("/recipes/my_drafts/", handlers.NewListRecipesHandler(handlers.RecipeListerFunc(a.recipes.MyDrafts)))
		r.Get("/recipes/my_favorites/", handlers.NewListRecipesHandler(handlers.RecipeListerFunc(a.recipes.MyFavorites)))
		r.Get("/recipes/{slug}/", handlers.NewGetRecipeHandler(a.recipes))
		r.Get("/recipes/{slug}/comments/", handlers.NewListCommentsHandler(a.social))

		// Mutations run in one transaction per request
		r.Group(func(r chi.Router) {
			r.Use(middlewares.RequireAuth)
			r.Use(tx)

			r.Post("/recipes/", handlers.NewCreateRecipeHandler(a.recipes))
			r.Put("/recipes/{slug}/", handlers.NewUpdateRecipeHandler(a.recipes, false))
			r.Patch("/recipes/{slug}/", handlers.NewUpdateRecipeHandler(a.recipes, true))
			r.Delete("/recipes/{slug}/", handlers.NewDeleteRecipeHandler(a.recipes))
			r.Post("/recipes/{slug}/publish/", handlers.NewPublishRecipeHandler(a.recipes))
			r.Post("/recipes/{slug}/toggle_like/", handlers.NewToggleLikeHandler(a.social))
			r.Post("/recipes/{slug}/toggle_favorite/", handlers.NewToggleFavoriteHandler(a.social))
			r.Post("/recipes/{slug}/add_comment/", handlers.NewAddCommentHandler(a.social))
			r.Delete("/comments/{id}/", handlers.NewDeleteCommentHandler(a.social))
		})

		// Staff only
		r.Route("/admin", func(r chi.Router) {
			r.Use(middlewares.RequireStaff)
			r.Get("/stats/", handlers.NewAdminStatsHandler(a.admin))
			r.Group(func(r chi.Router) {
				r.Use(tx)
				r.Post("/recipes/publish/", handlers.NewAdminPublishHandler(a.admin))
				r.Post("/recipes/draft/", handlers.NewAdminDraftHandler(a.admin))
				r.Post("/recipes/{slug}/duplicate/", handlers.NewAdminDuplicateHandler(a.admin))
				r.Post("/recipes/{slug}/reset_likes/", handlers.NewAdminResetLikesHandler(a.admin))
			})
		})
	}
}
