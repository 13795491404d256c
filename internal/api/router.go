package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/parley/internal/api/handler"
	customMiddleware "github.com/Rrens/parley/internal/api/middleware"
	"github.com/Rrens/parley/internal/config"
	"github.com/Rrens/parley/internal/domain"
	"github.com/Rrens/parley/internal/llm"
	"github.com/Rrens/parley/internal/llm/anthropic"
	"github.com/Rrens/parley/internal/llm/deepseek"
	"github.com/Rrens/parley/internal/llm/gemini"
	"github.com/Rrens/parley/internal/llm/ollama"
	"github.com/Rrens/parley/internal/llm/openai"
	"github.com/Rrens/parley/internal/negotiation"
	"github.com/Rrens/parley/internal/repository/postgres"
	"github.com/Rrens/parley/internal/repository/redis"
	"github.com/Rrens/parley/internal/security"
	"github.com/Rrens/parley/internal/service"
)

// Dependencies are the connected backends the router wires services onto
type Dependencies struct {
	DB    *postgres.DB
	Redis *redis.Client
	// History overrides the postgres narrative history store when set.
	History domain.HistoryRepository
	// Backends are checked by the readiness endpoint.
	Backends map[string]handler.Pinger
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, deps Dependencies) (http.Handler, error) {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))

	origins := cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Security components
	jwtManager := security.NewJWTManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)

	encryptionSecret := cfg.Auth.EncryptionKey
	if encryptionSecret == "" {
		log.Warn().Msg("auth.encryption_key is empty, deriving credential key from jwt secret")
		encryptionSecret = cfg.Auth.JWTSecret
	}
	encryptor, err := security.NewEncryptorFromSecret(encryptionSecret)
	if err != nil {
		return nil, err
	}

	// Repositories
	userRepo := postgres.NewUserRepository(deps.DB)
	campaignRepo := postgres.NewCampaignRepository(deps.DB)
	negotiationRepo := postgres.NewNegotiationRepository(deps.DB)
	var historyRepo domain.HistoryRepository = postgres.NewHistoryRepository(deps.DB)
	if deps.History != nil {
		historyRepo = deps.History
	}

	rateLimiter := redis.NewRateLimiter(
		deps.Redis,
		cfg.Security.RateLimit.RequestsPerMinute,
		cfg.Security.RateLimit.Burst,
	)
	negotiationCache := redis.NewNegotiationCache(deps.Redis)

	llmRouter := NewLLMRouter(cfg.LLM)

	// Services
	authService := service.NewAuthService(userRepo, campaignRepo, jwtManager, encryptor)
	campaignService := service.NewCampaignService(campaignRepo, userRepo, historyRepo)
	negotiationService := service.NewNegotiationService(
		negotiation.NewEngine(),
		campaignRepo,
		negotiationRepo,
		historyRepo,
		negotiationCache,
		llmRouter,
		authService,
		cfg.Negotiation,
	)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	campaignHandler := handler.NewCampaignHandler(campaignService)
	negotiationHandler := handler.NewNegotiationHandler(negotiationService)

	authMiddleware := customMiddleware.NewAuthMiddleware(jwtManager)
	rateLimitMiddleware := customMiddleware.NewRateLimitMiddleware(rateLimiter)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(deps.Backends))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Use(rateLimitMiddleware.Limit)

			r.Get("/me", authHandler.Me)
			r.Put("/me/llm-config", authHandler.UpdateLLMConfig)
			r.Get("/llm-providers", handler.ListLLMProviders(llmRouter))
			r.Post("/cache/flush", handler.FlushCache(negotiationCache))

			r.Route("/campaigns", func(r chi.Router) {
				r.Get("/", campaignHandler.List)
				r.Post("/", campaignHandler.Create)

				r.Route("/{campaignID}", func(r chi.Router) {
					r.Use(customMiddleware.CampaignContext)

					r.Get("/", campaignHandler.Get)
					r.Post("/members", campaignHandler.AddMember)
					r.Get("/history", campaignHandler.History)

					r.Route("/negotiations", func(r chi.Router) {
						MountNegotiations(r, negotiationHandler)
					})
				})
			})
		})
	})

	return r, nil
}

// MountNegotiations registers the negotiation routes on r
func MountNegotiations(r chi.Router, h *handler.NegotiationHandler) {
	r.Get("/", h.List)
	r.Post("/", h.Create)

	r.Route("/{negotiationID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Delete)
		r.Post("/start", h.Start)
		r.Post("/motivations/{motivationType}/reveal", h.RevealMotivation)
		r.Post("/pitfalls/{index}/reveal", h.RevealPitfall)
		r.Post("/arguments", h.ApplyArgument)
		r.Post("/complete", h.Complete)
		r.Get("/traits", h.Traits)
		r.Post("/suggestions", h.Suggest)
	})
}

// NewLLMRouter registers every configured provider plus per-user factories
func NewLLMRouter(cfg config.LLMConfig) *llm.Router {
	router := llm.NewRouter(cfg.DefaultProvider)

	var local llm.Provider
	if cfg.Ollama.Host != "" {
		local = ollama.NewProvider(cfg.Ollama.Host, cfg.Ollama.DefaultModel)
	}

	router.Register("openai", openai.New(openai.Options{
		APIKey:  cfg.OpenAI.APIKey,
		Model:   cfg.OpenAI.Model,
		Timeout: cfg.Timeout,
	}), openai.Factory)
	router.Register("anthropic", anthropic.NewProvider(cfg.Anthropic.APIKey, cfg.Anthropic.Model), anthropic.Factory)
	router.Register("deepseek", deepseek.NewProvider(cfg.DeepSeek.APIKey, cfg.DeepSeek.Model), deepseek.Factory)
	router.Register("gemini", gemini.NewProvider(cfg.Gemini), gemini.Factory)
	router.Register("ollama", local, ollama.Factory)

	log.Info().
		Str("default", cfg.DefaultProvider).
		Strs("configured", router.ListProviders()).
		Msg("llm providers initialized")

	return router
}
