package router

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/yxshee/marfa-gallery/internal/auditlog"
	"github.com/yxshee/marfa-gallery/internal/auth"
	"github.com/yxshee/marfa-gallery/internal/config"
	"github.com/yxshee/marfa-gallery/internal/gallery"
	"github.com/yxshee/marfa-gallery/internal/platform/identifier"
	"github.com/yxshee/marfa-gallery/internal/platform/ipfs"
	"github.com/yxshee/marfa-gallery/internal/platform/logging"
	"github.com/yxshee/marfa-gallery/internal/platform/metrics"
	"github.com/yxshee/marfa-gallery/internal/platform/ratelimit"
	"github.com/yxshee/marfa-gallery/internal/profiles"
	"github.com/yxshee/marfa-gallery/internal/storage/memory"
)

// Dependencies are the collaborators the router wires into its services.
// Nil fields fall back to in-memory or config-derived defaults.
type Dependencies struct {
	GalleryStore gallery.Store
	ProfileStore profiles.Store
	Fetcher      gallery.MetadataFetcher
	Identifiers  *identifier.Generator
	Limiter      ratelimit.Limiter
	Logger       logrus.FieldLogger
	// Ready reports whether backing stores are reachable.
	Ready func(ctx context.Context) error
}

type api struct {
	gallery      *gallery.Service
	profiles     *profiles.Service
	tokenManager *auth.TokenManager
	admins       auth.AdminSet
	chain        config.ChainConfig
	limiter      ratelimit.Limiter
	auditLogs    *auditlog.Service
	seedEnabled  bool
	log          logrus.FieldLogger
	ready        func(ctx context.Context) error
}

// New creates a production-ready chi router with baseline middleware and routes.
func New(cfg config.Config, deps Dependencies) (http.Handler, error) {
	tokenManager, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL)
	if err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = logging.New(cfg.LogLevel, cfg.LogFormat)
	}

	if deps.GalleryStore == nil || deps.ProfileStore == nil {
		if deps.GalleryStore != nil || deps.ProfileStore != nil {
			return nil, errors.New("gallery and profile stores must be provided together")
		}
		store := memory.New()
		deps.GalleryStore = store
		deps.ProfileStore = store
	}
	if deps.Fetcher == nil {
		fetcher := ipfs.NewFetcher(ipfs.FetcherConfig{
			Gateway:        cfg.IPFSGateway,
			TrustedDomains: config.SplitCSV(cfg.TrustedFetchDomains),
			Timeout:        cfg.MetadataFetchTimeout,
		})
		if token := strings.TrimSpace(cfg.IPFSGatewayToken); token != "" {
			fetcher = fetcher.WithHeader(ipfs.GatewayTokenHeader, token)
		}
		deps.Fetcher = fetcher
	}
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.NewMemory(cfg.RateLimitRPS, cfg.RateLimitBurst, 10*time.Minute)
	}
	if deps.Ready == nil {
		deps.Ready = func(context.Context) error { return nil }
	}

	apiHandlers := &api{
		gallery: gallery.NewService(gallery.Config{
			Store:         deps.GalleryStore,
			Identifiers:   deps.Identifiers,
			Fetcher:       deps.Fetcher,
			Logger:        logger,
			ExplorerTxURL: cfg.Chain.ExplorerTxURL,
		}),
		profiles:     profiles.NewService(deps.ProfileStore, logger),
		tokenManager: tokenManager,
		admins:       auth.BuildAdminSet(cfg.AdminWallets),
		chain:        cfg.Chain,
		limiter:      deps.Limiter,
		auditLogs:    auditlog.NewService(0),
		seedEnabled:  !cfg.IsProduction(),
		log:          logger.WithField("component", "http"),
		ready:        deps.Ready,
	}
	if cfg.Environment == "development" {
		if err := apiHandlers.seedDevelopmentGallery(context.Background()); err != nil {
			return nil, err
		}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.InstrumentHandler)
	r.Use(securityHeaders)
	r.Use(corsHeaders(cfg.CORSAllowOrigins))

	r.Get("/health", apiHandlers.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(apiHandlers.rateLimit)

		v1.Get("/health", apiHandlers.handleHealth)
		v1.Get("/chain", apiHandlers.handleChain)
		v1.Get("/words", apiHandlers.handleWords)

		v1.Post("/auth/session", apiHandlers.handleAuthSession)

		v1.Get("/art", apiHandlers.handleArtList)
		v1.Post("/art", apiHandlers.handleArtSubmit)
		v1.Get("/art/recent-unminted", apiHandlers.handleArtRecentUnminted)
		v1.Get("/art/{identifier}", apiHandlers.handleArtDetail)
		v1.Post("/art/{identifier}/mint", apiHandlers.handleArtMint)
		v1.Get("/collectors/top", apiHandlers.handleTopCollectors)

		v1.Get("/profiles", apiHandlers.handleProfilesGet)

		v1.Group(func(private chi.Router) {
			private.Use(apiHandlers.authenticate)
			private.Get("/auth/me", apiHandlers.handleAuthMe)

			private.Group(func(ownProfile chi.Router) {
				ownProfile.Use(apiHandlers.requirePermission(auth.PermissionManageOwnProfile))
				ownProfile.Post("/profiles", apiHandlers.handleProfilesUpsert)
			})

			private.Group(func(adminRoutes chi.Router) {
				adminRoutes.Use(apiHandlers.requirePermission(auth.PermissionBackfillIdentifiers))
				adminRoutes.Post("/admin/identifiers/backfill", apiHandlers.handleAdminBackfillIdentifiers)
			})

			private.Group(func(adminRoutes chi.Router) {
				adminRoutes.Use(apiHandlers.requirePermission(auth.PermissionSeedGallery))
				adminRoutes.Post("/admin/seed", apiHandlers.handleAdminSeed)
			})

			private.Group(func(adminRoutes chi.Router) {
				adminRoutes.Use(apiHandlers.requirePermission(auth.PermissionViewAuditLogs))
				adminRoutes.Get("/admin/audit-logs", apiHandlers.handleAdminAuditLogsList)
			})
		})
	})

	return r, nil
}
