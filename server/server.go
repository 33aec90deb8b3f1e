// Package server wires the engine together and exposes it over HTTP and
// WebSocket.
package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"AutoQFM/cache"
	"AutoQFM/config"
	"AutoQFM/core/agent"
	"AutoQFM/core/analytics"
	"AutoQFM/core/provider"
	"AutoQFM/core/recommend"
	"AutoQFM/core/resolver"
	"AutoQFM/db"
	"AutoQFM/logger"
	"AutoQFM/model"
	"AutoQFM/repository"

	"github.com/gorilla/mux"
)

// Start builds the engine from configuration and runs the HTTP server
// until SIGINT or SIGTERM. Redis and MySQL are optional: the engine
// degrades to in-memory operation when either is unreachable.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})

	// Persistent cache tiers. A missing Redis only costs cache hits.
	var store *cache.Store
	redisClient, err := cache.ConnectRedis(cfg)
	if err != nil {
		logger.Warn("redis unavailable, persistent cache disabled", logger.ErrorField(err))
	} else {
		defer redisClient.Close()
		store = cache.NewStore(redisClient, cfg.RecommendationTTL, cfg.TrackMetadataTTL, nil)
	}

	// Long-term play history. A missing database only costs the
	// cross-session favorite-artist signal.
	var history repository.HistoryRepository
	gormDB, err := db.ConnectGorm(cfg)
	if err != nil {
		logger.Warn("database unavailable, play history disabled", logger.ErrorField(err))
	} else {
		defer db.CloseGorm(gormDB)
		if err := db.AutoMigrate(gormDB, &model.PlayHistory{}); err != nil {
			logger.Warn("history migration failed, play history disabled", logger.ErrorField(err))
		} else {
			history = repository.NewGormHistoryRepository(gormDB)
		}
	}

	providerClient := provider.NewClient(cfg.ProviderBaseURL, cfg.ProviderTimeout)
	trackResolver := resolver.New(providerClient)
	session := analytics.New(nil)
	queryCache := cache.NewQueryCache(cfg.QueryCacheMaxSize, cfg.QueryCacheTTL, nil)

	aiService := agent.NewOpenAIService(&agent.OpenAIConfig{
		APIBaseURL:  cfg.AIAPIBaseURL,
		APIKey:      cfg.AIAPIKey,
		MaxTokens:   cfg.AIMaxTokens,
		Temperature: cfg.AITemperature,
	})
	gateway := agent.NewGateway(aiService, agent.GatewayConfig{
		Models:      cfg.AIModels,
		Cooldown:    cfg.AICooldown,
		MaxRetries:  cfg.AIMaxRetries,
		BaseBackoff: cfg.AIBaseBackoff,
	}, nil)

	deps := recommend.Deps{
		Resolver:    trackResolver,
		QueryCache:  queryCache,
		Session:     session,
		AI:          agent.NewQueryGenerator(gateway),
		Algorithmic: recommend.NewAlgorithmicGenerator(),
		Gate:        gateway,
		TargetSize:  cfg.TargetQueueSize,
	}
	if store != nil {
		deps.Store = store
	}
	if history != nil {
		deps.History = history
	}
	orchestrator := recommend.NewOrchestrator(deps)

	hub := NewQueueHub()
	go hub.Run()
	defer hub.Stop()

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	if store != nil {
		go sweepLoop(sweepCtx, store, cfg.CacheSweepInterval)
	}

	apiHandler := NewAPIHandler(orchestrator, session, history, providerClient, hub, cfg)

	router := mux.NewRouter()
	router.Use(corsMiddleware)

	router.HandleFunc("/api/health", apiHandler.HealthHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/recommend", apiHandler.RecommendHandler).Methods(http.MethodPost)

	router.HandleFunc("/api/session/play", apiHandler.SessionPlayHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/session/skip", apiHandler.SessionSkipHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/session/reset", apiHandler.SessionResetHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/session/analysis", apiHandler.SessionAnalysisHandler).Methods(http.MethodGet)

	router.HandleFunc("/api/provider/search", apiHandler.ProviderSearchHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/provider/playlist", apiHandler.ProviderPlaylistHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/provider/album", apiHandler.ProviderAlbumHandler).Methods(http.MethodGet)

	router.HandleFunc("/ws/queue", hub.ServeWS)

	httpServer := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", logger.String("port", cfg.ServerPort))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", logger.ErrorField(err))
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// sweepLoop trims stale entries from the persistent cache indexes.
func sweepLoop(ctx context.Context, store *cache.Store, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed, err := store.SweepExpired(ctx)
			if err != nil {
				logger.Warn("cache sweep failed", logger.ErrorField(err))
				continue
			}
			if removed > 0 {
				logger.Info("cache sweep removed stale entries", logger.Int("removed", removed))
			}
		case <-ctx.Done():
			return
		}
	}
}
