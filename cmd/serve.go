package cmd

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hirewire/matchengine/internal/bulk"
	"github.com/hirewire/matchengine/internal/cache"
	"github.com/hirewire/matchengine/internal/discovery"
	"github.com/hirewire/matchengine/internal/httpapi"
	"github.com/hirewire/matchengine/internal/logger"
	"github.com/hirewire/matchengine/internal/matching"
	"github.com/hirewire/matchengine/internal/matching/gemini"
	"github.com/hirewire/matchengine/internal/secrets"
	"github.com/hirewire/matchengine/internal/store"
)

const (
	defaultPort         = 8084
	defaultBulkInterval = 6 * time.Hour
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the matching engine HTTP server",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 0, "listen port (overrides server.port)")
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}

func serve() {
	ctx := context.Background()

	zlog, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}
	if config == nil {
		zlog.Fatal("config is required")
	}

	zlog.Info("starting the matchengine", zap.String("version", version))

	jobs, candidates, applications, savedJobs := buildStores(ctx, config, zlog)
	resultCache := buildCache(ctx, config, zlog)

	heuristic := matching.NewHeuristic()
	primary := buildPrimary(ctx, config, resultCache, heuristic, zlog)

	orchestrator := matching.NewOrchestrator(primary, heuristic, resultCache, jobs, candidates, zlog)
	scorer := discovery.NewScorer(jobs, candidates, applications, savedJobs, zlog)
	gaps := discovery.NewGapAnalyzer(jobs, candidates, zlog)

	jwtSecret, err := secrets.Load(secrets.Source{
		Name: "jwt secret",
		File: viper.GetString("auth.jwt-secret-file"),
		Env:  "JWT_SECRET",
	})
	if err != nil {
		zlog.Fatal("loading jwt secret",
			zap.Error(err),
			zap.String("hint", "set JWT_SECRET, JWT_SECRET_FILE, or auth.jwt-secret-file"),
		)
	}

	if config.Bulk != nil && config.Bulk.Enabled {
		interval := defaultBulkInterval
		if config.Bulk.IntervalMinutes > 0 {
			interval = time.Duration(config.Bulk.IntervalMinutes) * time.Minute
		}
		sweeper := bulk.New(orchestrator, jobs, interval, zlog)
		if err := sweeper.Start(ctx); err != nil {
			zlog.Fatal("starting bulk sweeper", zap.Error(err))
		}
		defer sweeper.Stop()
	}

	port := defaultPort
	if config.Server != nil && config.Server.Port > 0 {
		port = config.Server.Port
	}

	server := httpapi.New(port, orchestrator, scorer, gaps, httpapi.NewAuth(jwtSecret), zlog)
	if err := server.Start(); err != nil {
		zlog.Fatal("http server failed", zap.Error(err))
	}
}

func buildStores(ctx context.Context, config *Config, zlog *zap.Logger) (store.JobStore, store.CandidateStore, store.ApplicationStore, store.SavedJobStore) {
	backend := "memory"
	if config.Store != nil && config.Store.Backend != "" {
		backend = strings.ToLower(config.Store.Backend)
	}

	switch backend {
	case "postgres":
		pg, err := store.ConnectPostgres(ctx, config.Store.DatabaseURL)
		if err != nil {
			zlog.Fatal("connecting to postgres", zap.Error(err))
		}
		return pg, pg.Candidates(), pg.Applications(), pg.SavedJobs()
	case "memory":
		zlog.Warn("using in-memory stores; data will not survive a restart")
		mem := store.NewMemory()
		return mem, mem.Candidates(), mem.Applications(), mem.SavedJobs()
	default:
		zlog.Fatal("unsupported store backend", zap.String("backend", backend))
		return nil, nil, nil, nil
	}
}

func buildCache(ctx context.Context, config *Config, zlog *zap.Logger) cache.Cache {
	ttl := cache.DefaultTTL
	backend := "memory"
	if config.Cache != nil {
		if config.Cache.TTLMinutes > 0 {
			ttl = time.Duration(config.Cache.TTLMinutes) * time.Minute
		}
		if config.Cache.Backend != "" {
			backend = strings.ToLower(config.Cache.Backend)
		}
	}

	switch backend {
	case "redis":
		redisCache, err := cache.NewRedis(ctx, config.Cache.RedisURL, ttl, zlog)
		if err != nil {
			zlog.Fatal("connecting to redis", zap.Error(err))
		}
		return redisCache
	case "memory":
		return cache.NewMemory(ttl)
	default:
		zlog.Fatal("unsupported cache backend", zap.String("backend", backend))
		return nil
	}
}

// buildPrimary selects the generative strategy when a provider credential is
// configured and loads, the heuristic otherwise. The selection is made once,
// here, so every later failure is a fallback rather than a re-selection.
func buildPrimary(ctx context.Context, config *Config, resultCache cache.Cache, heuristic matching.Strategy, zlog *zap.Logger) matching.Strategy {
	ai := config.AI
	if ai == nil || !ai.Enabled {
		zlog.Info("ai matching disabled, heuristic strategy is primary")
		return heuristic
	}

	provider := strings.TrimSpace(strings.ToLower(ai.Provider))
	if provider != "" && provider != "gemini" {
		zlog.Fatal("unsupported ai provider", zap.String("provider", ai.Provider))
	}
	if ai.Gemini == nil {
		zlog.Fatal("gemini configuration is required when ai matching is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: ai.Gemini.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		zlog.Info("no ai credential, heuristic strategy is primary", zap.Error(err))
		return heuristic
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, ai.Gemini.Model, ai.Gemini.MaxRetries, zlog.With(
		zap.String("provider", "gemini"),
		zap.String("model", ai.Gemini.Model),
	))
	if err != nil {
		zlog.Fatal("building gemini generator", zap.Error(err))
	}

	timeout := time.Duration(ai.Gemini.TimeoutSeconds) * time.Second
	generative, err := matching.NewGenerative(generator, resultCache, timeout, ai.Gemini.MaxLogLength, zlog)
	if err != nil {
		zlog.Fatal("building generative strategy", zap.Error(err))
	}

	zlog.Info("generative strategy is primary", zap.String("model", generator.Model()))
	return generative
}
