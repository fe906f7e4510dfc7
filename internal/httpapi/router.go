package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"

	"lingo_gateway/internal/accounting"
	"lingo_gateway/internal/auth"
	"lingo_gateway/internal/cache"
	"lingo_gateway/internal/config"
	"lingo_gateway/internal/features"
	"lingo_gateway/internal/gateway"
	"lingo_gateway/internal/history"
	"lingo_gateway/internal/logging"
	"lingo_gateway/internal/middleware"
	"lingo_gateway/internal/providers"
	"lingo_gateway/internal/queue"
	"lingo_gateway/internal/ratelimit"
	"lingo_gateway/internal/storage"
	"lingo_gateway/internal/utils"
)

// Dependencies aggregates all services the HTTP layer needs.
type Dependencies struct {
	Catalog      *features.Catalog
	Orchestrator *gateway.Orchestrator
	Cache        cache.Store
	Ledger       accounting.Accountant
	History      history.Recorder
	Worker       *history.Worker
	Archive      logging.Sink
	APIKeys      *auth.APIKeyStore
	JWTSecret    []byte

	client      providers.Client
	db          *storage.DB
	redisClient *redis.Client
	sink        *logging.BufferedSink
	logger      *utils.Logger
}

// NewRouter wires up all services from configuration and returns the router.
// Redis and Postgres are both optional: without them the gateway runs on its
// in-memory stores.
func NewRouter(cfg *config.Config) (*http.ServeMux, *Dependencies, error) {
	logger := utils.NewLogger("router")
	deps := &Dependencies{
		Catalog:   features.NewCatalog(),
		APIKeys:   auth.NewAPIKeyStore(cfg.APIKeys),
		JWTSecret: cfg.JWTSecret,
		logger:    logger,
	}

	useRedis := cfg.Redis.Address != ""
	if useRedis {
		client, err := storage.NewRedisClient(cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Redis: %w", err)
		}
		deps.redisClient = client
	}

	// Response cache and usage ledger follow the Redis availability.
	if useRedis {
		deps.Cache = cache.NewRedisStore(deps.redisClient)
		deps.Ledger = accounting.NewRedisLedger(deps.redisClient)
	} else {
		deps.Cache = cache.NewMemoryStore(cfg.Cache.MaxEntries)
		deps.Ledger = accounting.NewLedger()
	}

	// History: Postgres when configured, bounded ring otherwise. Durable
	// writes go through the queue worker so the request path never waits on
	// the database.
	if cfg.Database.URL != "" {
		db, err := storage.NewDB(cfg.Database)
		if err != nil {
			deps.Close()
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		deps.db = db

		repo := history.NewRepository(db, cfg.History.PageSize)
		queueCfg := queue.DefaultConfig("history")

		var q queue.Queue
		var dlq queue.DeadLetter
		if useRedis {
			q = queue.NewRedisQueue(deps.redisClient, queueCfg)
			dlq = queue.NewRedisDeadLetter(deps.redisClient, queueCfg)
		} else {
			q = queue.NewMemoryQueue(queueCfg)
			dlq = queue.NewMemoryDeadLetter()
		}

		deps.Worker = history.NewWorker(q, dlq, repo, queueCfg)
		deps.Worker.Start(context.Background())
		deps.History = history.NewAsyncRecorder(deps.Worker, repo)
	} else {
		deps.History = history.NewRing(cfg.History.Capacity, cfg.History.PageSize)
	}

	// Provider client and the retry policy around it.
	client, err := providers.NewOpenAIClient(providers.OpenAIConfig{
		APIKey:  cfg.Provider.APIKey,
		BaseURL: cfg.Provider.BaseURL,
		Timeout: cfg.Provider.RequestTimeout,
	})
	if err != nil {
		deps.Close()
		return nil, nil, fmt.Errorf("failed to initialize provider client: %w", err)
	}
	deps.client = client

	retryer := gateway.NewRetryer(cfg.Retry.MaxAttempts, gateway.LinearBackoff(cfg.Retry.BaseDelay))
	deps.Orchestrator = gateway.New(
		deps.Catalog, deps.Cache, client, retryer, deps.Ledger, deps.History,
		gateway.Options{
			TTLShort:       cfg.Cache.TTLShort,
			TTLLong:        cfg.Cache.TTLLong,
			RecordFailures: cfg.History.RecordFailures,
		},
	)

	// S3 archive sink, when enabled.
	deps.Archive = logging.NewNoopSink()
	if cfg.Archive.Enabled && cfg.Archive.S3Bucket != "" {
		writer, err := logging.NewS3Writer(context.Background(),
			cfg.Archive.S3Bucket, cfg.Archive.S3Region, cfg.Archive.S3Prefix, cfg.Archive.PodName)
		if err != nil {
			deps.Close()
			return nil, nil, fmt.Errorf("failed to initialize archive writer: %w", err)
		}
		deps.sink = logging.NewBufferedSink(writer,
			cfg.Archive.BufferSize, cfg.Archive.FlushSize, cfg.Archive.FlushInterval)
		deps.Archive = deps.sink
	}

	// Per-key rate limiting needs Redis; without it the limiter is a noop.
	var limiter ratelimit.Limiter = ratelimit.NewNoopLimiter()
	if useRedis && cfg.RateLimit.PerMinute > 0 {
		limiter = ratelimit.NewRateLimiter(deps.redisClient, cfg.RateLimit.PerMinute)
	}

	mux := http.NewServeMux()
	registerRoutes(mux, deps, limiter)
	return mux, deps, nil
}

func registerRoutes(mux *http.ServeMux, deps *Dependencies, limiter ratelimit.Limiter) {
	apiKey := middleware.APIKeyMiddleware(deps.APIKeys)
	rateLimit := middleware.RateLimitMiddleware(limiter)
	adminJWT := middleware.AdminJWTMiddleware(deps.JWTSecret)

	protect := func(h http.HandlerFunc) http.Handler {
		return apiKey(rateLimit(h))
	}

	mux.Handle("/v1/generate", protect(deps.handleGenerate))
	mux.Handle("/v1/features", protect(deps.handleFeatures))
	mux.Handle("/v1/history", protect(deps.handleHistory))
	mux.Handle("/v1/usage", protect(deps.handleUsage))

	mux.Handle("/admin/auth/token", apiKey(http.HandlerFunc(deps.handleAdminToken)))
	mux.Handle("/admin/history", adminJWT(http.HandlerFunc(deps.handleAdminHistory)))
	mux.Handle("/admin/cache", adminJWT(http.HandlerFunc(deps.handleAdminCache)))
	mux.Handle("/admin/usage/reset", adminJWT(http.HandlerFunc(deps.handleAdminUsageReset)))
	mux.Handle("/admin/deadletters", adminJWT(http.HandlerFunc(deps.handleAdminDeadLetters)))

	mux.HandleFunc("/health", deps.handleHealth)
}

// handleHealth reports liveness and backend reachability.
func (d *Dependencies) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}
	code := http.StatusOK

	if d.db != nil {
		if err := d.db.Health(r.Context()); err != nil {
			status["database"] = err.Error()
			code = http.StatusServiceUnavailable
		}
	}
	if d.redisClient != nil {
		if err := d.redisClient.Ping(r.Context()).Err(); err != nil {
			status["redis"] = err.Error()
			code = http.StatusServiceUnavailable
		}
	}

	utils.RespondWithJSON(w, code, status)
}

// Close shuts down the workers and backend connections.
func (d *Dependencies) Close() {
	if d.Worker != nil {
		if err := d.Worker.Stop(); err != nil {
			d.logger.Error("Worker shutdown failed", "error", err)
		}
	}
	if d.sink != nil {
		d.sink.Shutdown()
	}
	if d.client != nil {
		d.client.Close()
	}
	if d.db != nil {
		d.db.Close()
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
}
