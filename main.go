package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/tsldata/dataserver/handlers"
	"github.com/tsldata/dataserver/internal/config"
	"github.com/tsldata/dataserver/internal/database"
	"github.com/tsldata/dataserver/internal/document/handler"
	"github.com/tsldata/dataserver/internal/document/repository"
	"github.com/tsldata/dataserver/internal/document/service"
	"github.com/tsldata/dataserver/internal/storage"
	"github.com/tsldata/dataserver/pkg/logger"
	"github.com/tsldata/dataserver/pkg/metrics"
	"github.com/tsldata/dataserver/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel)
	logger.Infof("config loaded: backend=%s redis=%v rate_limit=%v", cfg.Store.Backend, cfg.Redis.Host != "", cfg.RateLimit.Enabled)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s): %v", cfg.Redis.Addr(), err)
		} else {
			logger.Infof("connected to Redis at %s", cfg.Redis.Addr())
		}
	}

	repo, closeRepo, err := newRepository(ctx, cfg, redisClient)
	if err != nil {
		return err
	}
	defer closeRepo()
	svc := service.NewService(repo)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// Permissive CORS: the data is read by bots and dashboards on other origins.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})
	r.Use(gin.Logger(), gin.Recovery())

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	deps := map[string]handlers.ReadyFunc{"store": svc.Ready}
	if cfg.RateLimit.Enabled && cfg.RateLimit.UseRedis && redisClient != nil {
		deps["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	handlers.RegisterHealth(r, startTime, deps)
	handlers.RegisterSwagger(r)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler.RegisterDocumentRoutes(r, svc, handler.Options{MaxBodyBytes: cfg.Server.MaxBodyBytes})

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("starting data server on %s (backend=%s)", addr, cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Warnf("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Infof("http server stopped")
	return nil
}

// newRepository builds the configured store backend. The returned func
// releases backend clients.
func newRepository(ctx context.Context, cfg *config.Config, redisClient *redis.Client) (repository.Repository, func(), error) {
	noop := func() {}
	switch cfg.Store.Backend {
	case config.BackendRedis:
		if redisClient == nil {
			return nil, noop, errors.New("redis backend selected but no Redis client")
		}
		return repository.NewRedisRepo(redisClient, cfg.Redis.Prefix), noop, nil

	case config.BackendMongo:
		client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5)
		if err != nil {
			return nil, noop, err
		}
		col := client.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.Collection)
		return repository.NewMongoRepo(col), func() { _ = client.Disconnect(context.Background()) }, nil

	case config.BackendMinIO:
		st, err := storage.NewMinIOStorage(ctx, &cfg.MinIO)
		if err != nil {
			return nil, noop, err
		}
		repo, err := repository.NewObjectRepo(ctx, st, cfg.MinIO.Prefix)
		if err != nil {
			return nil, noop, err
		}
		return repo, noop, nil
	}

	logger.Infof("using in-memory store; contents are lost on restart, re-run the export to repopulate")
	return repository.NewMemoryRepo(), noop, nil
}
