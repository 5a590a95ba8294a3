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

	"github.com/erpsystem/doccheck/handlers"
	"github.com/erpsystem/doccheck/internal/config"
	"github.com/erpsystem/doccheck/internal/database"
	"github.com/erpsystem/doccheck/internal/oidc"
	"github.com/erpsystem/doccheck/internal/reports"
	"github.com/erpsystem/doccheck/internal/shop"
	"github.com/erpsystem/doccheck/internal/verify"
	"github.com/erpsystem/doccheck/pkg/logger"
	"github.com/erpsystem/doccheck/pkg/metrics"
	"github.com/erpsystem/doccheck/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

var startTime = time.Now()

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: shop=%s keycloak=%v mongo=%v redis=%v", cfg.Shop.GraphQLURL, cfg.Keycloak.URL != "", cfg.MongoDB.URI != "", cfg.Redis.Host != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(cors(), gin.Logger(), gin.Recovery())

	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			_ = rdb.Close()
			rdb = nil
		} else {
			logger.Infof("connected to Redis: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
			defer rdb.Close()
		}
	}

	// run archive: MongoDB when reachable, otherwise in memory
	var repo reports.Repository = reports.NewMemoryRepo()
	mongoOK := false
	if cfg.MongoDB.URI != "" {
		client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5, time.Second)
		if err != nil {
			logger.Warnf("%v; archiving runs in memory", err)
		} else {
			defer func() { _ = client.Disconnect(context.Background()) }()
			mr, err := reports.NewMongoRepo(ctx, client.Database(cfg.MongoDB.Database).Collection(reports.CollectionName))
			if err != nil {
				logger.Warnf("%v; archiving runs in memory", err)
			} else {
				repo = mr
				mongoOK = true
			}
		}
	}
	var cache reports.Cache
	if rdb != nil {
		cache = reports.NewLatestCache(rdb, "", cfg.Redis.LatestTTL)
	}
	store := reports.NewService(repo, cache)

	verifier, err := oidc.NewFromConfig(ctx, cfg.Keycloak)
	oidcConfigured := !errors.Is(err, oidc.ErrNotConfigured)
	if err != nil && oidcConfigured {
		logger.Errorf("failed to initialize OIDC verifier: %v", err)
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	r.GET("/ready", func(c *gin.Context) {
		deps := gin.H{
			"archive": mongoOK || cfg.MongoDB.URI == "",
			"oidc":    verifier != nil || !oidcConfigured,
			"redis":   rdb != nil || cfg.Redis.Host == "",
		}
		status, code := "ready", http.StatusOK
		for _, ok := range deps {
			if !ok.(bool) {
				status, code = "not_ready", http.StatusServiceUnavailable
			}
		}
		c.JSON(code, gin.H{"status": status, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	handlers.RegisterSwagger(r)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	switch {
	case verifier != nil:
		api.Use(middleware.AuthMiddleware(verifier))
	case oidcConfigured:
		api.Use(func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "authentication unavailable"})
		})
	default:
		logger.Warn("OIDC not configured; verification API is unauthenticated")
	}
	if cfg.RateLimit.Enabled {
		// after auth so authenticated callers are limited per subject
		if cfg.RateLimit.UseRedis && rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			api.Use(middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			api.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	shopClient := shop.NewFromConfig(cfg.Shop)
	defaults := verify.ConfigFrom(cfg)
	defaults.OrderID = ""
	factory := func(vc verify.Config) (handlers.Runner, error) {
		return verify.NewRunner(vc, shopClient)
	}
	handlers.NewVerificationHandler(defaults, factory, store).Register(api)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("starting doccheck service on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}

// cors is a permissive CORS policy for dev and test setups.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}
