package http

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "chessclub-bot/docs"
	mw "chessclub-bot/internal/http/middleware"
	"chessclub-bot/internal/metrics"
	redisp "chessclub-bot/internal/platform/redis"
	accesssvc "chessclub-bot/internal/service/access"
	adminsvc "chessclub-bot/internal/service/admin"
	broadcastsvc "chessclub-bot/internal/service/broadcast"
	statssvc "chessclub-bot/internal/service/stats"
)

const statsCacheTTL = 5 * time.Second

// Deps is everything the HTTP surface needs. Redis may be nil.
type Deps struct {
	Access    *accesssvc.Service
	Admin     *adminsvc.Service
	Broadcast *broadcastsvc.Service
	Stats     *statssvc.Service
	Metrics   *metrics.Metrics
	Registry  *prometheus.Registry
	Redis     *redisp.Client
	Logger    zerolog.Logger

	DataDir        string
	BotToken       string
	InitDataTTL    time.Duration
	AllowedOrigins string
	Debug          bool
}

// NewRouter builds the gin engine with ops endpoints and the admin API.
func NewRouter(d Deps) *gin.Engine {
	if !d.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.RequestID())
	r.Use(mw.Logger(d.Logger, d.Metrics))
	r.Use(mw.Recovery(d.Logger))
	r.Use(cors.New(corsConfig(d.AllowedOrigins)))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().Unix()})
	})
	r.GET("/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "alive"})
	})
	r.GET("/ready", readiness(d))

	if d.Registry != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(d.Registry)))
	}
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	admin := api.Group("/admin")
	admin.Use(mw.InitData(d.BotToken, d.InitDataTTL, d.Logger))
	NewAdminHandler(d).RegisterRoutes(admin)

	return r
}

// NewServer wraps the router in an http.Server with the usual timeouts.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func corsConfig(origins string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", mw.InitDataHeader, mw.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", mw.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	var list []string
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			list = append(list, o)
		}
	}
	if len(list) == 0 || (len(list) == 1 && list[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = list
	}
	return cfg
}

// readiness reports 503 until the data directory is writable and Redis answers.
func readiness(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		checks := gin.H{}
		ready := true

		if err := probeWritable(d.DataDir); err != nil {
			checks["storage"] = "error: " + err.Error()
			ready = false
		} else {
			checks["storage"] = "ok"
		}

		if d.Redis != nil {
			if err := d.Redis.HealthCheck(ctx); err != nil {
				checks["redis"] = "error: " + err.Error()
				ready = false
			} else {
				checks["redis"] = "ok"
			}
		}

		if !ready {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "checks": checks})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "checks": checks})
	}
}

func probeWritable(dir string) error {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".ready-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(filepath.Clean(name))
}
