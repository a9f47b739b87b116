package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"chessclub-bot/internal/bot"
	"chessclub-bot/internal/common/logger"
	"chessclub-bot/internal/config"
	domainaccess "chessclub-bot/internal/domain/access"
	apihttp "chessclub-bot/internal/http"
	"chessclub-bot/internal/metrics"
	redisp "chessclub-bot/internal/platform/redis"
	"chessclub-bot/internal/platform/telegram"
	"chessclub-bot/internal/repository/jsonfile"
	redisrepo "chessclub-bot/internal/repository/redis"
	accesssvc "chessclub-bot/internal/service/access"
	adminsvc "chessclub-bot/internal/service/admin"
	broadcastsvc "chessclub-bot/internal/service/broadcast"
	"chessclub-bot/internal/service/registration"
	statssvc "chessclub-bot/internal/service/stats"
	usersvc "chessclub-bot/internal/service/user"
)

// @title           Chess Club Bot Admin API
// @version         1.0
// @description     Operational and admin API of the chess club Telegram bot. Admin endpoints require Telegram Mini App init data from an administrator.

// @BasePath  /api/v1

// @securityDefinitions.apikey TelegramInitData
// @in header
// @name X-Telegram-Init-Data
// @description Telegram Mini App init data

// @tag.name admin
// @tag.description Community statistics, membership and broadcasts

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	level := cfg.LogLevel
	if cfg.Debug {
		level = "debug"
	}
	closeLog, err := logger.Init(logger.Options{Service: "chessclub-bot", Level: level, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error().Err(err).Msg("bot stopped with error")
		_ = closeLog()
		os.Exit(1)
	}
	logger.Info().Msg("bot exited")
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Named("main")
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	registry := metrics.NewRegistry()
	m := metrics.NewMetrics(registry)

	var rdb *redisp.Client
	if cfg.RedisEnabled() {
		openCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		client, err := redisp.Open(openCtx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		cancel()
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close()
		rdb = client
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")
	}

	users := usersvc.NewService(
		jsonfile.NewProfileRepository(cfg.ProfilesPath()),
		jsonfile.NewActivityRepository(cfg.ActivityPath()),
		usersvc.WithMetrics(m),
		usersvc.WithLogger(logger.Named("users")),
	)
	users.Load(ctx)

	var accessStore domainaccess.Store
	switch cfg.Access.Backend {
	case config.AccessBackendRedis:
		accessStore = redisrepo.NewAccessRepository(rdb.Cmdable(), "")
	default:
		accessStore = jsonfile.NewAccessRepository(cfg.AccessPath())
	}
	acc := accesssvc.Bootstrap(ctx, cfg.Telegram.AdminIDs, accessStore, logger.Named("access"))
	log.Info().
		Str("backend", cfg.Access.Backend).
		Ints64("admins", acc.Admins()).
		Int("banned", len(acc.Banned())).
		Msg("access lists loaded")

	tg := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.APIURL, logger.Named("telegram"))
	if me, err := tg.GetMe(ctx); err != nil {
		log.Warn().Err(err).Msg("getMe failed, continuing")
	} else {
		log.Info().Str("username", me.Username).Int64("id", me.ID).Msg("bot identity")
	}
	delivery := bot.NewDelivery(tg)

	adminService := adminsvc.NewService(acc, users, delivery, logger.Named("admin"))
	broadcastService := broadcastsvc.NewService(users, acc, delivery, m, logger.Named("broadcast"))
	statsService := statssvc.NewService(users, acc)

	router := bot.NewRouter(bot.Deps{
		Users:        users,
		Access:       acc,
		Registration: registration.NewService(users, m, logger.Named("registration")),
		Admin:        adminService,
		Broadcast:    broadcastService,
		Stats:        statsService,
		Metrics:      m,
		Logger:       logger.Named("router"),
		LogFile:      cfg.LogFile,
		Now:          time.Now,
	})
	poller := bot.NewPoller(tg, router, cfg.Telegram.PollTimeout, logger.Named("poller"))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Start(ctx)
	}()

	var server *http.Server
	serverErr := make(chan error, 1)
	if cfg.HTTP.Addr != "" {
		engine := apihttp.NewRouter(apihttp.Deps{
			Access:         acc,
			Admin:          adminService,
			Broadcast:      broadcastService,
			Stats:          statsService,
			Metrics:        m,
			Registry:       registry,
			Redis:          rdb,
			Logger:         logger.Named("http"),
			DataDir:        cfg.Storage.DataDir,
			BotToken:       cfg.Telegram.BotToken,
			InitDataTTL:    cfg.HTTP.InitDataTTL,
			AllowedOrigins: cfg.HTTP.CORSAllowedOrigins,
			Debug:          cfg.Debug,
		})
		server = apihttp.NewServer(cfg.HTTP.Addr, engine)
		go func() {
			log.Info().Str("addr", cfg.HTTP.Addr).Msg("starting HTTP server")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-serverErr:
		runErr = fmt.Errorf("http server: %w", err)
	}

	cancel()
	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server forced to shutdown")
		}
	}
	wg.Wait()
	return runErr
}
