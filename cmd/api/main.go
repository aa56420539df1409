package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/tientodo/todo-api/docs"
	"github.com/tientodo/todo-api/internal/api"
	"github.com/tientodo/todo-api/internal/config"
	"github.com/tientodo/todo-api/internal/core/service"
	mongodb "github.com/tientodo/todo-api/internal/infrastructure/db/mongo"
	redisdb "github.com/tientodo/todo-api/internal/infrastructure/db/redis"
	"github.com/tientodo/todo-api/internal/infrastructure/queue"
	"github.com/tientodo/todo-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// @title           TienToDo API
// @version         1.0
// @description     Multi-user todo backend with JWT authentication.
// @BasePath        /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})
	log.Info().Str("env", cfg.Env).Msg("starting todo-api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Token service validates the secret up front so a weak or missing
	// JWT_SECRET kills the process before it serves a single request.
	tokenService, err := service.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("token service initialisation failed")
	}

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongodb disconnect failed")
		}
	}()
	log.Info().Str("database", cfg.Mongo.Database).Msg("mongodb connected")

	redisClient, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer redisClient.Close()
	log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")

	userRepo := mongodb.NewUserRepository(db)
	todoRepo := mongodb.NewTodoRepository(db)
	auditRepo := mongodb.NewAuditRepository(db)

	if err := userRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("user index creation failed")
	}
	if err := todoRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("todo index creation failed")
	}

	auditService := service.NewAuditService(auditRepo, log)
	dispatcher := queue.NewDispatcher(0, auditService, log)
	dispatcher.Start(ctx)

	statsCache := redisdb.NewStatsCache(redisClient)

	authService := service.NewAuthService(userRepo, todoRepo, tokenService, dispatcher, log)
	todoService := service.NewTodoService(todoRepo, statsCache, log)

	e := api.NewRouter(api.Dependencies{
		AuthService: authService,
		TodoService: todoService,
		Tokens:      tokenService,
		Resolver:    authService,
		Mongo:       db,
		Redis:       redisClient,
		Logger:      log,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server start failed")
		}
	}()
	log.Info().Str("port", cfg.Port).Msg("todo-api listening")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}
