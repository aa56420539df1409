package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tientodo/todo-api/internal/api/handler"
	"github.com/tientodo/todo-api/internal/api/middleware"
	"github.com/tientodo/todo-api/internal/core/ports"
)

// Dependencies carries everything the router needs; main owns construction.
type Dependencies struct {
	AuthService ports.AuthService
	TodoService ports.TodoService
	Tokens      ports.TokenService
	Resolver    ports.UserResolver
	Mongo       *mongo.Database
	Redis       *redis.Client
	Logger      zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("todo"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.AuthService, deps.TodoService)
	todoHandler := handler.NewTodoHandler(deps.TodoService)

	// --- API routes ---
	// The auth middleware consults its public-path table, so the register/
	// login/refresh routes live on the same group and stay exempt.
	api := e.Group("/api", middleware.Auth(deps.Tokens, deps.Resolver, deps.Logger))

	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	api.GET("/auth/me", authHandler.Me)
	api.GET("/auth/me/stats", authHandler.MeStats)
	api.PATCH("/auth/me/email", authHandler.UpdateEmail)
	api.PATCH("/auth/me/password", authHandler.ChangePassword)
	api.DELETE("/auth/me", authHandler.DeleteAccount)

	api.GET("/todos", todoHandler.List)
	api.POST("/todos", todoHandler.Create)
	api.GET("/todos/active", todoHandler.ListActive)
	api.GET("/todos/completed", todoHandler.ListCompleted)
	api.GET("/todos/search", todoHandler.Search)
	api.GET("/todos/:todoId", todoHandler.Get)
	api.PUT("/todos/:todoId", todoHandler.Update)
	api.PATCH("/todos/:todoId/complete", todoHandler.MarkComplete)
	api.DELETE("/todos/:todoId", todoHandler.Delete)

	api.GET("/todos/:todoId/subtasks", todoHandler.Subtasks)
	api.POST("/todos/:todoId/subtasks", todoHandler.CreateSubtask)
	api.PUT("/todos/:todoId/subtasks/:subtaskId", todoHandler.UpdateSubtask)
	api.PATCH("/todos/:todoId/subtasks/:subtaskId/complete", todoHandler.MarkSubtaskComplete)
	api.DELETE("/todos/:todoId/subtasks/:subtaskId", todoHandler.DeleteSubtask)

	// --- Health probes and operational endpoints (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Mongo, deps.Redis)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}
