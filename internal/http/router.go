package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/taskhub/taskhub/internal/auth"
	"github.com/taskhub/taskhub/internal/cache"
	"github.com/taskhub/taskhub/internal/config"
	"github.com/taskhub/taskhub/internal/http/handlers"
	"github.com/taskhub/taskhub/internal/http/middlewares"
	"github.com/taskhub/taskhub/internal/observability"
	"github.com/taskhub/taskhub/internal/repo/postgres"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// NewRouter wires middleware, repositories and handlers into the full API
// surface. rdb may be nil; rate limiting then falls back to an in-process
// counter.
func NewRouter(log *slog.Logger, pool *pgxpool.Pool, cfg config.Config, rdb *redis.Client) *gin.Engine {
	if cfg.Env != "dev" && cfg.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(reg)

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(middlewares.RequireJSON())
	r.Use(prom.GinHandleMiddleware())
	r.Use(otelgin.Middleware("taskhub"))

	// ops surface

	health := handlers.NewHealthHandler(pool)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	r.GET("/swagger", handlers.SwaggerUI)
	r.StaticFile("/docs/openapi.yaml", "./docs/openapi.yaml")

	// repositories

	usersRepo := postgres.NewUsersRepo(pool, prom)
	projectsRepo := postgres.NewProjectsRepo(pool, prom)
	tasksRepo := postgres.NewTasksRepo(pool, prom)
	statsRepo := postgres.NewStatsRepo(pool, prom)

	// handlers

	jwtManager := auth.NewManager(cfg.JWTSecret, time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute)
	directoryCache := cache.New(30 * time.Second)
	authHandler := handlers.NewAuthHandler(usersRepo, usersRepo, jwtManager, directoryCache)
	usersHandler := handlers.NewUsersHandler(usersRepo, directoryCache)
	projectsHandler := handlers.NewProjectsHandler(projectsRepo, usersRepo)
	collaboratorsHandler := handlers.NewCollaboratorsHandler(projectsRepo, usersRepo)
	tasksHandler := handlers.NewTasksHandler(tasksRepo, projectsRepo, usersRepo)
	statsHandler := handlers.NewStatsHandler(statsRepo)

	authMW := middlewares.NewAuthMiddleware(jwtManager)

	// brute-force protection on credential endpoints only
	var limiter middlewares.Limiter

	if rdb != nil {
		limiter = middlewares.NewRedisLimiter(rdb, "rl:auth", 20, time.Minute)
	} else {
		limiter = middlewares.NewRateLimiter(20, time.Minute)
	}

	authLimit := middlewares.RateLimiterMiddleware(limiter, middlewares.KeyByIP)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", authLimit, authHandler.Register)
	authGroup.POST("/login", authLimit, authHandler.Login)
	authGroup.GET("/profile", authMW.RequireAuth(), authHandler.Profile)

	protected := api.Group("")
	protected.Use(authMW.RequireAuth())

	protected.GET("/users", usersHandler.ListUsers)
	protected.GET("/users/:id", usersHandler.GetUser)

	protected.POST("/projects", projectsHandler.CreateProject)
	protected.GET("/projects", projectsHandler.ListProjects)
	protected.GET("/projects/:id", projectsHandler.GetProject)
	protected.PUT("/projects/:id", projectsHandler.UpdateProject)
	protected.DELETE("/projects/:id", projectsHandler.DeleteProject)

	protected.GET("/projects/:id/collaborators", collaboratorsHandler.ListCollaborators)
	protected.POST("/projects/:id/collaborators", collaboratorsHandler.AddCollaborator)
	protected.POST("/projects/:id/collaborators/bulk", collaboratorsHandler.AddCollaborators)
	protected.DELETE("/projects/:id/collaborators", collaboratorsHandler.RemoveCollaborator)

	protected.POST("/tasks", tasksHandler.CreateTask)
	protected.GET("/tasks", tasksHandler.ListTasks)
	protected.GET("/tasks/:id", tasksHandler.GetTask)
	protected.PUT("/tasks/:id", tasksHandler.UpdateTask)
	protected.DELETE("/tasks/:id", tasksHandler.DeleteTask)

	protected.GET("/stats", statsHandler.GetStats)

	log.Debug("router initialized", "env", cfg.Env, "redis_rate_limit", rdb != nil)

	return r
}
