package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lunarcms/internal/config"
	"lunarcms/internal/features/api_keys"
	"lunarcms/internal/features/content"
	"lunarcms/internal/features/monitoring"
	system_healthcheck "lunarcms/internal/features/system/healthcheck"
	"lunarcms/internal/features/users"
	"lunarcms/internal/storage"
	cache_utils "lunarcms/internal/util/cache"
	env_utils "lunarcms/internal/util/env"
	"lunarcms/internal/util/logger"
	_ "lunarcms/swagger" // swagger docs

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title LunarCMS Backend API
// @version 1.0
// @description Headless CMS backend with API key management and rate limiting

// @host localhost:4010
// @BasePath /api/v1
// @schemes http

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	log := logger.GetLogger()

	cache_utils.TestCacheConnection()

	runMigrations(log)

	err := users.GetUserService().CreateInitialAdmin()
	if err != nil {
		log.Error("Failed to create initial admin", "error", err)
		os.Exit(1)
	}

	handlePasswordReset(log)

	gin.SetMode(gin.ReleaseMode)
	ginApp := gin.Default()

	// Add GZIP compression middleware
	ginApp.Use(gzip.Gzip(
		gzip.DefaultCompression,
		gzip.WithExcludedExtensions(
			[]string{".png", ".gif", ".jpeg", ".jpg", ".ico", ".svg", ".pdf", ".mp4"},
		),
	))

	enableCors(ginApp)
	setUpRoutes(ginApp)

	startServerWithGracefulShutdown(log, ginApp)
}

func startServerWithGracefulShutdown(log *slog.Logger, app *gin.Engine) {
	host := ""
	if config.GetEnv().EnvMode == env_utils.EnvModeDevelopment {
		// for dev we use localhost to avoid firewall
		// requests on each run for Windows
		host = "127.0.0.1"
	}

	srv := &http.Server{
		Addr:    host + ":" + config.GetEnv().ServerPort,
		Handler: app,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("listen:", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("Shutdown signal received")

	// The context is used to inform the server it has 10 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown:", "error", err)
	}

	log.Info("Server gracefully stopped")
}

func setUpRoutes(r *gin.Engine) {
	v1 := r.Group("/api/v1")

	// Mount Swagger UI
	v1.GET("/docs/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Public routes (only user auth routes should be public)
	userController := users.GetUserController()
	userController.RegisterRoutes(v1)
	system_healthcheck.GetHealthcheckController().RegisterRoutes(v1)

	// Setup auth middleware
	userService := users.GetUserService()
	authMiddleware := users.AuthMiddleware(userService)
	keyGuard := api_keys.GetApiKeyMiddleware()

	// Session-protected routes
	protected := v1.Group("")
	protected.Use(authMiddleware)
	userController.RegisterProtectedRoutes(protected)

	adminOnly := v1.Group("")
	adminOnly.Use(authMiddleware, users.RequireRole(users.UserRoleAdmin))
	userController.RegisterAdminRoutes(adminOnly)

	// Key management and security events accept either an ADMIN session
	// or an admin:full API key
	management := v1.Group("")
	management.Use(keyGuard.RequireScope(api_keys.ScopeAdminFull), requireManagementAccess)
	api_keys.GetApiKeyController().RegisterAdminRoutes(management)
	monitoring.GetMonitoringController().RegisterRoutes(management)

	// Any valid API key can introspect itself
	selfService := v1.Group("")
	selfService.Use(keyGuard.RequireScope(""))
	api_keys.GetApiKeyController().RegisterSelfServiceRoutes(selfService)

	// Content routes apply per-route scope guards themselves
	content.RegisterRoutes(v1, keyGuard)
}

// requireManagementAccess runs after the key guard. An admin:full key has
// already proven itself; a session user additionally needs the ADMIN role.
func requireManagementAccess(ctx *gin.Context) {
	if _, isKey := api_keys.GetApiKeyFromContext(ctx); isKey {
		ctx.Next()
		return
	}

	user, isOk := users.GetUserFromContext(ctx)
	if !isOk || !user.CanManageApiKeys() {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		ctx.Abort()
		return
	}

	ctx.Next()
}

func runMigrations(log *slog.Logger) {
	log.Info("Running database migrations...")

	err := storage.GetDb().AutoMigrate(
		&users.User{},
		&users.SecretKey{},
		&api_keys.ApiKey{},
		&monitoring.SecurityEvent{},
		&content.PricingPlan{},
		&content.Feature{},
		&content.Testimonial{},
		&content.FAQ{},
		&content.SiteSetting{},
	)
	if err != nil {
		log.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	log.Info("Database migrations completed successfully")
}

func enableCors(ginApp *gin.Engine) {
	if config.GetEnv().EnvMode == env_utils.EnvModeDevelopment {
		// Setup CORS
		ginApp.Use(cors.New(cors.Config{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
			AllowHeaders: []string{
				"Origin",
				"Content-Length",
				"Content-Type",
				"Authorization",
				"Accept",
				"Accept-Language",
				"Accept-Encoding",
				"Access-Control-Request-Method",
				"Access-Control-Request-Headers",
				"Access-Control-Allow-Methods",
				"Access-Control-Allow-Headers",
				"Access-Control-Allow-Origin",
				"X-API-Key",
			},
			AllowCredentials: true,
		}))
	}
}

func handlePasswordReset(log *slog.Logger) {
	// Handle password reset if flag is provided
	newPassword := flag.String("new-password", "", "Set a new password for the user")
	email := flag.String("email", "", "Email of the user to reset password")

	flag.Parse()

	if *newPassword == "" {
		return
	}

	log.Info("Found reset password command - reseting password...")

	if *email == "" {
		log.Info("No email provided, please provide an email via --email=\"some@email.com\" flag")
		os.Exit(1)
	}

	resetPassword(*email, *newPassword, log)
}

func resetPassword(email string, newPassword string, log *slog.Logger) {
	log.Info("Resetting password...")

	userService := users.GetUserService()
	err := userService.ChangeUserPasswordByEmail(email, newPassword)
	if err != nil {
		log.Error("Failed to reset password", "error", err)
		os.Exit(1)
	}

	log.Info("Password reset successfully")
	os.Exit(0)
}
