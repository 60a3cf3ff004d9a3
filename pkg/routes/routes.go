package routes

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"sa-auth/internal/auth"
	"sa-auth/internal/config"
	"sa-auth/internal/formation"
	"sa-auth/internal/notification"
	"sa-auth/internal/specialty"
	"sa-auth/internal/system"
	"sa-auth/internal/users"
	"sa-auth/pkg/middleware"
)

var Module = fx.Module("server",
	fx.Provide(
		config.NewAppConfig,
		config.NewLogger,
		config.NewMongoDBConfig,
		config.NewMongoDBClient,
		config.NewRedisConfig,
		config.NewRedisClient,

		auth.NewPasswordHasher,
		auth.NewSessionStore,
		newTokenService,
		newSigner,
		notification.NewNotifier,

		users.NewRepository,
		formation.NewRepository,
		specialty.NewRepository,
		system.NewRepository,

		newUserService,
		newFormationService,
		newSpecialtyService,
		newSystemService,

		users.NewHandler,
		formation.NewHandler,
		specialty.NewHandler,
		system.NewHandler,

		NewEchoServer,
	),
	fx.Invoke(RegisterRoutes))

func newTokenService(cfg *config.AppConfig) *auth.TokenService {
	return auth.NewTokenService(cfg.JWTKey)
}

func newSigner(cfg *config.AppConfig) (*notification.Signer, error) {
	return notification.NewSigner(cfg.SigningKeyPEM)
}

// Services declare their collaborators as interfaces; these constructors
// bind the concrete implementations for the container.
func newUserService(
	repo *users.Repository,
	hasher *auth.PasswordHasher,
	tokens *auth.TokenService,
	sessions *auth.SessionStore,
	notifier *notification.Notifier,
	logger *zap.Logger,
) *users.Service {
	return users.NewService(repo, hasher, tokens, sessions, notifier, logger)
}

func newFormationService(repo *formation.Repository, notifier *notification.Notifier, logger *zap.Logger) *formation.Service {
	return formation.NewService(repo, notifier, logger)
}

func newSpecialtyService(repo *specialty.Repository, notifier *notification.Notifier, logger *zap.Logger) *specialty.Service {
	return specialty.NewService(repo, notifier, logger)
}

func newSystemService(repo *system.Repository, notifier *notification.Notifier, logger *zap.Logger) *system.Service {
	return system.NewService(repo, notifier, logger)
}

func NewEchoServer(lc fx.Lifecycle, cfg *config.AppConfig, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: true,
	}))

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
					logger.Fatal("start server", zap.Error(err))
				}
			}()
			logger.Info("server listening", zap.String("port", cfg.Port))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting down server")
			return e.Shutdown(ctx)
		},
	})
	return e
}

func RegisterRoutes(
	e *echo.Echo,
	tokens *auth.TokenService,
	sessions *auth.SessionStore,
	userHandler *users.Handler,
	formationHandler *formation.Handler,
	specialtyHandler *specialty.Handler,
	systemHandler *system.Handler,
) {
	api := e.Group("/api/v1")

	api.GET("/ping", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"statusCode": http.StatusOK, "data": "pong"})
	})
	api.POST("/users/login", userHandler.Login)
	api.PUT("/user/refresh", userHandler.Refresh)

	authn := middleware.Authenticate(tokens, sessions)
	perm := func(p users.Permission) []echo.MiddlewareFunc {
		return []echo.MiddlewareFunc{authn, middleware.RequirePermission(p)}
	}

	api.POST("/users/signup", userHandler.Signup, perm(users.PermAuthSignup)...)
	api.POST("/users/signup-many", userHandler.SignupMany, perm(users.PermAuthSignup)...)
	api.POST("/users/logout", userHandler.Logout, perm(users.PermAuthLogout)...)
	api.GET("/user/get", userHandler.Get, perm(users.PermAuthGetUser)...)
	api.GET("/users/get", userHandler.GetMany, perm(users.PermAuthGetUsers)...)
	api.GET("/user/get-all-users", userHandler.GetAll, perm(users.PermAuthGetAllUsers)...)
	api.PUT("/user/edit", userHandler.Edit, perm(users.PermAuthEditUser)...)
	api.PUT("/users/edit", userHandler.EditMany, perm(users.PermAuthEditUsers)...)
	api.DELETE("/user/delete", userHandler.Delete, perm(users.PermAuthDeleteUser)...)
	api.DELETE("/users/delete", userHandler.DeleteMany, perm(users.PermAuthDeleteUsers)...)
	api.DELETE("/user/destroy", userHandler.Destroy, perm(users.PermAuthDestroyUser)...)
	api.DELETE("/users/destroy", userHandler.DestroyMany, perm(users.PermAuthDestroyUsers)...)
	api.PUT("/user/block", userHandler.Block, perm(users.PermAuthBlockUser)...)
	api.PUT("/users/block", userHandler.BlockMany, perm(users.PermAuthBlockUsers)...)

	api.POST("/formation/add", formationHandler.Add, perm(users.PermFormationAdd)...)
	api.POST("/formations/add", formationHandler.AddMany, perm(users.PermFormationAddMany)...)
	api.POST("/formation/add-positions", formationHandler.AddPositions, perm(users.PermFormationAddPositions)...)
	api.DELETE("/formation/delete-positions", formationHandler.DeletePositions, perm(users.PermFormationDeletePositions)...)
	api.PUT("/formation/edit-position", formationHandler.EditPosition, perm(users.PermFormationEditPosition)...)
	api.PUT("/formation/edit", formationHandler.Edit, perm(users.PermFormationEdit)...)
	api.DELETE("/formation/delete", formationHandler.Delete, perm(users.PermFormationDelete)...)
	api.DELETE("/formations/delete", formationHandler.DeleteMany, perm(users.PermFormationDeleteMany)...)
	api.GET("/formation/get", formationHandler.Get, perm(users.PermFormationGet)...)
	api.GET("/formations/get", formationHandler.GetMany, perm(users.PermFormationGetMany)...)
	api.GET("/formations/get-all", formationHandler.GetAll, perm(users.PermFormationGetAll)...)

	api.POST("/specialty/add", specialtyHandler.Add, perm(users.PermSpecialtyAdd)...)
	api.POST("/specialties/add", specialtyHandler.AddMany, perm(users.PermSpecialtyAddMany)...)
	api.PUT("/specialty/edit", specialtyHandler.Edit, perm(users.PermSpecialtyEdit)...)
	api.DELETE("/specialty/delete", specialtyHandler.Delete, perm(users.PermSpecialtyDelete)...)
	api.DELETE("/specialties/delete", specialtyHandler.DeleteMany, perm(users.PermSpecialtyDeleteMany)...)
	api.GET("/specialty/get", specialtyHandler.Get, perm(users.PermSpecialtyGet)...)
	api.GET("/specialties/get", specialtyHandler.GetMany, perm(users.PermSpecialtyGetMany)...)
	api.GET("/specialties/get-all", specialtyHandler.GetAll, perm(users.PermSpecialtyGetAll)...)

	api.POST("/system/add", systemHandler.Add, perm(users.PermSystemAdd)...)
	api.POST("/systems/add", systemHandler.AddMany, perm(users.PermSystemAddMany)...)
	api.PUT("/system/refresh-token", systemHandler.RefreshToken, perm(users.PermSystemRefreshToken)...)
	api.PUT("/system/edit", systemHandler.Edit, perm(users.PermSystemEdit)...)
	api.DELETE("/system/delete", systemHandler.Delete, perm(users.PermSystemDelete)...)
	api.DELETE("/systems/delete", systemHandler.DeleteMany, perm(users.PermSystemDeleteMany)...)
	api.GET("/system/get", systemHandler.Get, perm(users.PermSystemGet)...)
	api.GET("/systems/get", systemHandler.GetMany, perm(users.PermSystemGetMany)...)
	api.GET("/systems/get-all", systemHandler.GetAll, perm(users.PermSystemGetAll)...)
}
