package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labmesh/labmesh-api/internal/config"
	"github.com/labmesh/labmesh-api/internal/database"
	"github.com/labmesh/labmesh-api/internal/handlers"
	authmw "github.com/labmesh/labmesh-api/internal/middleware"
	"github.com/labmesh/labmesh-api/internal/services"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	if !cfg.IsProduction() {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	userService := services.NewUserService(db)
	tokenService := services.NewTokenService(db)
	projectService := services.NewProjectService(db)
	taskService := services.NewTaskService(db)
	noteService := services.NewNoteService(db)
	fileService := services.NewFileService(db)
	itemService := services.NewResearchItemService(db)
	postService := services.NewPostService(db)
	messageService := services.NewMessageService(db)
	notificationService := services.NewNotificationService(db)
	activityService := services.NewActivityService(db)
	emailService := services.NewEmailService(cfg.SMTP)

	authHandler := handlers.NewAuthHandler(cfg, userService, tokenService, jwtService)
	userHandler := handlers.NewUserHandler(userService)
	projectHandler := handlers.NewProjectHandler(cfg, projectService, userService, notificationService, activityService, emailService)
	taskHandler := handlers.NewTaskHandler(projectService, taskService, activityService)
	noteHandler := handlers.NewNoteHandler(projectService, noteService, activityService)
	fileHandler := handlers.NewFileHandler(projectService, fileService, activityService)
	itemHandler := handlers.NewResearchItemHandler(projectService, itemService, activityService)
	postHandler := handlers.NewPostHandler(postService)
	messageHandler := handlers.NewMessageHandler(projectService, messageService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())
	app.Use(authmw.RequestLogger(logger))

	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Get("/:provider/consent", authHandler.GetConsentURL)
	auth.Get("/:provider/callback", authHandler.Callback)
	auth.Post("/exchange", authHandler.ExchangeCode)
	auth.Post("/refresh", authHandler.RefreshToken)
	auth.Post("/logout", authHandler.Logout)

	protected := api.Group("")
	protected.Use(authmw.Auth(jwtService))

	protected.Post("/auth/logout-all", authHandler.LogoutAll)

	protected.Get("/users/me", userHandler.Me)
	protected.Patch("/users/me", userHandler.UpdateProfile)
	protected.Get("/users/matches", userHandler.Matches)
	protected.Get("/invitations", projectHandler.ListMyInvitations)

	protected.Get("/projects", projectHandler.List)
	protected.Post("/projects", projectHandler.Create)
	protected.Get("/projects/:id", projectHandler.Get)
	protected.Patch("/projects/:id", projectHandler.Update)
	protected.Delete("/projects/:id", projectHandler.Delete)

	protected.Get("/projects/:id/collaborators", projectHandler.ListCollaborators)
	protected.Post("/projects/:id/collaborators", projectHandler.Invite)
	protected.Patch("/projects/:id/collaborators/:userId", projectHandler.UpdateCollaboratorRole)
	protected.Delete("/projects/:id/collaborators/:userId", projectHandler.RemoveCollaborator)
	protected.Post("/projects/:id/invitation", projectHandler.RespondInvitation)
	protected.Post("/projects/:id/leave", projectHandler.Leave)
	protected.Get("/projects/:id/activity", projectHandler.Activity)

	protected.Get("/projects/:id/tasks", taskHandler.List)
	protected.Post("/projects/:id/tasks", taskHandler.Create)
	protected.Get("/projects/:id/tasks/:taskId", taskHandler.Get)
	protected.Patch("/projects/:id/tasks/:taskId", taskHandler.Update)
	protected.Delete("/projects/:id/tasks/:taskId", taskHandler.Delete)

	protected.Get("/projects/:id/notes", noteHandler.List)
	protected.Post("/projects/:id/notes", noteHandler.Create)
	protected.Get("/projects/:id/notes/:noteId", noteHandler.Get)
	protected.Patch("/projects/:id/notes/:noteId", noteHandler.Update)
	protected.Delete("/projects/:id/notes/:noteId", noteHandler.Delete)

	protected.Get("/projects/:id/files", fileHandler.List)
	protected.Post("/projects/:id/files", fileHandler.Register)
	protected.Get("/projects/:id/files/:fileId", fileHandler.Get)
	protected.Delete("/projects/:id/files/:fileId", fileHandler.Delete)

	protected.Get("/projects/:id/items", itemHandler.List)
	protected.Post("/projects/:id/items", itemHandler.Add)
	protected.Patch("/projects/:id/items/:itemId", itemHandler.Update)
	protected.Delete("/projects/:id/items/:itemId", itemHandler.Delete)

	protected.Get("/projects/:id/messages", messageHandler.List)
	protected.Post("/projects/:id/messages", messageHandler.Send)

	protected.Get("/posts", postHandler.List)
	protected.Post("/posts", postHandler.Create)
	protected.Get("/posts/:id", postHandler.Get)
	protected.Patch("/posts/:id", postHandler.Update)
	protected.Delete("/posts/:id", postHandler.Delete)

	protected.Get("/notifications", notificationHandler.List)
	protected.Get("/notifications/unread-count", notificationHandler.UnreadCount)
	protected.Post("/notifications/:id/read", notificationHandler.MarkRead)
	protected.Post("/notifications/read-all", notificationHandler.MarkAllRead)

	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok"})
	})

	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		for range ticker.C {
			_ = tokenService.CleanupExpired(context.Background())
		}
	}()

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		logger.Info().Str("addr", addr).Msg("server starting")
		if err := app.Run(addr); err != nil {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
}
