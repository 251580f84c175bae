package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"

	"github.com/m1z23r/nikode-sync/internal/config"
	"github.com/m1z23r/nikode-sync/internal/crdt"
	"github.com/m1z23r/nikode-sync/internal/database"
	"github.com/m1z23r/nikode-sync/internal/handlers"
	"github.com/m1z23r/nikode-sync/internal/hub"
	authmw "github.com/m1z23r/nikode-sync/internal/middleware"
	"github.com/m1z23r/nikode-sync/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry)
	collectionService := services.NewCollectionService(db)
	documentService := services.NewDocumentService(db, crdt.NewChangeLog())
	groupService := services.NewGroupService(db)

	h := hub.NewHub()
	go h.Run()

	syncHandler := handlers.NewSyncHandler(
		h, collectionService, documentService, groupService,
		jwtService, cfg.SubscribeTimeout, cfg.DispatchBacklog,
	)
	collectionHandler := handlers.NewCollectionHandler(collectionService)
	documentHandler := handlers.NewDocumentHandler(documentService)
	groupHandler := handlers.NewGroupHandler(groupService)

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

	api := app.Group("/api/v1")

	protected := api.Group("")
	protected.Use(authmw.Auth(jwtService))

	protected.Get("/collections", collectionHandler.List)
	protected.Post("/collections", collectionHandler.Create)
	protected.Get("/collections/:collectionId", collectionHandler.Get)
	protected.Delete("/collections/:collectionId", collectionHandler.Delete)

	protected.Get("/documents/:documentId", documentHandler.Get)
	protected.Post("/documents/:documentId/permissions", documentHandler.SetPermission)
	protected.Delete("/documents/:documentId/permissions", documentHandler.UnsetPermission)

	protected.Post("/groups", groupHandler.Create)
	protected.Delete("/groups/:groupId", groupHandler.Delete)
	protected.Post("/groups/:groupId/members", groupHandler.AddMember)
	protected.Delete("/groups/:groupId/members/:userId", groupHandler.RemoveMember)

	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok"})
	})

	api.Get("/sync", syncHandler.Connect)

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Printf("Server starting on %s", addr)
		if err := app.Run(addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
}
