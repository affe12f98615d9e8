package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/Novicer18/lexadvisor/cache"
	"github.com/Novicer18/lexadvisor/config"
	"github.com/Novicer18/lexadvisor/handlers"
	"github.com/Novicer18/lexadvisor/llm"
	"github.com/Novicer18/lexadvisor/middleware"
	"github.com/Novicer18/lexadvisor/models"
	"github.com/Novicer18/lexadvisor/repository"
	"github.com/Novicer18/lexadvisor/service"
	"github.com/Novicer18/lexadvisor/session"
	"github.com/Novicer18/lexadvisor/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := initPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize Postgres: %v", err)
	}
	defer db.Close()

	rdb := initRedis(cfg)

	store, err := storage.NewStorageFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	docRepo := repository.NewDocumentRepository(db)
	embeddingRepo := repository.NewEmbeddingRepository(db)
	convRepo := repository.NewConversationRepository(db)
	logRepo := repository.NewSystemLogRepository(db)

	// Session store and completion client
	sessions := session.NewStore(cfg.JWTSecret, userRepo, rdb)
	llmClient := llm.NewClient(cfg.CompletionBaseURL, cfg.CompletionAPIKey, cfg.CompletionModel, cfg.CompletionTemperature)

	var msgCache *cache.MessageCache
	if rdb != nil {
		msgCache = cache.NewMessageCache(rdb)
	}

	// Services
	authService := service.NewAuthService(userRepo, sessions, logRepo)
	chatService := service.NewChatService(
		service.ChatWithConversationRepository(convRepo),
		service.ChatWithEmbeddingRepository(embeddingRepo),
		service.ChatWithSystemLogRepository(logRepo),
		service.ChatWithLLMClient(llmClient),
		service.ChatWithMessageCache(msgCache),
		service.ChatWithTopK(cfg.RetrievalTopK),
	)
	docService := service.NewDocumentService(docRepo, store, logRepo)
	adminService := service.NewAdminService(userRepo, logRepo, sessions)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	chatHandler := handlers.NewChatHandler(chatService)
	docHandler := handlers.NewDocumentHandler(docService)
	adminHandler := handlers.NewAdminHandler(adminService)

	r := gin.Default()
	r.Use(corsMiddleware(cfg.FrontendURL))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	api := r.Group("/api")
	{
		api.POST("/auth/signup", authHandler.SignUp)
		api.POST("/auth/signin", authHandler.SignIn)

		authed := api.Group("")
		authed.Use(middleware.Authenticate(sessions))
		{
			authed.POST("/auth/signout", authHandler.SignOut)
			authed.GET("/auth/me", authHandler.Me)

			authed.GET("/conversations", chatHandler.ListConversations)
			authed.GET("/conversations/:id/messages", chatHandler.ListMessages)
			authed.DELETE("/conversations/:id", chatHandler.DeleteConversation)
			authed.POST("/chat", chatHandler.SendMessage)

			authed.GET("/documents", docHandler.ListDocuments)
			authed.GET("/documents/:id/download", docHandler.DownloadDocument)

			staff := authed.Group("")
			staff.Use(middleware.RequireRole(models.RoleAdmin, models.RoleLegalAnalyst))
			{
				staff.POST("/documents", docHandler.UploadDocument)
				staff.POST("/documents/:id/validate", docHandler.ValidateDocument)
			}

			admin := authed.Group("/admin")
			admin.Use(middleware.RequireRole(models.RoleAdmin))
			{
				admin.DELETE("/documents/:id", docHandler.DeleteDocument)
				admin.GET("/users", adminHandler.ListUsers)
				admin.PUT("/users/:id/role", adminHandler.ChangeRole)
				admin.GET("/logs", adminHandler.ListLogs)
			}
		}
	}

	log.Printf("Server starting on port %s", cfg.ServerPort)
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func initPostgres(connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, err
	}

	// Enable pgvector extension
	ctx := context.Background()
	_, err = pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		log.Printf("Warning: Failed to create pgvector extension: %v", err)
		log.Println("This may be normal if extension is already installed or requires superuser privileges")
	} else {
		log.Println("pgvector extension enabled")
	}

	log.Println("Postgres connection established with pgvector support")
	return pool, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Printf("Warning: Redis unreachable, caching disabled: %v", err)
		return nil
	}

	log.Println("Redis connection established")
	return rdb
}

func corsMiddleware(frontendURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := frontendURL
		if origin == "" {
			origin = "*"
		}
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
