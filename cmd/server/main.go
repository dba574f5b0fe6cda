package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/timonlabs/studyshare/internal/auth"
	"github.com/timonlabs/studyshare/internal/config"
	"github.com/timonlabs/studyshare/internal/content"
	"github.com/timonlabs/studyshare/internal/middleware"
	"github.com/timonlabs/studyshare/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}
	if cfg.PostgresDSN == "" {
		log.Fatal("POSTGRES_DSN must be set")
	}

	// ── PostgreSQL ────────────────────────────────────────────
	pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("postgres connect: %v", err)
	}
	defer pgPool.Close()
	users := store.NewPostgresStore(pgPool)
	if err := users.Migrate(ctx); err != nil {
		log.Fatalf("postgres migrate: %v", err)
	}

	// ── MongoDB ──────────────────────────────────────────────
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}
	defer mongoClient.Disconnect(ctx)
	contents := store.NewMongoStore(mongoClient.Database(cfg.MongoDB))

	// ── Redis ────────────────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connect: %v", err)
	}
	defer rdb.Close()
	revoked := auth.NewRevocationStore(rdb)

	// ── File storage ─────────────────────────────────────────
	var files content.FileStore
	if cfg.MinioEndpoint != "" {
		files, err = store.NewMinioStore(
			ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
			cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
		)
		if err != nil {
			log.Fatalf("minio connect: %v", err)
		}
	} else {
		files = store.NewDiskStore(cfg.UploadDir)
	}

	// ── Handlers ─────────────────────────────────────────────
	tokens := auth.NewTokenService([]byte(cfg.JWTSecret))
	authHandler := auth.NewHandler(users, tokens, revoked)
	contentHandler := content.NewHandler(contents, files)

	if err := auth.SeedDefaultUsers(ctx, users, cfg.SeedAdminPassword, cfg.SeedUserPassword); err != nil {
		log.Fatalf("seed users: %v", err)
	}

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.With(middleware.RequireAuth(tokens, revoked)).Get("/me", authHandler.Me)

		r.Get("/content", contentHandler.List)
		r.Get("/content/{id}", contentHandler.Get)
		r.Get("/download/{id}", contentHandler.Download)

		// Admin-only writes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(tokens, revoked))
			r.Use(middleware.RequireAdmin)
			r.Post("/content", contentHandler.Create)
			r.Post("/content/upload", contentHandler.Upload)
			r.Put("/content/{id}", contentHandler.Update)
			r.Delete("/content/{id}", contentHandler.Delete)
		})
	})

	// Uploaded files are also browsable directly when stored on disk.
	if cfg.MinioEndpoint == "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))
	}

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
	}

	go func() {
		log.Printf("Backend listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}
