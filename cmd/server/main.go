// cmd/server/main.go
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
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authservice "feedhunt/internal/auth/service"
	authhttp "feedhunt/internal/auth/transport/http"
	"feedhunt/internal/config"
	followrepository "feedhunt/internal/follow/repository"
	followservice "feedhunt/internal/follow/service"
	followhttp "feedhunt/internal/follow/transport/http"
	"feedhunt/internal/metrics"
	postrepository "feedhunt/internal/post/repository"
	postservice "feedhunt/internal/post/service"
	posthttp "feedhunt/internal/post/transport/http"
	tokenrepository "feedhunt/internal/token/repository"
	userrepository "feedhunt/internal/user/repository"
	"feedhunt/migrations"
	"feedhunt/pkg/db"
	"feedhunt/pkg/middleware"
)

var server *http.Server

func main() {
	log.Println("Feedhunt API starting...")
	cfg := config.Load()

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Database connected")

	if err := db.Migrate(context.Background(), database, migrations.Files); err != nil {
		log.Fatalf("Migrations failed: %v", err)
	}
	log.Println("Migrations applied")

	metrics.InitMetrics()

	// --- ИНИЦИАЛИЗАЦИЯ СЛОЁВ ---
	userRepo := userrepository.NewPostgresUserRepository(database)
	credentialRepo := tokenrepository.NewCredentialRepository(database)
	authService := authservice.NewAuthService(userRepo, credentialRepo, cfg.AccessTokenTTL)
	authHandler := authhttp.NewHandler(authService)

	postRepo := postrepository.NewPostRepository(database)
	postHandler := posthttp.NewHandler(postservice.NewService(postRepo))

	followRepo := followrepository.NewFollowRepository(database)
	followHandler := followhttp.NewHandler(followservice.NewService(followRepo, userRepo))

	// --- РОУТЕР ---
	r := chi.NewRouter()
	r.Use(middleware.MetricsMiddleware)
	r.Use(middleware.ValidateRequest)

	// CORS: credentials требуют конкретный origin, не wildcard
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Публичные роуты под рейт-лимитером
	authLimiter := middleware.NewRateLimiter(30, 1*time.Minute)
	r.Group(func(pub chi.Router) {
		pub.Use(authLimiter.Middleware)
		pub.Post("/api/register", authHandler.Register)
		pub.Post("/api/login", authHandler.Login)
		pub.Post("/api/refresh", authHandler.Refresh)
	})

	// 🔐 Защищённая группа маршрутов
	r.Group(func(pr chi.Router) {
		pr.Use(middleware.TokenAuth(authService.Verifier()))

		pr.Post("/api/logout", authHandler.Logout)
		pr.Get("/api/user", authHandler.Me)

		// Посты и лента
		pr.Get("/api/posts", postHandler.GetMyPosts)
		pr.Post("/api/posts", postHandler.CreatePost)
		pr.Get("/api/posts/{id}", postHandler.GetPost)
		pr.Delete("/api/posts/{id}", postHandler.DeletePost)
		pr.Get("/api/feed", postHandler.GetFeed)

		// Подписки
		pr.Get("/api/users", followHandler.ExploreUsers)
		pr.Get("/api/following", followHandler.Following)
		pr.Get("/api/followers", followHandler.Followers)
		pr.Post("/api/users/{id}/follow", followHandler.Follow)
		pr.Delete("/api/users/{id}/follow", followHandler.Unfollow)
	})

	r.Group(func(m chi.Router) {
		m.Use(middleware.BasicAuth(cfg.MetricsUser, cfg.MetricsPassword))
		m.Handle("/metrics", promhttp.Handler())
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	server = &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: r,
	}

	log.Printf("Server running on %s", cfg.ServerAddr)

	// Graceful shutdown на сигналы ОС
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		log.Println("Shutdown signal received, starting graceful shutdown")
		shutdownServer()
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

func shutdownServer() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown failed: %v", err)
	}

	log.Println("Server stopped")
}
