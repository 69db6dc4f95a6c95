// Entry point of the recipebox application. It loads configuration, connects
// to PostgreSQL, applies migrations, wires the services and handlers together,
// sets up the HTTP router with its middleware stack, and runs the server with
// graceful shutdown.
//
// @title RecipeBox API
// @version 1.0
// @description Recipe management API with per-user recipes, tags and ingredients.
// @contact.name API Support
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/user/recipebox-go/apperror"
	"github.com/user/recipebox-go/auth"
	"github.com/user/recipebox-go/config"
	"github.com/user/recipebox-go/db"
	_ "github.com/user/recipebox-go/docs" // Generated Swagger docs
	"github.com/user/recipebox-go/recipe"
	"github.com/user/recipebox-go/users"
)

func main() {
	// A missing .env is normal outside development; real deployments set the
	// environment directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading it: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pool, err := db.NewPool(cfg.DB)
	if err != nil {
		log.Fatalf("Failed to create database pool: %v", err)
	}
	defer pool.Close()

	if err := db.RunMigrations(cfg.DB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Manual dependency injection: services get the pool and config, handlers
	// get services.
	authService := auth.NewAuthService(pool, *cfg.Auth)
	authHandlers := auth.NewHandlers(authService)

	userService := users.NewUserService(pool)
	userHandlers := users.NewUserHandlers(userService)

	recipeService := recipe.NewRecipeService(pool)
	recipeHandler := recipe.NewRecipeHandler(recipeService)

	// Optional admin bootstrap: when both variables are set, ensure a
	// superuser account exists before the server starts taking requests.
	if email := os.Getenv("BOOTSTRAP_SUPERUSER_EMAIL"); email != "" {
		password := os.Getenv("BOOTSTRAP_SUPERUSER_PASSWORD")
		if password == "" {
			log.Fatalf("BOOTSTRAP_SUPERUSER_EMAIL is set but BOOTSTRAP_SUPERUSER_PASSWORD is not")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if _, err := authService.CreateSuperuser(ctx, email, password); err != nil {
			if apperror.IsConflictError(err) {
				log.Printf("Superuser %s already exists, skipping bootstrap", email)
			} else {
				log.Fatalf("Failed to bootstrap superuser: %v", err)
			}
		} else {
			log.Printf("Bootstrapped superuser %s", email)
		}
		cancel()
	}

	r := chi.NewRouter()

	// Chi requires all middleware to be registered before any routes.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		// Wide open for development; restrict AllowedOrigins in production.
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Panic recovery that reports through the apperror envelope instead of a
	// bare 500.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				if rvr := recover(); rvr != nil {
					log.Printf("Panic: %+v", rvr)
					writeError(ww, apperror.NewInternalError("internal server error", nil))
				}
			}()
			next.ServeHTTP(ww, r)
		})
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandlers.HandleRegister())
		r.Post("/login", authHandlers.HandleLogin())
		r.Post("/refresh", authHandlers.HandleRefreshToken())
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(auth.JWTMiddleware(cfg.Auth))

		r.Get("/me", userHandlers.HandleGetUserProfile())
		r.Put("/me", userHandlers.HandleUpdateUserProfile())
		r.Patch("/me", userHandlers.HandleUpdateUserProfile())
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.JWTMiddleware(cfg.Auth))
		recipeHandler.RegisterRoutes(r)
	})

	addr := fmt.Sprintf(":%s", cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Println("Server stopped gracefully")
}

// writeError is a local helper for the panic recovery middleware, kept here so
// the middleware does not depend on any handler package.
func writeError(w http.ResponseWriter, appErr *apperror.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode())
	if err := json.NewEncoder(w).Encode(appErr.ToResponse()); err != nil {
		http.Error(w, `{"error":"Failed to encode error response"}`, http.StatusInternalServerError)
	}
}
