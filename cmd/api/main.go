package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/printlog/printlog-backend/internal/modules/auth"
	"github.com/printlog/printlog-backend/internal/modules/client"
	"github.com/printlog/printlog-backend/internal/modules/printer"
	"github.com/printlog/printlog-backend/internal/modules/project"
	"github.com/printlog/printlog-backend/internal/modules/stock"
	"github.com/printlog/printlog-backend/internal/modules/user"
	"github.com/printlog/printlog-backend/internal/modules/workflow"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}

	db, err := sql.Open("postgres", os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}
	fmt.Println("Successfully connected to the database!")

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)

	origin := os.Getenv("CORS_ORIGIN")
	if origin == "" {
		origin = "*"
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{origin},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// ── Identity ────────────────────────────────────────────
	userRepo := user.NewPostgresRepository(db)
	userService := user.NewService(userRepo)
	userHandler := user.NewHandler(userService)
	userHandler.RegisterRoutes(router)

	authService := auth.NewService(userRepo)
	auth.NewHandler(authService).RegisterRoutes(router)

	// ── Tenant-scoped API ───────────────────────────────────
	stockRepo := stock.NewPostgresRepository(db)
	printerRepo := printer.NewPostgresRepository(db)
	projectRepo := project.NewPostgresRepository(db)
	clientRepo := client.NewPostgresRepository(db)
	workflowRepo := workflow.NewPostgresRepository(db)

	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware)

		userHandler.RegisterProtectedRoutes(r)
		stock.NewHandler(stock.NewService(stockRepo)).RegisterRoutes(r)
		printer.NewHandler(printer.NewService(printerRepo)).RegisterRoutes(r)
		project.NewHandler(project.NewService(projectRepo)).RegisterRoutes(r)
		client.NewHandler(client.NewService(clientRepo)).RegisterRoutes(r)

		workflowService := workflow.NewService(workflowRepo, projectRepo, stockRepo)
		workflow.NewHandler(workflowService).RegisterRoutes(r)
	})

	// ── Start Server ─────────────────────────────────────────
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	fmt.Printf("PrintLog API server starting on :%s\n", port)
	log.Fatal(http.ListenAndServe(":"+port, router))
}
