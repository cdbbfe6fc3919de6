package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	api "github.com/edunexus/mentoring-block/internal/api/http"
	auth "github.com/edunexus/mentoring-block/internal/auth/middleware"
	"github.com/edunexus/mentoring-block/internal/config"
	"github.com/edunexus/mentoring-block/internal/content"
	"github.com/edunexus/mentoring-block/internal/db"
	"github.com/edunexus/mentoring-block/internal/events"
	"github.com/edunexus/mentoring-block/internal/mentoring"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	store := mentoring.NewSQLStore(dbh)
	sink := events.NewLog(dbh)

	// --- Block registry from authored content ---
	blocks, err := content.LoadDir(cfg.ContentDir)
	if err != nil {
		log.Fatalf("load content: %v", err)
	}
	reg := api.Registry{}
	for id, b := range blocks {
		reg[id] = mentoring.NewCoordinator(b, store, store, sink)
	}
	log.Printf("loaded %d mentoring block(s) from %s", len(reg), cfg.ContentDir)

	authSvc := auth.NewAuthService(cfg.AuthSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, cfg.LearnerPassHash))

	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Route("/blocks/{blockID}", func(br chi.Router) {
			br.Get("/view", api.ViewHandler(reg))
			br.Post("/submit", api.SubmitHandler(reg))
			br.Post("/try_again", api.TryAgainHandler(reg))
			br.Post("/get_results", api.GetResultsHandler(reg))
		})
	})

	log.Printf("mentoringd listening on %s", cfg.HTTPAddr)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatal(err)
	}
}
