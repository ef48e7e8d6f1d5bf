package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/Vovarama1992/leads-ai-gatekeeper/internal/ai"
	"github.com/Vovarama1992/leads-ai-gatekeeper/internal/leads"
	"github.com/Vovarama1992/leads-ai-gatekeeper/internal/rag"
)

func main() {
	_ = godotenv.Load()

	logger := newLogger(os.Getenv("LOG_LEVEL"))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal().Msg("DATABASE_URL is not set")
	}

	// --- DB ---
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		logger.Fatal().Err(err).Msg("db open error")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		logger.Fatal().Err(err).Msg("db ping error")
	}
	logger.Info().Msg("connected to PostgreSQL")

	// --- Router ---
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	// --- База знаний (опционально) ---
	var retriever *rag.Retriever
	if docsDir := os.Getenv("RAG_DOCS_DIR"); docsDir != "" {
		retriever = rag.NewRetriever(logger)
		if err := retriever.LoadDir(docsDir); err != nil {
			logger.Warn().Err(err).Str("dir", docsDir).Msg("knowledge base not loaded")
			retriever = nil
		}
	}

	// --- Leads module wiring ---
	leadsRepo := leads.NewRepo(db)
	aiClient := ai.NewOpenAIClient(logger)
	qualifier := leads.NewQualifier(aiClient, retriever, logger)
	notifier := leads.NewTelegramNotifier(logger)
	leadsService := leads.NewService(leadsRepo, qualifier, notifier, logger)
	leadsHandler := leads.NewHandler(leadsService, logger)

	leads.RegisterRoutes(r, leadsHandler)

	// --- health ---
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	logger.Info().Str("port", port).Msg("listening")
	if err := http.ListenAndServe(":"+port, r); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger().
		Level(lvl)
}
