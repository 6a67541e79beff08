// cmd/api/main.go
// Main entry point for the application
// This file bootstraps all components and starts the server

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	// Internal packages
	"github.com/amora-app/amora-backend/internal/auth"
	"github.com/amora-app/amora-backend/internal/common/database"
	"github.com/amora-app/amora-backend/internal/config"
	"github.com/amora-app/amora-backend/internal/events"
	"github.com/amora-app/amora-backend/internal/interactions"
	"github.com/amora-app/amora-backend/internal/matches"
	"github.com/amora-app/amora-backend/internal/profiles"
	"github.com/amora-app/amora-backend/internal/scoring"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	log.Println("Starting Amora Compatibility & Matchmaking API")

	// 1. Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found (%v), using environment variables", err)
	}

	// 2. Load and validate configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("Configuration validation failed:", err)
	}

	// 3. Connect to PostgreSQL
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL:", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// 4. Connect to Redis (optional; caching degrades gracefully without it)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Printf("Redis unavailable (%v), continuing without caching", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
			log.Println("Connected to Redis")
		}
	}

	// 5. Run database migrations
	if err := runMigrations(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	log.Println("Database migrations completed")

	// 6. Auth
	authService := auth.NewService(cfg.JWTSecret, cfg.JWTIssuer)
	authMiddleware := auth.NewMiddleware(authService)

	// 7. Trait profiles, with a Redis read-through cache in front
	profileRepo := profiles.NewCachedRepository(
		profiles.NewPostgresRepository(db), redisClient, cfg.ProfileCacheTTL)
	profileHandler := profiles.NewHandler(profileRepo)

	// 8. User directory: tiers, timezones, ages
	directory := interactions.NewPostgresDirectory(db)

	// 9. Pairwise compatibility scoring
	behaviorProvider := scoring.NewPostgresBehaviorProvider(db)
	scoringService := scoring.NewService(profileRepo, behaviorProvider, directory)
	scoringHandler := scoring.NewHandler(scoringService)

	// 10. Canonical matches
	matchRepo := matches.NewPostgresRepository(db)
	matchService := matches.NewService(matchRepo)
	matchHandler := matches.NewHandler(matchService)

	// 11. Interaction ledger (swipes, quotas, reciprocity)
	interactionRepo := interactions.NewPostgresRepository(db)
	interactionService := interactions.NewService(interactionRepo, directory, scoringService, redisClient)
	interactionHandler := interactions.NewHandler(interactionService)

	// 12. Weekly events and the batch matchmaker
	eventRepo := events.NewPostgresRepository(db)
	eventService := events.NewService(eventRepo, cfg.MatchmakerWorkers)
	eventHandler := events.NewHandler(eventService)

	eventScheduler := events.NewScheduler(eventService, cfg.SchedulerInterval)
	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	go eventScheduler.Start(schedulerCtx)

	// 13. Routes
	router := mux.NewRouter()

	router.HandleFunc("/health", healthCheck).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	scoring.RegisterRoutes(router, scoringHandler, authMiddleware)
	matches.RegisterRoutes(router, matchHandler, authMiddleware)
	interactions.RegisterRoutes(router, interactionHandler, authMiddleware)
	events.RegisterRoutes(router, eventHandler, authMiddleware)

	// The profiles package routes on chi; mount it under the same prefix.
	profileRouter := chi.NewRouter()
	profiles.RegisterRoutes(profileRouter, profileHandler, authMiddleware)
	router.PathPrefix("/api/v1/trait-profiles").Handler(
		http.StripPrefix("/api/v1", profileRouter))

	router.Use(loggingMiddleware)
	router.Use(corsMiddleware)

	// 14. Create and start HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost%s (%s)", srv.Addr, cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutdown signal received...")
	eventScheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited gracefully")
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// loggingMiddleware logs all requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.RequestURI, time.Since(start))
	})
}

// corsMiddleware handles CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// runMigrations creates the schema if it does not exist yet
func runMigrations(db *sqlx.DB) error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id BIGSERIAL PRIMARY KEY,
        username VARCHAR(50) UNIQUE NOT NULL,
        subscription_tier VARCHAR(20) NOT NULL DEFAULT 'free',
        timezone VARCHAR(64) NOT NULL DEFAULT 'UTC',
        birth_date DATE,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    );

    CREATE TABLE IF NOT EXISTS trait_profiles (
        id BIGSERIAL PRIMARY KEY,
        user_id BIGINT NOT NULL REFERENCES users(id),
        openness DOUBLE PRECISION NOT NULL,
        conscientiousness DOUBLE PRECISION NOT NULL,
        extraversion DOUBLE PRECISION NOT NULL,
        agreeableness DOUBLE PRECISION NOT NULL,
        neuroticism DOUBLE PRECISION NOT NULL,
        attachment_style VARCHAR(20) NOT NULL,
        secure_score DOUBLE PRECISION NOT NULL DEFAULT 0,
        anxious_score DOUBLE PRECISION NOT NULL DEFAULT 0,
        avoidant_score DOUBLE PRECISION NOT NULL DEFAULT 0,
        compatibility_keywords TEXT[] NOT NULL DEFAULT '{}',
        profile_strength DOUBLE PRECISION NOT NULL DEFAULT 1,
        is_active BOOLEAN NOT NULL DEFAULT TRUE,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    );
    CREATE UNIQUE INDEX IF NOT EXISTS idx_trait_profiles_active
        ON trait_profiles(user_id) WHERE is_active;

    CREATE TABLE IF NOT EXISTS user_behavior_features (
        user_id BIGINT PRIMARY KEY REFERENCES users(id),
        avg_response_seconds DOUBLE PRECISION NOT NULL DEFAULT 0,
        activity_level DOUBLE PRECISION NOT NULL DEFAULT 0,
        avg_message_length DOUBLE PRECISION NOT NULL DEFAULT 0,
        emoji_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
        active_hours JSONB NOT NULL DEFAULT '[]',
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    );

    CREATE TABLE IF NOT EXISTS interactions (
        id BIGSERIAL PRIMARY KEY,
        actor_id BIGINT NOT NULL REFERENCES users(id),
        target_id BIGINT NOT NULL REFERENCES users(id),
        kind VARCHAR(20) NOT NULL,
        is_mutual BOOLEAN NOT NULL DEFAULT FALSE,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        CONSTRAINT interactions_actor_target_unique UNIQUE (actor_id, target_id)
    );
    CREATE INDEX IF NOT EXISTS idx_interactions_actor_kind_created
        ON interactions(actor_id, kind, created_at);

    CREATE TABLE IF NOT EXISTS matches (
        id BIGSERIAL PRIMARY KEY,
        user1_id BIGINT NOT NULL REFERENCES users(id),
        user2_id BIGINT NOT NULL REFERENCES users(id),
        compatibility_score DOUBLE PRECISION NOT NULL,
        match_context JSONB NOT NULL DEFAULT '{}',
        is_active BOOLEAN NOT NULL DEFAULT TRUE,
        unmatched_by BIGINT,
        unmatched_at TIMESTAMPTZ,
        matched_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        CONSTRAINT matches_pair_unique UNIQUE (user1_id, user2_id),
        CONSTRAINT matches_pair_ordered CHECK (user1_id < user2_id)
    );

    CREATE TABLE IF NOT EXISTS weekly_events (
        id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
        title VARCHAR(200) NOT NULL,
        type VARCHAR(40) NOT NULL,
        status VARCHAR(20) NOT NULL DEFAULT 'draft',
        opens_at TIMESTAMPTZ NOT NULL,
        matches_at TIMESTAMPTZ NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    );

    CREATE TABLE IF NOT EXISTS event_questions (
        id BIGSERIAL PRIMARY KEY,
        event_id UUID NOT NULL REFERENCES weekly_events(id),
        prompt TEXT NOT NULL,
        kind VARCHAR(20) NOT NULL,
        max_scale INT NOT NULL DEFAULT 0,
        importance DOUBLE PRECISION NOT NULL DEFAULT 1,
        options JSONB NOT NULL DEFAULT '[]'
    );

    CREATE TABLE IF NOT EXISTS event_participations (
        id BIGSERIAL PRIMARY KEY,
        event_id UUID NOT NULL REFERENCES weekly_events(id),
        user_id BIGINT NOT NULL REFERENCES users(id),
        status VARCHAR(20) NOT NULL DEFAULT 'joined',
        joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        completed_at TIMESTAMPTZ,
        CONSTRAINT event_participations_unique UNIQUE (event_id, user_id)
    );

    CREATE TABLE IF NOT EXISTS event_responses (
        id BIGSERIAL PRIMARY KEY,
        participation_id BIGINT NOT NULL REFERENCES event_participations(id),
        question_id BIGINT NOT NULL REFERENCES event_questions(id),
        response_value TEXT NOT NULL,
        response_time_ms INT NOT NULL DEFAULT 0,
        CONSTRAINT event_responses_unique UNIQUE (participation_id, question_id)
    );

    CREATE TABLE IF NOT EXISTS event_matches (
        id BIGSERIAL PRIMARY KEY,
        event_id UUID NOT NULL REFERENCES weekly_events(id),
        user1_id BIGINT NOT NULL REFERENCES users(id),
        user2_id BIGINT NOT NULL REFERENCES users(id),
        compatibility_score DOUBLE PRECISION NOT NULL,
        match_reasons JSONB NOT NULL DEFAULT '[]',
        user_a_accepted BOOLEAN NOT NULL DEFAULT FALSE,
        user_b_accepted BOOLEAN NOT NULL DEFAULT FALSE,
        user_a_declined BOOLEAN NOT NULL DEFAULT FALSE,
        user_b_declined BOOLEAN NOT NULL DEFAULT FALSE,
        matched_at TIMESTAMPTZ,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        CONSTRAINT event_matches_pair_unique UNIQUE (event_id, user1_id, user2_id),
        CONSTRAINT event_matches_pair_ordered CHECK (user1_id < user2_id)
    );
    `

	_, err := db.Exec(schema)
	return err
}
