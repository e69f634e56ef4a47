package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "polls-service/docs"
	"polls-service/internal/audit"
	"polls-service/internal/config"
	"polls-service/internal/domain/question"
	"polls-service/internal/domain/user"
	"polls-service/internal/domain/vote"
	api "polls-service/internal/http"
	"polls-service/internal/metrics"
	"polls-service/internal/platform/database"
	jwtpkg "polls-service/internal/platform/jwt"
	"polls-service/internal/repository/postgres"
	"polls-service/internal/worker"
)

// @title           Polls API
// @version         1.0
// @description     Opinion-poll service: questions with voting windows, one revisable vote per user
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics.Register()

	db, err := database.NewPostgres(ctx, cfg.DB_DSN)
	if err != nil {
		log.Fatalf("db connect error: %v", err)
	}
	defer db.Close()

	if err := postgres.CreateSchema(ctx, db); err != nil {
		log.Fatalf("schema error: %v", err)
	}

	userRepo := postgres.NewUserRepo(db)
	questionRepo := postgres.NewQuestionRepo(db)
	voteRepo := postgres.NewVoteRepo(db)

	auditLog := audit.NewLogger(slog.Default())

	userSvc := user.NewService(userRepo, auditLog)
	questionSvc := question.NewService(questionRepo)
	voteSvc := vote.NewService(voteRepo, questionRepo)

	jwtMgr := jwtpkg.NewManager(cfg.JWTSecret, "polls-service")

	ballotCh := make(chan worker.BallotEvent, 100)
	ballotWorker := worker.NewBallotWorker(ballotCh, slog.Default())

	router := api.NewRouter(userSvc, questionSvc, voteSvc, jwtMgr, cfg.TokenTTL, ballotCh, db)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go ballotWorker.Run(ctx)

	go func() {
		log.Printf("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	<-stop
	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server shutdown error: %v", err)
	}

	log.Println("server stopped")
}
