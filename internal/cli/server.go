package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"

	"lesson-quiz-service/internal/app"
	"lesson-quiz-service/internal/config"
	"lesson-quiz-service/internal/domain"
	"lesson-quiz-service/internal/infra/memory"
	pgloader "lesson-quiz-service/internal/infra/postgres"
	redisinfra "lesson-quiz-service/internal/infra/redis"
	"lesson-quiz-service/internal/quiz"
	transport "lesson-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, log, err := loadRuntime(configPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		loader = pgloader.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	var store app.SessionRepository
	if cfg.Redis.Addr != "" {
		client := newRedisClient(cfg)
		defer client.Close()
		quizRepo = redisinfra.NewQuizRepository(client, loader, quizTTL)
		store = redisinfra.NewSessionStore(client, config.TTLDuration(cfg.Redis.TTL, 45*time.Minute))
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
		store = memory.NewSessionStore()
	}

	service := app.NewQuizService(store, quizRepo,
		app.WithSink(quiz.LocalSink{Delay: config.TTLDuration(cfg.Quiz.SubmitDelay, quiz.DefaultSubmitDelay)}),
		app.WithTickInterval(config.TTLDuration(cfg.Quiz.TickInterval, time.Second)),
		app.WithLogger(log),
	)
	wsHandler := transport.NewWSHandler(service, cfg.Origins(), log)

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           transport.NewRouter(service, wsHandler, cfg.Origins(), log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("starting quiz service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes serves a demo lesson when no database is configured.
func sampleQuizzes() map[string][]byte {
	demo := domain.QuizDefinition{
		Title:               "Демо тест",
		Description:         "Сабақ бойынша тест",
		TimeLimitMinutes:    5,
		PassingScorePercent: 70,
		Questions: []domain.Question{
			{
				ID:     "q1",
				Text:   "2 + 2 = ?",
				Points: 1,
				Type:   domain.MultipleChoice,
				Choices: []domain.Choice{
					{ID: "a", Text: "3"},
					{ID: "b", Text: "4", IsCorrect: true},
					{ID: "c", Text: "5"},
				},
				Explanation: "2 + 2 = 4",
			},
			{
				ID:     "q2",
				Text:   "Компьютер архитектурасын өз сөзіңізбен сипаттаңыз.",
				Points: 1,
				Type:   domain.OpenEnded,
			},
		},
	}
	raw, _ := json.Marshal(demo)
	return map[string][]byte{"demo": raw}
}
