package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"lesson-quiz-service/internal/app"
	pgloader "lesson-quiz-service/internal/infra/postgres"
	pgmigrations "lesson-quiz-service/internal/infra/postgres/migrations"
	infraredis "lesson-quiz-service/internal/infra/redis"
	"lesson-quiz-service/internal/quiz"
)

func TestLessonQuizEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedQuiz(t, ctx, pgURL, sampleQuiz())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := pgloader.NewQuizLoader(pool)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	quizRepo := infraredis.NewQuizRepository(redisClient, loader, 5*time.Minute)
	sessionStore := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	service := app.NewQuizService(sessionStore, quizRepo, app.WithSink(quiz.LocalSink{}), app.WithTickInterval(0))

	attempt, err := service.Start(ctx, app.StartRequest{LessonID: "lesson-1", UserID: "u1", CourseID: "course-1"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !attempt.Available() {
		t.Fatalf("expected seeded quiz to be available")
	}
	if n, err := redisClient.Exists(ctx, "quiz:lesson-1:payload", "quiz:attempt:"+attempt.ID()).Result(); err != nil || n != 2 {
		t.Fatalf("expected payload cache and attempt marker in redis, got %d (%v)", n, err)
	}

	if err := service.SelectChoice(ctx, attempt.ID(), "q1", "o2"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := service.Next(ctx, attempt.ID()); err != nil {
		t.Fatalf("next: %v", err)
	}
	if err := service.AnswerText(ctx, attempt.ID(), "q2", "Because it is."); err != nil {
		t.Fatalf("answer text: %v", err)
	}

	res, err := service.Submit(ctx, attempt.ID())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.CorrectAnswerCount != 1 || res.ScoreDisplay != "50.0" || res.Passed {
		t.Fatalf("expected 1 correct at 50.0 and failing, got %+v", res)
	}

	if _, err := service.Leave(ctx, attempt.ID()); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if n, _ := redisClient.Exists(ctx, "quiz:attempt:"+attempt.ID()).Result(); n != 0 {
		t.Fatalf("expected attempt marker removed")
	}

	missing, err := service.Start(ctx, app.StartRequest{LessonID: "lesson-404", UserID: "u1"})
	if err != nil {
		t.Fatalf("start missing: %v", err)
	}
	if missing.Available() {
		t.Fatalf("expected unknown lesson to be unavailable")
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedQuiz(t *testing.T, ctx context.Context, dsn string, entry pgloader.SeedEntry) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if _, err := pgloader.NewSeeder(db).Upsert(ctx, []pgloader.SeedEntry{entry}); err != nil {
		t.Fatalf("seed quiz: %v", err)
	}
}

func sampleQuiz() pgloader.SeedEntry {
	body := map[string]any{
		"title":      "Integration",
		"time_limit": 15,
		"questions": []map[string]any{
			{
				"id": "q1", "text": "What is 2 + 2?", "points": 1, "question_type": "MCQ",
				"choices": []map[string]any{
					{"id": "o1", "text": "3", "is_correct": false},
					{"id": "o2", "text": "4", "is_correct": true},
					{"id": "o3", "text": "5", "is_correct": false},
				},
			},
			{"id": "q2", "text": "Why?", "points": 1, "question_type": "TEXT"},
		},
	}
	raw, _ := json.Marshal(body)
	return pgloader.SeedEntry{LessonID: "lesson-1", CourseID: "course-1", Quiz: raw}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
