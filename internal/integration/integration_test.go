package integration

import (
	"context"
	"database/sql"
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

	"mathflix/internal/app"
	"mathflix/internal/domain"
	"mathflix/internal/infra/memory"
	pgstore "mathflix/internal/infra/postgres"
	pgmigrations "mathflix/internal/infra/postgres/migrations"
	redisstore "mathflix/internal/infra/redis"
)

func TestQuizFlowEndToEndOnPostgres(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	runMigrations(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	store := memory.NewCachedStore(pgstore.NewStore(pool), 5*time.Minute)
	quizzes := app.NewQuizService(ctx, store)

	quiz, err := quizzes.Create(ctx, app.QuizInput{
		Title:      "Addition Basics",
		Duration:   5,
		Subject:    "Math",
		Difficulty: domain.DifficultyEasy,
		CreatedBy:  "parent-1",
		Questions: []domain.Question{
			{ID: "q1", Prompt: "What is 2 + 2?", Options: []string{"3", "4", "5"}, CorrectAnswer: 1},
			{ID: "q2", Prompt: "What is 3 + 4?", Options: []string{"7", "8", "6"}, CorrectAnswer: 0},
		},
	})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	if _, err := quizzes.Assign(ctx, quiz.ID, "child-1"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := quizzes.Publish(ctx, quiz.ID); err != nil {
		t.Fatalf("publish: %v", err)
	}

	visible := quizzes.ForChild("child-1")
	if len(visible) != 1 {
		t.Fatalf("expected 1 visible quiz, got %d", len(visible))
	}

	runner, err := quizzes.StartAttempt(quiz.ID, "child-1")
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}
	for done := false; !done; {
		question, _ := runner.CurrentQuestion()
		if _, err := runner.Answer(question.CorrectAnswer); err != nil {
			t.Fatalf("answer: %v", err)
		}
		if _, done, err = runner.AdvanceOrSubmit(ctx); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}

	// A fresh, uncached service must read the attempt straight from Postgres.
	reloaded := app.NewQuizService(ctx, pgstore.NewStore(pool))
	stored, err := reloaded.Get(quiz.ID)
	if err != nil {
		t.Fatalf("get after reload: %v", err)
	}
	if len(stored.Attempts) != 1 || stored.Attempts[0].Score != 100 {
		t.Fatalf("expected a single perfect attempt, got %+v", stored.Attempts)
	}
}

func TestIdentityAndSessionsOnRedis(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	client, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	store := redisstore.NewStore(client, 0)

	auth := app.NewAuthService(ctx, store)
	if _, err := auth.Login(ctx, domain.Credentials{Username: "child", Password: "child123"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	sessions := app.NewSessionService(ctx, store)
	added, err := sessions.Add(ctx, domain.SessionInput{Title: "Algebra Review", Duration: 45})
	if err != nil {
		t.Fatalf("add session: %v", err)
	}

	// Simulate an app restart: new services over the same Redis.
	restartedAuth := app.NewAuthService(ctx, store)
	if user, ok := restartedAuth.Current(); !ok || user.Username != "child" {
		t.Fatalf("expected persisted login, got ok=%v user=%+v", ok, user)
	}
	restartedSessions := app.NewSessionService(ctx, store)
	list := restartedSessions.List()
	if len(list) != 1 || list[0].ID != added.ID {
		t.Fatalf("expected persisted session, got %+v", list)
	}

	restartedAuth.Logout(ctx)
	if _, ok := app.NewAuthService(ctx, store).Current(); ok {
		t.Fatalf("expected logout to clear the stored user")
	}
}

func runMigrations(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
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
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "mathflix", "POSTGRES_PASSWORD": "mathflixpass", "POSTGRES_DB": "mathflixdb"},
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
	dsn := fmt.Sprintf("postgres://mathflix:mathflixpass@%s:%s/mathflixdb?sslmode=disable", host, port.Port())
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
