package cli

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.uber.org/zap"

	"study-quiz-service/internal/app"
	"study-quiz-service/internal/config"
	"study-quiz-service/internal/infra/backend"
	"study-quiz-service/internal/infra/memory"
	"study-quiz-service/internal/infra/postgres"
	infraredis "study-quiz-service/internal/infra/redis"
	"study-quiz-service/internal/logging"
	"study-quiz-service/internal/session"
)

// deps is the infrastructure selected by the config file.
type deps struct {
	cfg      config.Config
	log      *zap.Logger
	backend  *backend.Client
	quizzes  app.QuizRepository
	sessions app.SessionRepository
	attempts session.AttemptGateway
	closers  []func()
}

func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	_ = d.log.Sync()
}

func loadConfig(path, defaultLevel string) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaultLevel
	}
	log, err := logging.New(cfg.Logging)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, log, nil
}

// buildDeps wires loaders, caches, the session registry and the attempt
// gateway. Postgres wins over the backend API for loading quizzes; the
// backend API wins over Postgres for storing attempts. With neither, the
// bundled sample quizzes and an in-memory attempt log are used.
func buildDeps(ctx context.Context, cfg config.Config, log *zap.Logger) (*deps, error) {
	d := &deps{cfg: cfg, log: log}

	if cfg.Backend.BaseURL != "" {
		timeout := config.TTLDuration(cfg.Backend.Timeout, 10*time.Second)
		d.backend = backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Token, &http.Client{Timeout: timeout}, log.Named("backend"))
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if d.backend != nil {
		loader = d.backend
	}
	var attempts session.AttemptGateway = memory.NewAttemptLog()
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.closers = append(d.closers, pool.Close)
		loader = postgres.NewQuizLoader(pool)

		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		db := bun.NewDB(sqldb, pgdialect.New())
		d.closers = append(d.closers, func() { _ = db.Close() })
		attempts = postgres.NewAttemptStore(db)
	}
	if d.backend != nil {
		attempts = d.backend
	}
	d.attempts = attempts

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		d.closers = append(d.closers, func() { _ = client.Close() })
		redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
		d.quizzes = infraredis.NewQuizRepository(client, loader, quizTTL, log.Named("quiz-cache"))
		d.sessions = infraredis.NewSessionStore(client, redisTTL, log.Named("sessions"))
	} else {
		d.quizzes = memory.NewQuizRepository(loader, quizTTL)
		d.sessions = memory.NewSessionStore()
	}

	log.Info("infrastructure ready",
		zap.Bool("backend", d.backend != nil),
		zap.Bool("postgres", cfg.Postgres.URL != ""),
		zap.Bool("redis", cfg.Redis.Addr != ""))
	return d, nil
}

func (d *deps) service(opts ...app.Option) *app.QuizService {
	opts = append([]app.Option{
		app.WithLogger(d.log),
		app.WithSessionExpiry(
			config.TTLDuration(d.cfg.Quiz.SessionGrace, 10*time.Minute),
			config.TTLDuration(d.cfg.Quiz.SessionIdle, 30*time.Minute),
		),
	}, opts...)
	return app.NewQuizService(d.sessions, d.quizzes, d.attempts, opts...)
}
