// Package scheduler runs the periodic background jobs over asynq. The API
// process schedules tasks; the worker process consumes them. Both sides are
// disabled cleanly when no Redis URL is configured.
package scheduler

import (
	"context"
	"fmt"

	"caseflow_backend/platform/config"
	"caseflow_backend/platform/logger"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// TypeQuoteExpirySweep marks open quotes past their validity window Expired.
const TypeQuoteExpirySweep = "quotes:expiry_sweep"

// QuoteExpirer is the slice of the quote service the sweep needs.
type QuoteExpirer interface {
	ExpireOverdue(ctx context.Context) (int64, error)
}

// RedisOpt parses the Redis URL into the asynq connection options. A nil
// result with nil error means scheduling is disabled.
func RedisOpt(cfg config.SchedulerConfig) (*asynq.RedisClientOpt, error) {
	url := cfg.GetRedisURL()
	if url == "" {
		return nil, nil
	}

	parsed, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &asynq.RedisClientOpt{
		Addr:     parsed.Addr,
		Username: parsed.Username,
		Password: parsed.Password,
		DB:       parsed.DB,
	}, nil
}

// Scheduler enqueues the periodic jobs on their intervals.
type Scheduler struct {
	inner *asynq.Scheduler
	log   *logger.Logger
}

// NewScheduler registers the periodic jobs. Returns nil when Redis is not
// configured.
func NewScheduler(cfg config.SchedulerConfig, log *logger.Logger) (*Scheduler, error) {
	opt, err := RedisOpt(cfg)
	if err != nil {
		return nil, err
	}
	if opt == nil {
		log.Info("scheduler disabled, REDIS_URL not set")
		return nil, nil
	}

	inner := asynq.NewScheduler(opt, &asynq.SchedulerOpts{})

	sweep := asynq.NewTask(TypeQuoteExpirySweep, nil)
	interval := fmt.Sprintf("@every %dm", cfg.GetQuoteExpirySweepMinutes())
	if _, err := inner.Register(interval, sweep, asynq.Queue(cfg.GetAsynqQueueName())); err != nil {
		return nil, fmt.Errorf("register expiry sweep: %w", err)
	}

	return &Scheduler{inner: inner, log: log}, nil
}

// Run blocks until Shutdown is called.
func (s *Scheduler) Run() error {
	s.log.Info("scheduler started")
	return s.inner.Run()
}

// Shutdown stops the scheduler.
func (s *Scheduler) Shutdown() {
	s.inner.Shutdown()
}

// Worker consumes scheduled tasks.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    *logger.Logger
}

// NewWorker builds the asynq server and routes each task type to its handler.
// Returns nil when Redis is not configured.
func NewWorker(cfg config.SchedulerConfig, quotes QuoteExpirer, log *logger.Logger) (*Worker, error) {
	opt, err := RedisOpt(cfg)
	if err != nil {
		return nil, err
	}
	if opt == nil {
		log.Info("worker disabled, REDIS_URL not set")
		return nil, nil
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: 5,
		Queues:      map[string]int{cfg.GetAsynqQueueName(): 1},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeQuoteExpirySweep, func(ctx context.Context, _ *asynq.Task) error {
		expired, err := quotes.ExpireOverdue(ctx)
		if err != nil {
			return fmt.Errorf("expiry sweep: %w", err)
		}
		log.Info("expiry sweep finished", "expired", expired)
		return nil
	})

	return &Worker{server: server, mux: mux, log: log}, nil
}

// Run blocks processing tasks until Shutdown is called.
func (w *Worker) Run() error {
	w.log.Info("worker started")
	return w.server.Run(w.mux)
}

// Shutdown stops the worker, waiting for in-flight tasks.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}
