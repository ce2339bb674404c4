package sweep

import (
	"context"
	"time"

	"avto-sawda/pkg/cache"
	"avto-sawda/pkg/logger"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Locker grants a lease on key for ttl, or reports false when someone else holds it.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type RedisLocker struct {
	rdb *redis.Client
}

func NewRedisLocker(rdb *redis.Client) *RedisLocker {
	return &RedisLocker{rdb: rdb}
}

// Acquire leaves the lease to expire so the job runs at most once per ttl across replicas.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	lock, err := cache.TryLock(ctx, l.rdb, key, ttl)
	if err != nil {
		return false, err
	}
	return lock != nil, nil
}

// Scheduler runs each job immediately and then on its interval. With a Locker set,
// a run is skipped when another replica holds the job's lease.
type Scheduler struct {
	jobs   []Job
	locker Locker
	logger *logger.Logger
}

func NewScheduler(locker Locker, log *logger.Logger, jobs ...Job) *Scheduler {
	return &Scheduler{jobs: jobs, locker: locker, logger: log}
}

// Run blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, job := range s.jobs {
		job := job
		if job.Interval <= 0 {
			s.logger.Warn("Sweep job %s has no interval, not scheduling", job.Name)
			continue
		}
		g.Go(func() error {
			s.loop(ctx, job)
			return nil
		})
	}
	return g.Wait()
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	s.logger.Info("Sweep job %s scheduled every %s", job.Name, job.Interval)
	s.runOnce(ctx, job)

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, job)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	if s.locker != nil {
		ok, err := s.locker.Acquire(ctx, "sweep:"+job.Name, job.Interval*9/10)
		if err != nil {
			s.logger.Warn("Sweep job %s lock failed, running unlocked: %v", job.Name, err)
		} else if !ok {
			s.logger.Debug("Sweep job %s held by another instance", job.Name)
			return
		}
	}

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.logger.Error("Sweep job %s failed: %v", job.Name, err)
		return
	}
	s.logger.Debug("Sweep job %s finished in %s", job.Name, time.Since(start))
}
