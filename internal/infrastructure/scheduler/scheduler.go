// Package scheduler runs the platform's periodic maintenance jobs: the
// stale-claim sweep backing the execution queue's claim recovery (spec
// §4.1) and the batch correlator registry's TTL reap (spec §4.4).
package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/rosklyar/prompts-volume-sub000/internal/application/batchcorrelator"
	"github.com/rosklyar/prompts-volume-sub000/internal/application/queue"
	"github.com/rosklyar/prompts-volume-sub000/internal/infrastructure/logger"
)

// Scheduler owns a single cron runner for the process's background jobs.
type Scheduler struct {
	cron *cron.Cron
	log  *logger.Logger
}

func New(log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		log:  log,
	}
}

// RegisterStaleClaimSweep schedules the queue's stale-claim reset on spec,
// e.g. "@every 1m".
func (s *Scheduler) RegisterStaleClaimSweep(spec string, svc *queue.Service) error {
	_, err := s.cron.AddFunc(spec, func() {
		n, err := svc.SweepStaleClaims(context.Background())
		if err != nil {
			s.log.Error("stale claim sweep failed", "error", err)
			return
		}
		if n > 0 {
			s.log.Info("reset stale claims", "count", n)
		}
	})
	return err
}

// RegisterBatchRegistryReap schedules the batch correlator registry's TTL
// reap so expired in-memory batch entries are dropped even when no webhook
// traffic is arriving to trigger a lazy reap.
func (s *Scheduler) RegisterBatchRegistryReap(spec string, registry *batchcorrelator.Registry) error {
	_, err := s.cron.AddFunc(spec, registry.Reap)
	return err
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

func (s *Scheduler) Stop(ctx context.Context) {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
}
