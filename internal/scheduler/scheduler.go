package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/LocDev21/AgroData/internal/config"
	"github.com/LocDev21/AgroData/internal/service"
)

// Scheduler runs the periodic ledger drift audit. The audit recomputes each
// stock record's movement sum and logs every record that disagrees with
// quantity_available, so a broken write path is noticed within the hour
// rather than at the next physical inventory count.
type Scheduler struct {
	cron   *cron.Cron
	svc    *service.Service
	cfg    config.AuditConfig
	logger *zap.Logger
}

func New(cfg config.AuditConfig, svc *service.Service, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("unknown timezone, falling back to UTC", zap.String("timezone", cfg.Timezone))
		location = time.UTC
	}

	return &Scheduler{
		cron:   cron.New(cron.WithLocation(location)),
		svc:    svc,
		cfg:    cfg,
		logger: logger,
	}
}

func (s *Scheduler) Start() {
	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.runDriftAudit); err != nil {
		s.logger.Error("failed to schedule drift audit",
			zap.String("schedule", s.cfg.CronSchedule),
			zap.Error(err),
		)
		return
	}
	s.logger.Info("drift audit scheduled", zap.String("schedule", s.cfg.CronSchedule))
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) runDriftAudit() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	drifts, err := s.svc.LedgerDrift(ctx)
	if err != nil {
		s.logger.Error("ledger drift audit failed", zap.Error(err))
		return
	}
	if len(drifts) == 0 {
		s.logger.Info("ledger drift audit clean")
		return
	}

	for _, drift := range drifts {
		s.logger.Warn("stock record disagrees with its ledger",
			zap.Int64("stock_id", drift.StockID),
			zap.String("product", drift.Product),
			zap.Float64("quantity_available", drift.Quantity),
			zap.Float64("ledger_sum", drift.LedgerSum),
			zap.Float64("discrepancy", drift.Discrepancy),
			zap.Int("entries", drift.EntriesTotal),
		)
	}
}
