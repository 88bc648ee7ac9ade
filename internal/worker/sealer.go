package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sheikh-saqib/jobs-ledger/internal/models"
	"github.com/sheikh-saqib/jobs-ledger/internal/xerrors"
	"go.uber.org/zap"
)

// Sealer is the part of the ledger the worker drives.
type Sealer interface {
	Seal(ctx context.Context) (models.SealedManifest, error)
}

// SealWorker seals the ledger on a fixed interval.
type SealWorker struct {
	sealer   Sealer
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewSealWorker(sealer Sealer, interval time.Duration, logger *zap.Logger) *SealWorker {
	return &SealWorker{
		sealer:   sealer,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start blocks until ctx is cancelled or Stop is called.
func (sw *SealWorker) Start(ctx context.Context) {
	sw.logger.Info("Starting seal worker", zap.Duration("interval", sw.interval))

	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sw.sealOnce(ctx)

		case <-sw.stopChan:
			sw.logger.Info("Stopping seal worker")
			return

		case <-ctx.Done():
			sw.logger.Info("Context cancelled, stopping seal worker")
			return
		}
	}
}

func (sw *SealWorker) sealOnce(ctx context.Context) {
	_, err := sw.sealer.Seal(ctx)
	switch {
	case err == nil:
	case errors.Is(err, xerrors.ErrEmptyLedger):
		sw.logger.Debug("Nothing to seal")
	default:
		sw.logger.Error("Scheduled seal failed", zap.Error(err))
	}
}

// Stop ends Start. It is safe to call more than once.
func (sw *SealWorker) Stop() {
	sw.stopOnce.Do(func() { close(sw.stopChan) })
}
