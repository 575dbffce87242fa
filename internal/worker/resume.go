// Package worker runs background jobs of the custody service.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/AlexZinkM/chewy-custody/internal/model"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

// WalletLister finds wallets whose provisioning stalled.
type WalletLister interface {
	ListWallets(ctx context.Context, filter model.WalletFilter) ([]model.WalletRecord, error)
}

// Resumer continues provisioning from a wallet's persisted state.
type Resumer interface {
	Resume(ctx context.Context, email string) (*model.WalletResponse, error)
}

// ResumeWorker periodically finishes wallets left short of token_funded by a
// failed request or a crash.
type ResumeWorker struct {
	wallets    WalletLister
	resumer    Resumer
	interval   time.Duration
	staleAfter time.Duration
	log        logrus.FieldLogger

	sched  gocron.Scheduler
	cancel context.CancelFunc
}

func NewResumeWorker(wallets WalletLister, resumer Resumer, interval, staleAfter time.Duration, log logrus.FieldLogger) *ResumeWorker {
	return &ResumeWorker{
		wallets:    wallets,
		resumer:    resumer,
		interval:   interval,
		staleAfter: staleAfter,
		log:        log.WithField("worker", "resume"),
	}
}

// Start schedules the job. Runs never overlap; a slow run pushes the next one back.
func (w *ResumeWorker) Start() error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	_, err = sched.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(func() { w.RunOnce(ctx) }),
		gocron.WithName("resume-provisioning"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to schedule resume job: %w", err)
	}

	w.sched = sched
	w.cancel = cancel
	sched.Start()
	w.log.WithField("interval", w.interval).Info("resume worker started")
	return nil
}

// Stop cancels an in-flight run and waits for it to return.
func (w *ResumeWorker) Stop() error {
	if w.sched == nil {
		return nil
	}
	w.cancel()
	return w.sched.Shutdown()
}

// RunOnce resumes every stale incomplete wallet and reports how many finished and failed.
func (w *ResumeWorker) RunOnce(ctx context.Context) (resumed, failed int) {
	stalled, err := w.wallets.ListWallets(ctx, model.WalletFilter{
		ExcludeState:  model.StateTokenFunded,
		UpdatedBefore: time.Now().UTC().Add(-w.staleAfter),
	})
	if err != nil {
		w.log.WithError(err).Error("failed to list stalled wallets")
		return 0, 0
	}

	for _, rec := range stalled {
		if ctx.Err() != nil {
			break
		}
		log := w.log.WithFields(logrus.Fields{"email": rec.Email, "state": rec.State})
		if _, err := w.resumer.Resume(ctx, rec.Email); err != nil {
			log.WithError(err).Warn("resume failed")
			failed++
			continue
		}
		log.Info("wallet provisioning resumed")
		resumed++
	}
	return resumed, failed
}
