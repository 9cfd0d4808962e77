package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// errNothingToClaim is returned by a single claim when no whole dividend
// period has elapsed since the last accrual.
var errNothingToClaim = errors.New("nothing to claim yet")

// claimAuthorizer reports whether the investor can claim dividends now.
type claimAuthorizer interface {
	IsAutorizedPayment(investor util.Uint160) (bool, error)
}

// claimer claims investor dividends once or on schedule.
type claimer struct {
	log      *zap.Logger
	reader   claimAuthorizer
	investor util.Uint160
	claim    func(ctx context.Context) error
}

// run performs a single claim if it is authorized by the contract.
func (x *claimer) run(ctx context.Context) error {
	ok, err := x.reader.IsAutorizedPayment(x.investor)
	if err != nil {
		return fmt.Errorf("check claim availability: %w", err)
	}
	if !ok {
		return errNothingToClaim
	}

	if err = x.claim(ctx); err != nil {
		return fmt.Errorf("claim dividends: %w", err)
	}

	return nil
}

// schedule runs claims on the cron spec until ctx is done. Overlapping runs
// are skipped.
func (x *claimer) schedule(ctx context.Context, spec string) error {
	logger := cronLogger{x.log.Sugar()}

	c := cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))

	_, err := c.AddFunc(spec, func() {
		err := x.run(ctx)
		switch {
		case err == nil:
		case errors.Is(err, errNothingToClaim):
			x.log.Debug("nothing to claim", zap.Stringer("investor", x.investor))
		default:
			x.log.Error("scheduled claim failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule '%s': %w", spec, err)
	}

	c.Start()
	x.log.Info("claim scheduler started", zap.String("schedule", spec))

	<-ctx.Done()

	<-c.Stop().Done()
	x.log.Info("claim scheduler stopped")

	return nil
}

// cronLogger adapts zap logger to cron.Logger.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (x cronLogger) Info(msg string, keysAndValues ...any) {
	x.l.Debugw(msg, keysAndValues...)
}

func (x cronLogger) Error(err error, msg string, keysAndValues ...any) {
	x.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
