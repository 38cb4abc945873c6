package data

import (
	"context"
	"crypto/ed25519"
	"time"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/lotterynft/lottery-client/pkg/solana/lottery"
)

// LotteryReader fetches the current lottery account.
type LotteryReader interface {
	GetLottery(ctx context.Context, address ed25519.PublicKey) (*Lottery, error)
}

// LotteryUpdate is one observation emitted by a LotteryWatcher.
type LotteryUpdate struct {
	Lottery   *Lottery
	State     lottery.LotteryState
	Countdown lottery.Countdown
}

// LotteryWatcher polls a lottery and emits updates whose effective state
// never moves backwards. A node lagging behind a previous read can return an
// older state; such observations are dropped.
type LotteryWatcher struct {
	log      *logrus.Entry
	reader   LotteryReader
	address  ed25519.PublicKey
	interval time.Duration
	now      func() time.Time

	observed bool
	last     lottery.LotteryState
}

func NewLotteryWatcher(reader LotteryReader, address ed25519.PublicKey, interval time.Duration) *LotteryWatcher {
	return &LotteryWatcher{
		log: logrus.StandardLogger().WithFields(logrus.Fields{
			"type":    "data/lottery_watcher",
			"lottery": base58.Encode(address),
		}),
		reader:   reader,
		address:  address,
		interval: interval,
		now:      time.Now,
	}
}

// WatchLottery returns a watcher for address polling at the configured
// interval.
func (dp *BlockchainProvider) WatchLottery(ctx context.Context, address ed25519.PublicKey) *LotteryWatcher {
	return NewLotteryWatcher(dp, address, dp.conf.watchInterval.Get(ctx))
}

// Observe folds one fetched account into the watcher. It reports false when
// the observation would regress the effective state.
func (w *LotteryWatcher) Observe(record *Lottery) (LotteryUpdate, bool) {
	now := w.now()
	state := record.EffectiveState(now)

	// Unrecognized states are surfaced but never become the baseline.
	if !state.Valid() {
		w.log.WithField("observed", state.String()).Warn("unrecognized lottery state")
		return LotteryUpdate{Lottery: record, State: state}, true
	}

	if w.observed && !w.last.Precedes(state) {
		w.log.WithFields(logrus.Fields{
			"last":     w.last.String(),
			"observed": state.String(),
		}).Debug("dropping stale lottery observation")
		return LotteryUpdate{}, false
	}

	w.observed = true
	w.last = state
	return LotteryUpdate{
		Lottery:   record,
		State:     state,
		Countdown: record.TimeToEnd(now),
	}, true
}

// Run polls until ctx is done or the lottery has ended, sending accepted
// updates to updates. Fetch failures are logged and retried on the next
// tick. The final update of an ended lottery is always delivered before Run
// returns nil.
func (w *LotteryWatcher) Run(ctx context.Context, updates chan<- LotteryUpdate) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		record, err := w.reader.GetLottery(ctx, w.address)
		if err != nil {
			w.log.WithError(err).Warn("failed to fetch lottery")
		} else if update, ok := w.Observe(record); ok {
			select {
			case updates <- update:
			case <-ctx.Done():
				return ctx.Err()
			}

			if update.State == lottery.LotteryStateEnded {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
