package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Refresher revalues every portfolio and reports how many it refreshed.
type Refresher interface {
	RefreshAll(ctx context.Context) (int, error)
}

// RevalueJob periodically writes current prices through every portfolio.
type RevalueJob struct {
	interval time.Duration
	ledger   Refresher
}

func NewRevalueJob(interval time.Duration, ledger Refresher) *RevalueJob {
	return &RevalueJob{
		interval: interval,
		ledger:   ledger,
	}
}

// Start runs once immediately and then every interval until ctx is done.
func (j *RevalueJob) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.run(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.run(ctx)
		}
	}
}

func (j *RevalueJob) run(ctx context.Context) {
	start := time.Now()
	n, err := j.ledger.RefreshAll(ctx)
	if err != nil && ctx.Err() == nil {
		log.Error().Err(err).Int("refreshed", n).Msg("Portfolio revaluation incomplete")
		return
	}
	log.Debug().Int("refreshed", n).Dur("took", time.Since(start)).Msg("Portfolios revalued")
}
