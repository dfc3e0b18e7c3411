package retention

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/raoulx24/savekeeper/internal/logging"
)

// Scheduler prunes the catalog on a cron schedule, so long-running
// watch sessions don't accumulate snapshots past the retention limit.
type Scheduler struct {
	cron *cron.Cron
	log  logging.Logger
}

// NewScheduler registers a prune of catalog on the given cron spec
// (standard five-field syntax, e.g. "0 * * * *").
func NewScheduler(catalog *Catalog, spec string, log logging.Logger) (*Scheduler, error) {
	log = logging.OrNop(log)
	c := cron.New()

	_, err := c.AddFunc(spec, func() {
		log.Debug("scheduled prune running")
		if err := catalog.Prune(); err != nil {
			log.Error("scheduled prune: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("retention schedule %q: %w", spec, err)
	}

	return &Scheduler{cron: c, log: log}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels the schedule and waits for a running prune to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
