package store

import (
	"time"

	"github.com/go-co-op/gocron"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// StartSweeper evicts sessions idle for longer than ttl, checking every
// interval. The caller stops the returned scheduler on shutdown.
func StartSweeper(reg *Registry, ttl, interval time.Duration, logger logrus.FieldLogger) (*gocron.Scheduler, error) {
	scheduler := gocron.NewScheduler(time.UTC)
	_, err := scheduler.Every(interval).Do(func() {
		evicted := reg.Evict(reg.now().Add(-ttl))
		if len(evicted) > 0 {
			logger.WithFields(logrus.Fields{
				"evicted":   len(evicted),
				"remaining": reg.Len(),
			}).Info("evicted idle sessions")
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "schedule session sweeper")
	}

	scheduler.StartAsync()
	return scheduler, nil
}
