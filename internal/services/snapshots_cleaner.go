package services

import (
	"context"
	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/hh-search-bot/internal/domain/events"
	"github.com/maxaizer/hh-search-bot/internal/logger"
	"github.com/maxaizer/hh-search-bot/internal/metrics"
	"github.com/maxaizer/hh-search-bot/internal/repositories"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"time"
)

type snapshotCleanupRepository interface {
	RemoveOlderThan(ctx context.Context, before time.Time) ([]repositories.PurgedQuery, error)
}

// SnapshotsCleaner removes expired search snapshots on a cron schedule and announces
// every affected (user, query) pair on the bus.
type SnapshotsCleaner struct {
	snapshots     snapshotCleanupRepository
	bus           EventBus.Bus
	cron          *cron.Cron
	retentionDays int
	now           func() time.Time
}

func NewSnapshotsCleaner(snapshots snapshotCleanupRepository, bus EventBus.Bus, retentionDays int) (*SnapshotsCleaner, error) {

	if retentionDays <= 0 {
		return nil, errors.New("retention in days must be greater than zero")
	}

	return &SnapshotsCleaner{
		snapshots:     snapshots,
		bus:           bus,
		cron:          cron.New(),
		retentionDays: retentionDays,
		now:           time.Now,
	}, nil
}

// Start runs Clean on the given cron schedule, e.g. "0 4 * * *".
func (sc *SnapshotsCleaner) Start(schedule string) error {

	_, err := sc.cron.AddFunc(schedule, func() {
		if _, err := sc.Clean(context.Background()); err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to clean old snapshots: %v", err)
		}
	})
	if err != nil {
		return err
	}

	sc.cron.Start()
	log.Infof("snapshots cleaner started, retention in days: %d, schedule: %s", sc.retentionDays, schedule)
	return nil
}

func (sc *SnapshotsCleaner) Stop() {
	<-sc.cron.Stop().Done()
}

// Clean deletes snapshots older than the retention period and returns the number of affected queries.
func (sc *SnapshotsCleaner) Clean(ctx context.Context) (int, error) {

	expirationTime := sc.now().Add(-time.Duration(sc.retentionDays) * 24 * time.Hour)
	purged, err := sc.snapshots.RemoveOlderThan(ctx, expirationTime)
	if err != nil {
		return 0, err
	}

	for _, query := range purged {
		sc.bus.Publish(events.SnapshotsPurgedTopic, events.SnapshotsPurged{UserID: query.UserID, Query: query.Query})
	}

	metrics.PurgedSnapshotsCounter.Add(float64(len(purged)))
	log.Infof("old snapshots were cleaned at %v, affected queries: %d", sc.now(), len(purged))
	return len(purged), nil
}
