package locations

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/jkovarik/dispecink-backend/internal/postinfo"
	"github.com/jkovarik/dispecink-backend/pkg/config"
	"github.com/jkovarik/dispecink-backend/pkg/db"
	"github.com/jkovarik/dispecink-backend/pkg/db/models"
	"github.com/jkovarik/dispecink-backend/pkg/logger"
	"github.com/jkovarik/dispecink-backend/pkg/metrics"
	"gorm.io/gorm/clause"
)

const syncJobName = "locations"

const upsertBatchSize = 500

type directory interface {
	GetDetail(ctx context.Context) ([]postinfo.PostDetail, error)
}

// Synchronizer keeps the location table aligned with the upstream post
// office directory. It owns its own last-sync watermark; concurrent
// callers serialize on the mutex so at most one pull runs at a time.
type Synchronizer struct {
	db      *db.Client
	dir     directory
	log     *logger.Logger
	metrics *metrics.SyncJobMetrics

	ttl       time.Duration
	maxJitter time.Duration
	now       func() time.Time

	mu       sync.Mutex
	lastSync time.Time
}

func NewSynchronizer(client *db.Client, dir directory, log *logger.Logger, m *metrics.SyncJobMetrics, cfg config.Sync) *Synchronizer {
	return &Synchronizer{
		db:        client,
		dir:       dir,
		log:       log,
		metrics:   m,
		ttl:       cfg.LocationTTL,
		maxJitter: cfg.MaxJitter,
		now:       time.Now,
	}
}

// Sync pulls the directory unless the last successful pull is still
// within the TTL.
func (s *Synchronizer) Sync(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lastSync.IsZero() && s.now().Sub(s.lastSync) < s.ttl {
		return nil
	}
	return s.run(ctx)
}

// Force pulls the directory regardless of the TTL gate.
func (s *Synchronizer) Force(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.run(ctx)
}

func (s *Synchronizer) run(ctx context.Context) error {
	start := s.now()

	details, err := s.dir.GetDetail(ctx)
	if err != nil {
		s.metrics.IncFailure(syncJobName)
		return err
	}

	rows := make([]models.Location, 0, len(details))
	for _, d := range details {
		rows = append(rows, models.Location{
			ID:             d.PostID,
			Zip:            d.PostCode,
			Name:           d.Name,
			Region:         d.Region,
			RegionOrg:      d.Region1,
			SpuName:        d.SpuName,
			PostOfficeType: d.PostOfficeTypeName,
			Email:          d.Email,
		})
	}

	if len(rows) > 0 {
		err = s.db.DB().WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				UpdateAll: true,
			}).
			CreateInBatches(rows, upsertBatchSize).Error
		if err != nil {
			s.metrics.IncFailure(syncJobName)
			return err
		}
	}

	s.lastSync = s.now()
	s.metrics.ObserveDuration(syncJobName, s.now().Sub(start))
	s.metrics.IncSuccess(syncJobName)
	if s.log != nil {
		s.log.Info(ctx, "location directory synchronized")
	}
	return nil
}

// Run blocks, re-syncing every TTL plus a small jitter until the context
// is cancelled. Failures are logged and the loop keeps going.
func (s *Synchronizer) Run(ctx context.Context) {
	for {
		if err := s.Sync(ctx); err != nil && s.log != nil {
			s.log.Error(ctx, "location sync failed", err)
		}

		timer := time.NewTimer(s.ttl + s.jitter())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (s *Synchronizer) jitter() time.Duration {
	if s.maxJitter <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(s.maxJitter)))
}
