// Package sweeper removes MOU objects that were stored but never attached to a record.
package sweeper

import (
	"context"
	"strings"
	"time"

	"ideanest-backend/internal/application/documents"
	"ideanest-backend/internal/infrastructure/storage"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// KeySource reports the storage keys records still point at.
type KeySource interface {
	ReferencedKeys(ctx context.Context) (map[string]bool, error)
}

// Result summarises one sweep.
type Result struct {
	Scanned int `json:"scanned"`
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
}

type Sweeper struct {
	Store storage.ObjectStore
	Keys  KeySource
	// Grace protects objects whose attach step may still be in flight.
	Grace time.Duration
	Now   func() time.Time

	cron *cron.Cron
}

func (s *Sweeper) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Sweep deletes unreferenced objects under the MOU prefix older than the grace period.
// Objects are listed before references are loaded so an attach that lands in between is kept.
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	var res Result
	objects, err := s.Store.List(ctx, documents.KeyPrefix)
	if err != nil {
		return res, err
	}
	referenced, err := s.Keys.ReferencedKeys(ctx)
	if err != nil {
		return res, err
	}
	cutoff := s.now().Add(-s.Grace)
	for _, obj := range objects {
		if !strings.HasPrefix(obj.Key, documents.KeyPrefix) {
			continue
		}
		res.Scanned++
		if referenced[obj.Key] || obj.LastModified.After(cutoff) {
			continue
		}
		if err := s.Store.Delete(ctx, obj.Key); err != nil {
			res.Failed++
			log.Warn().Err(err).Str("key", obj.Key).Msg("orphaned document delete failed")
			continue
		}
		res.Deleted++
		log.Info().Str("key", obj.Key).Time("last_modified", obj.LastModified).Msg("orphaned document deleted")
	}
	return res, nil
}

// Start runs Sweep on the cron schedule (e.g. "@every 6h") until Stop.
func (s *Sweeper) Start(schedule string) error {
	s.cron = cron.New()
	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		res, err := s.Sweep(ctx)
		if err != nil {
			log.Error().Err(err).Msg("document sweep failed")
			return
		}
		log.Info().Int("scanned", res.Scanned).Int("deleted", res.Deleted).Int("failed", res.Failed).Msg("document sweep finished")
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	log.Info().Str("schedule", schedule).Msg("document sweeper started")
	return nil
}

func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	log.Info().Msg("document sweeper stopped")
}
