package services

import (
	"context"
	"log"
	"sync"
	"time"

	"hackmate/models"

	"gorm.io/gorm"
)

// CleanupService handles background cleanup tasks
type CleanupService struct {
	db        *gorm.DB
	interval  time.Duration
	retention time.Duration

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewCleanupService prunes read notifications older than retention every
// interval once started.
func NewCleanupService(db *gorm.DB, interval, retention time.Duration) *CleanupService {
	return &CleanupService{
		db:        db,
		interval:  interval,
		retention: retention,
		stop:      make(chan struct{}),
	}
}

// Start launches the cleanup worker.
func (s *CleanupService) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := s.PruneNotifications(context.Background()); err != nil {
					log.Printf("Error pruning notifications: %v", err)
				}
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop stops the worker and waits for a running pass to finish.
func (s *CleanupService) Stop() {
	close(s.stop)
	s.wg.Wait()
}

// PruneNotifications deletes read notifications older than the retention
// window and returns how many were removed.
func (s *CleanupService) PruneNotifications(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-s.retention)
	res := s.db.WithContext(ctx).
		Where("is_read = ? AND created_at < ?", true, cutoff).
		Delete(&models.Notification{})
	if res.Error != nil {
		return 0, res.Error
	}

	if res.RowsAffected > 0 {
		log.Printf("✅ Cleaned up %d read notifications", res.RowsAffected)
	}
	return res.RowsAffected, nil
}
