// services/hackathon_service.go - Hackathon lookup and discovery
package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"hackmate/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HackathonLookup resolves a hackathon id. A missing hackathon is (nil, nil).
type HackathonLookup interface {
	GetHackathonByID(ctx context.Context, id string) (*models.Hackathon, error)
}

type HackathonService struct {
	db *gorm.DB
}

func NewHackathonService(db *gorm.DB) *HackathonService {
	return &HackathonService{db: db}
}

// GetHackathonByID returns the hackathon, or nil if it does not exist.
func (s *HackathonService) GetHackathonByID(ctx context.Context, id string) (*models.Hackathon, error) {
	var h models.Hackathon
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&h).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// ListHackathons returns hackathons ordered by start date. With upcomingOnly
// set, hackathons that already ended are skipped.
func (s *HackathonService) ListHackathons(ctx context.Context, upcomingOnly bool) ([]models.Hackathon, error) {
	var hackathons []models.Hackathon

	query := s.db.WithContext(ctx).Order("start_date ASC")
	if upcomingOnly {
		query = query.Where("end_date >= ?", time.Now().UTC())
	}

	err := query.Find(&hackathons).Error
	return hackathons, err
}

// UpsertHackathon inserts h or overwrites the row with the same id.
func (s *HackathonService) UpsertHackathon(ctx context.Context, h *models.Hackathon) error {
	h.ID = strings.TrimSpace(h.ID)
	if h.ID == "" {
		return missing("id")
	}
	if strings.TrimSpace(h.Name) == "" {
		return missing("name")
	}
	if h.Tracks == nil {
		h.Tracks = []string{}
	}

	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "location", "website", "start_date", "end_date", "tracks", "updated_at"}),
	}).Create(h).Error
}

// ================== REDIS CACHE ==================

// CachedHackathons is a read-through cache in front of another lookup.
// Misses are not cached, and redis failures fall back to the source.
type CachedHackathons struct {
	next HackathonLookup
	rdb  *redis.Client
	ttl  time.Duration
}

func NewCachedHackathons(next HackathonLookup, rdb *redis.Client, ttl time.Duration) *CachedHackathons {
	return &CachedHackathons{next: next, rdb: rdb, ttl: ttl}
}

func hackathonKey(id string) string {
	return "hackathon:" + id
}

func (c *CachedHackathons) GetHackathonByID(ctx context.Context, id string) (*models.Hackathon, error) {
	raw, err := c.rdb.Get(ctx, hackathonKey(id)).Bytes()
	switch {
	case err == nil:
		var h models.Hackathon
		if jsonErr := json.Unmarshal(raw, &h); jsonErr == nil {
			return &h, nil
		}
		log.Printf("hackathon cache: dropping corrupt entry %s", id)
	case !errors.Is(err, redis.Nil):
		log.Printf("hackathon cache: get %s: %v", id, err)
	}

	h, err := c.next.GetHackathonByID(ctx, id)
	if err != nil || h == nil {
		return h, err
	}

	if payload, err := json.Marshal(h); err == nil {
		if err := c.rdb.Set(ctx, hackathonKey(id), payload, c.ttl).Err(); err != nil {
			log.Printf("hackathon cache: set %s: %v", id, err)
		}
	}
	return h, nil
}

// Invalidate drops the cached copy of id.
func (c *CachedHackathons) Invalidate(ctx context.Context, id string) error {
	return c.rdb.Del(ctx, hackathonKey(id)).Err()
}
