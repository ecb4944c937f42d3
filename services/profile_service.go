package services

import (
	"context"
	"errors"
	"strings"

	"hackmate/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileService reads and writes user profiles.
type ProfileService struct {
	db *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db}
}

// GetUserProfileData returns the profile, or nil if the user has none.
func (s *ProfileService) GetUserProfileData(ctx context.Context, userID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := s.db.WithContext(ctx).Where("id = ?", userID).Take(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetProfiles loads the profiles for ids in one query, keyed by id.
func (s *ProfileService) GetProfiles(ctx context.Context, ids []string) (map[string]models.UserProfile, error) {
	out := make(map[string]models.UserProfile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var profiles []models.UserProfile
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, err
	}
	for _, p := range profiles {
		out[p.ID] = p
	}
	return out, nil
}

// SaveProfile creates or replaces the editable fields of a profile.
func (s *ProfileService) SaveProfile(ctx context.Context, profile *models.UserProfile) error {
	if strings.TrimSpace(profile.ID) == "" {
		return missing("id")
	}
	profile.DisplayName = strings.TrimSpace(profile.DisplayName)
	if profile.DisplayName == "" {
		return missing("displayName")
	}
	profile.Skills = cleanSkills(profile.Skills)
	if profile.Projects == nil {
		profile.Projects = []models.PortfolioProject{}
	}

	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"display_name", "avatar", "bio", "skills",
			"github_url", "linkedin_url", "portfolio_url", "projects", "updated_at",
		}),
	}).Create(profile).Error
}
