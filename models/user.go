// models/user.go
package models

import (
	"time"

	"gorm.io/datatypes"
)

// UserProfile is the public profile and portfolio of a user. The ID is the
// identifier issued by the authentication provider.
type UserProfile struct {
	ID           string                                `gorm:"primaryKey;size:128" json:"id"`
	DisplayName  string                                `gorm:"size:100" json:"displayName"`
	Avatar       string                                `json:"avatar,omitempty"`
	Bio          string                                `gorm:"type:text" json:"bio"`
	Skills       datatypes.JSONSlice[string]           `json:"skills"`
	GithubURL    string                                `json:"githubUrl,omitempty"`
	LinkedinURL  string                                `json:"linkedinUrl,omitempty"`
	PortfolioURL string                                `json:"portfolioUrl,omitempty"`
	Projects     datatypes.JSONSlice[PortfolioProject] `json:"projects"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}

type PortfolioProject struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	URL         string   `json:"url,omitempty"`
	TechStack   []string `json:"techStack,omitempty"`
}
