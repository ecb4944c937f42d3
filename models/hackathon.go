// models/hackathon.go
package models

import (
	"time"

	"gorm.io/datatypes"
)

type Hackathon struct {
	ID          string                      `json:"id" gorm:"primaryKey;size:64"`
	Name        string                      `json:"name" gorm:"not null;size:200"`
	Description string                      `json:"description" gorm:"type:text"`
	Location    string                      `json:"location" gorm:"size:200"`
	Website     string                      `json:"website,omitempty"`
	StartDate   time.Time                   `json:"startDate" gorm:"index"`
	EndDate     time.Time                   `json:"endDate"`
	Tracks      datatypes.JSONSlice[string] `json:"tracks"`
	CreatedAt   time.Time                   `json:"createdAt"`
	UpdatedAt   time.Time                   `json:"updatedAt"`
}

func (Hackathon) TableName() string {
	return "hackathons"
}
