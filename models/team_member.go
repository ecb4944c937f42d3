// models/team_member.go
package models

import "time"

const (
	RoleTeamLead = "Team Lead"
	RoleMember   = "Member"
)

// TeamMember is an entry of Team.Members. It is embedded in the team row, not
// a table of its own.
type TeamMember struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Role   string   `json:"role"`
	Skills []string `json:"skills"`
	Avatar string   `json:"avatar,omitempty"`
}

// Normalized returns a copy with nil skills replaced by an empty list.
func (m TeamMember) Normalized() TeamMember {
	if m.Skills == nil {
		m.Skills = []string{}
	} else {
		m.Skills = append([]string{}, m.Skills...)
	}
	return m
}

// UserTeam points a user at the one team they belong to. UserID is the primary
// key, so the store itself refuses a second team for the same user.
type UserTeam struct {
	UserID   string    `json:"userId" gorm:"primaryKey;size:128"`
	TeamID   string    `json:"teamId" gorm:"size:36;not null;index"`
	JoinedAt time.Time `json:"joinedAt" gorm:"not null"`
}

func (UserTeam) TableName() string {
	return "user_teams"
}

// PendingJoinRequest records a user's single outstanding join request.
type PendingJoinRequest struct {
	UserID      string    `json:"userId" gorm:"primaryKey;size:128"`
	TeamID      string    `json:"teamId" gorm:"size:36;not null;index"`
	RequestedAt time.Time `json:"requestedAt" gorm:"not null"`
}

func (PendingJoinRequest) TableName() string {
	return "pending_join_requests"
}
