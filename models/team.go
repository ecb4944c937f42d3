// models/team.go
package models

import (
	"time"

	"gorm.io/datatypes"
)

// Team is stored as one document-shaped row: members, required skills and
// pending join requests live in JSON columns on the team itself.
type Team struct {
	ID          string `json:"id" gorm:"primaryKey;size:36"`
	Name        string `json:"name" gorm:"not null;size:100"`
	Description string `json:"description" gorm:"type:text"`

	// Denormalized hackathon data, copied at creation time.
	HackathonID        *string    `json:"hackathonId,omitempty" gorm:"size:64;index"`
	HackathonName      string     `json:"hackathonName" gorm:"size:200"`
	HackathonStartDate *time.Time `json:"hackathonStartDate,omitempty"`
	HackathonEndDate   *time.Time `json:"hackathonEndDate,omitempty"`

	TeamCode       string                          `json:"teamCode" gorm:"uniqueIndex;size:6;not null"`
	Members        datatypes.JSONSlice[TeamMember] `json:"members"`
	MemberCount    int                             `json:"-" gorm:"not null;default:0;index:idx_teams_capacity,priority:1"`
	RequiredSkills datatypes.JSONSlice[string]     `json:"requiredSkills"`
	MaxMembers     int                             `json:"maxMembers" gorm:"not null;index:idx_teams_capacity,priority:2"`
	JoinRequests   datatypes.JSONSlice[string]     `json:"joinRequests"`

	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy" gorm:"size:128;not null;index"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Team) TableName() string {
	return "teams"
}

// HasMember reports whether userID is in the members list.
func (t *Team) HasMember(userID string) bool {
	return t.memberIndex(userID) >= 0
}

// IsFull reports whether the team has reached MaxMembers.
func (t *Team) IsFull() bool {
	return len(t.Members) >= t.MaxMembers
}

// Lead returns the first member holding the Team Lead role, if any.
func (t *Team) Lead() *TeamMember {
	for i := range t.Members {
		if t.Members[i].Role == RoleTeamLead {
			return &t.Members[i]
		}
	}
	return nil
}

// AppendMember adds m and keeps MemberCount in step.
func (t *Team) AppendMember(m TeamMember) {
	t.Members = append(t.Members, m.Normalized())
	t.MemberCount = len(t.Members)
}

// DropMember removes the member with the given id. It returns false if the
// id was not present.
func (t *Team) DropMember(userID string) bool {
	i := t.memberIndex(userID)
	if i < 0 {
		return false
	}
	members := make([]TeamMember, 0, len(t.Members)-1)
	members = append(members, t.Members[:i]...)
	members = append(members, t.Members[i+1:]...)
	t.Members = members
	t.MemberCount = len(t.Members)
	return true
}

// HasJoinRequest reports whether userID has a pending request on this team.
func (t *Team) HasJoinRequest(userID string) bool {
	for _, id := range t.JoinRequests {
		if id == userID {
			return true
		}
	}
	return false
}

// AddJoinRequest appends userID unless it is already present.
func (t *Team) AddJoinRequest(userID string) {
	if !t.HasJoinRequest(userID) {
		t.JoinRequests = append(t.JoinRequests, userID)
	}
}

// RemoveJoinRequest removes userID, preserving the order of the rest.
func (t *Team) RemoveJoinRequest(userID string) bool {
	requests := make([]string, 0, len(t.JoinRequests))
	removed := false
	for _, id := range t.JoinRequests {
		if id == userID {
			removed = true
			continue
		}
		requests = append(requests, id)
	}
	t.JoinRequests = requests
	return removed
}

// Normalize applies the defaults every stored team carries: non-nil slices,
// normalized members and a matching MemberCount.
func (t *Team) Normalize() {
	if t.Members == nil {
		t.Members = datatypes.JSONSlice[TeamMember]{}
	}
	for i := range t.Members {
		t.Members[i] = t.Members[i].Normalized()
	}
	if t.RequiredSkills == nil {
		t.RequiredSkills = datatypes.JSONSlice[string]{}
	}
	if t.JoinRequests == nil {
		t.JoinRequests = datatypes.JSONSlice[string]{}
	}
	t.MemberCount = len(t.Members)
}

func (t *Team) memberIndex(userID string) int {
	for i, m := range t.Members {
		if m.ID == userID {
			return i
		}
	}
	return -1
}
