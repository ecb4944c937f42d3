// models/notification.go
package models

import "time"

type NotificationType string

const (
	NotificationJoinRequest   NotificationType = "join_request"
	NotificationJoinAccepted  NotificationType = "join_accepted"
	NotificationJoinRejected  NotificationType = "join_rejected"
	NotificationTeamUpdated   NotificationType = "team_updated"
	NotificationMemberRemoved NotificationType = "member_removed"
)

type Notification struct {
	ID        string           `json:"id" gorm:"primaryKey;size:36"`
	UserID    string           `json:"userId" gorm:"size:128;not null;index"`
	Type      NotificationType `json:"type" gorm:"size:32;not null"`
	Title     string           `json:"title" gorm:"size:200"`
	Message   string           `json:"message" gorm:"type:text"`
	TeamID    string           `json:"teamId,omitempty" gorm:"size:36;index"`
	ActorID   string           `json:"actorId,omitempty" gorm:"size:128"`
	Read      bool             `json:"read" gorm:"column:is_read;default:false;index"`
	CreatedAt time.Time        `json:"createdAt"`
}

func (Notification) TableName() string {
	return "notifications"
}
