// services/notification_service.go - In-app notifications
package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"hackmate/models"

	"github.com/google/uuid"
	"github.com/sergi/go-diff/diffmatchpatch"
	"gorm.io/gorm"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationService persists notifications and pushes a live event to the
// recipient. Notify never fails the caller: the team workflow is complete
// before any notification is sent.
type NotificationService struct {
	db  *gorm.DB
	hub *EventHub
}

func NewNotificationService(db *gorm.DB, hub *EventHub) *NotificationService {
	return &NotificationService{db: db, hub: hub}
}

// Notify stores n and publishes it on the recipient's user topic. Errors are
// logged, not returned.
func (s *NotificationService) Notify(ctx context.Context, n models.Notification) {
	if n.UserID == "" || n.UserID == n.ActorID {
		return
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}

	if err := s.db.WithContext(ctx).Create(&n).Error; err != nil {
		log.Printf("notification: failed to store %s for %s: %v", n.Type, n.UserID, err)
		return
	}

	if s.hub != nil {
		s.hub.Publish(UserTopic(n.UserID), TeamEvent{
			Type:   EventNotificationNew,
			TeamID: n.TeamID,
			UserID: n.UserID,
		})
	}
}

// NotifyMembers sends a copy of n to every member of team except the actor.
func (s *NotificationService) NotifyMembers(ctx context.Context, team *models.Team, n models.Notification) {
	for _, m := range team.Members {
		msg := n
		msg.ID = ""
		msg.UserID = m.ID
		s.Notify(ctx, msg)
	}
}

// ListForUser returns the user's newest notifications first.
func (s *NotificationService) ListForUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	var notifications []models.Notification

	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Order("created_at DESC").Find(&notifications).Error
	return notifications, err
}

// MarkRead flags one of the user's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// ================== MESSAGE BUILDERS ==================

func JoinRequestNotification(team *models.Team, requester models.TeamMember) models.Notification {
	return models.Notification{
		UserID:  team.CreatedBy,
		ActorID: requester.ID,
		TeamID:  team.ID,
		Type:    models.NotificationJoinRequest,
		Title:   "New join request",
		Message: fmt.Sprintf("%s wants to join %s", requester.Name, team.Name),
	}
}

func JoinDecisionNotification(team *models.Team, userID, actorID string, accepted bool) models.Notification {
	n := models.Notification{
		UserID:  userID,
		ActorID: actorID,
		TeamID:  team.ID,
	}
	if accepted {
		n.Type = models.NotificationJoinAccepted
		n.Title = "Request accepted"
		n.Message = fmt.Sprintf("You are now a member of %s", team.Name)
	} else {
		n.Type = models.NotificationJoinRejected
		n.Title = "Request declined"
		n.Message = fmt.Sprintf("Your request to join %s was declined", team.Name)
	}
	return n
}

func MemberRemovedNotification(team *models.Team, userID, actorID string) models.Notification {
	return models.Notification{
		UserID:  userID,
		ActorID: actorID,
		TeamID:  team.ID,
		Type:    models.NotificationMemberRemoved,
		Title:   "Removed from team",
		Message: fmt.Sprintf("You are no longer a member of %s", team.Name),
	}
}

// TeamUpdatedNotification describes an edit by the lead. When the description
// changed, the message carries a text patch from the old to the new version.
func TeamUpdatedNotification(before *models.Team, patch TeamPatch, actorID string) models.Notification {
	n := models.Notification{
		ActorID: actorID,
		TeamID:  before.ID,
		Type:    models.NotificationTeamUpdated,
		Title:   "Team updated",
		Message: fmt.Sprintf("%s was updated by the team lead", before.Name),
	}
	if patch.Description != nil && *patch.Description != before.Description {
		n.Message += "\n\n" + DescriptionPatch(before.Description, *patch.Description)
	}
	return n
}

// DescriptionPatch renders the change from before to after as a unified-style
// patch.
func DescriptionPatch(before, after string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	return dmp.PatchToText(dmp.PatchMake(before, diffs))
}
