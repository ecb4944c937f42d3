package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"hackmate/models"

	"gorm.io/gorm"
)

// ================== JOIN REQUEST WORKFLOW ==================
//
// Per (team, user): NONE -> REQUESTED -> MEMBER on accept, or back to NONE on
// cancel or reject. A user holds at most one outstanding request overall.

// AddJoinRequest records that userID wants to join teamID.
func (s *TeamService) AddJoinRequest(ctx context.Context, teamID, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return missing("userId")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inTeam, err := userHasTeam(tx, userID)
		if err != nil {
			return err
		}
		if inTeam {
			return ErrAlreadyInTeam
		}

		requested, err := userHasRequest(tx, userID)
		if err != nil {
			return err
		}
		if requested {
			return ErrAlreadyRequested
		}

		team, err := lockTeam(tx, teamID)
		if err != nil {
			return err
		}
		if team == nil {
			return ErrTeamNotFound
		}

		team.AddJoinRequest(userID)
		if err := saveTeamLists(tx, team); err != nil {
			return err
		}

		err = tx.Create(&models.PendingJoinRequest{
			UserID:      userID,
			TeamID:      team.ID,
			RequestedAt: time.Now().UTC(),
		}).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyRequested
		}
		return err
	})
}

// HasUserRequestedToJoin reports whether the user has a pending request on
// any team.
func (s *TeamService) HasUserRequestedToJoin(ctx context.Context, userID string) (bool, error) {
	return userHasRequest(s.db.WithContext(ctx), userID)
}

// PendingRequestFor returns the user's outstanding request, or nil.
func (s *TeamService) PendingRequestFor(ctx context.Context, userID string) (*models.PendingJoinRequest, error) {
	var req models.PendingJoinRequest
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// RemoveJoinRequest cancels the user's request on teamID. Missing team or
// request is a no-op.
func (s *TeamService) RemoveJoinRequest(ctx context.Context, teamID, userID string) error {
	return s.withdrawRequest(ctx, teamID, userID)
}

// RejectJoinRequest drops the request without touching members.
func (s *TeamService) RejectJoinRequest(ctx context.Context, teamID, userID string) error {
	return s.withdrawRequest(ctx, teamID, userID)
}

// AcceptJoinRequest adds member to the team and clears their request in the
// same update. It does not require member.ID to still be listed in
// joinRequests.
func (s *TeamService) AcceptJoinRequest(ctx context.Context, teamID string, member models.TeamMember) error {
	if strings.TrimSpace(member.ID) == "" {
		return missing("member.id")
	}
	if member.Role == "" {
		member.Role = models.RoleMember
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		team, err := lockTeam(tx, teamID)
		if err != nil {
			return err
		}
		if team == nil {
			return ErrTeamNotFound
		}
		if team.HasMember(member.ID) {
			return ErrAlreadyMember
		}
		if team.IsFull() {
			return ErrTeamFull
		}

		if err := claimUserTeam(tx, member.ID, team.ID); err != nil {
			return err
		}

		team.AppendMember(member)
		team.RemoveJoinRequest(member.ID)
		if err := saveTeamLists(tx, team); err != nil {
			return err
		}
		return dropPendingRequest(tx, team.ID, member.ID)
	})
}

// MemberFromProfile builds the member entry for an accepted request.
// profile may be nil when the user never filled one in.
func MemberFromProfile(userID string, profile *models.UserProfile) models.TeamMember {
	member := models.TeamMember{
		ID:     userID,
		Name:   "Anonymous",
		Role:   models.RoleMember,
		Skills: []string{},
	}
	if profile == nil {
		return member
	}

	if name := strings.TrimSpace(profile.DisplayName); name != "" {
		member.Name = name
	}
	member.Avatar = profile.Avatar
	if len(profile.Skills) > 0 {
		member.Skills = append([]string{}, profile.Skills...)
	}
	return member
}

func (s *TeamService) withdrawRequest(ctx context.Context, teamID, userID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		team, err := lockTeam(tx, teamID)
		if err != nil || team == nil {
			return err
		}

		if team.RemoveJoinRequest(userID) {
			if err := saveTeamLists(tx, team); err != nil {
				return err
			}
		}
		return dropPendingRequest(tx, team.ID, userID)
	})
}

func userHasRequest(db *gorm.DB, userID string) (bool, error) {
	var count int64
	if err := db.Model(&models.PendingJoinRequest{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func dropPendingRequest(tx *gorm.DB, teamID, userID string) error {
	return tx.Where("user_id = ? AND team_id = ?", userID, teamID).Delete(&models.PendingJoinRequest{}).Error
}
